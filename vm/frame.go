package vm

import (
	"github.com/kongscript/kong/code"
	"github.com/kongscript/kong/object"
)

// Frame is one entry in the VM's call stack: the closure being executed,
// where execution currently is within it, and where its locals begin on
// the shared operand stack.
type Frame struct {
	cl          *object.Closure
	ip          int
	basePointer int
}

// NewFrame starts a frame for cl with its instruction pointer positioned
// just before the first instruction, so the dispatch loop's pre-increment
// lands on offset 0.
func NewFrame(cl *object.Closure, basePointer int) *Frame {
	return &Frame{cl: cl, ip: -1, basePointer: basePointer}
}

// Instructions returns the bytecode of the closure this frame is running.
func (f *Frame) Instructions() code.Instructions {
	return f.cl.Fn.Instructions
}
