// Package vm implements the stack-based virtual machine that executes
// bytecode produced by the compiler package.
//
// The VM maintains an operand stack, a slice of global bindings, and a
// stack of call frames. Its Run method drives a fetch-decode-execute
// loop over the current frame's instructions until the outermost frame
// is exhausted.
package vm

import (
	"github.com/pkg/errors"

	"github.com/kongscript/kong/code"
	"github.com/kongscript/kong/compiler"
	"github.com/kongscript/kong/object"
)

// StackSize is the fixed capacity of the VM's operand stack.
const StackSize = 2048

// GlobalsSize is the upper limit on global bindings, dictated by the
// 16-bit width of OpSetGlobal/OpGetGlobal operands.
const GlobalsSize = 65536

// MaxFrames bounds the depth of nested function calls.
const MaxFrames = 1024

// True and False are the canonical Boolean singletons the VM pushes
// and compares by pointer identity.
var True = &object.Boolean{Value: true}
var False = &object.Boolean{Value: false}

// Null is the canonical Null singleton.
var Null = &object.Null{}

// VM executes the bytecode instructions and constants produced by the
// compiler, maintaining an operand stack, global bindings, and a stack
// of call frames for function invocation.
type VM struct {
	constants []object.Object

	stack []object.Object
	// sp always points to the next free slot in the stack.
	sp int

	globals []object.Object

	frames      []*Frame
	framesIndex int
}

// New initializes a VM for the given bytecode, wrapping it in a
// parameterless closure so the main program runs through the same
// frame machinery as any other function call.
func New(bytecode *compiler.Bytecode) *VM {
	mainFn := &object.CompiledFunction{Instructions: bytecode.Instructions}
	mainClosure := &object.Closure{Fn: mainFn}
	mainFrame := NewFrame(mainClosure, 0)

	frames := make([]*Frame, MaxFrames)
	frames[0] = mainFrame

	globals := make([]object.Object, GlobalsSize)
	for i := range globals {
		globals[i] = Null
	}

	return &VM{
		constants:   bytecode.Constants,
		stack:       make([]object.Object, StackSize),
		sp:          0,
		globals:     globals,
		frames:      frames,
		framesIndex: 1,
	}
}

// NewWithGlobalStore creates a VM that reuses a globals slice from a
// previous run, letting the REPL carry `let`-bindings across lines.
func NewWithGlobalStore(bytecode *compiler.Bytecode, s []object.Object) *VM {
	vm := New(bytecode)
	vm.globals = s
	return vm
}

func (vm *VM) currentFrame() *Frame {
	return vm.frames[vm.framesIndex-1]
}

func (vm *VM) pushFrame(f *Frame) {
	vm.frames[vm.framesIndex] = f
	vm.framesIndex++
}

func (vm *VM) popFrame() *Frame {
	vm.framesIndex--
	return vm.frames[vm.framesIndex]
}

// LastPoppedStackElem returns the object most recently popped off the
// stack, used by the REPL and tests to observe the result of a line
// without requiring an explicit return.
func (vm *VM) LastPoppedStackElem() object.Object {
	return vm.stack[vm.sp]
}

// Run drives the fetch-decode-execute loop, dispatching each opcode in
// the current frame until the outermost frame's instructions are
// exhausted.
func (vm *VM) Run() error {
	var ip int
	var ins code.Instructions
	var op code.Opcode

	for vm.currentFrame().ip < len(vm.currentFrame().Instructions())-1 {
		vm.currentFrame().ip++

		ip = vm.currentFrame().ip
		ins = vm.currentFrame().Instructions()
		op = code.Opcode(ins[ip])

		switch op {
		case code.OpConstant:
			constIndex := code.ReadUint16(ins[ip+1:])
			vm.currentFrame().ip += 2

			if err := vm.push(vm.constants[constIndex]); err != nil {
				return wrapOpErr(err, ip, "OpConstant")
			}

		case code.OpAdd, code.OpSub, code.OpMul, code.OpDiv:
			if err := vm.executeBinaryOperation(op); err != nil {
				return wrapOpErr(err, ip, opSymbol(op))
			}

		case code.OpGreaterThan, code.OpEqual, code.OpNotEqual:
			if err := vm.executeComparison(op); err != nil {
				return wrapOpErr(err, ip, opSymbol(op))
			}

		case code.OpMinus:
			if err := vm.executeMinusOperator(); err != nil {
				return wrapOpErr(err, ip, "OpMinus")
			}

		case code.OpBang:
			if err := vm.executeBangOperator(); err != nil {
				return wrapOpErr(err, ip, "OpBang")
			}

		case code.OpTrue:
			if err := vm.push(True); err != nil {
				return wrapOpErr(err, ip, "OpTrue")
			}

		case code.OpFalse:
			if err := vm.push(False); err != nil {
				return wrapOpErr(err, ip, "OpFalse")
			}

		case code.OpNull:
			if err := vm.push(Null); err != nil {
				return wrapOpErr(err, ip, "OpNull")
			}

		case code.OpJump:
			pos := int(code.ReadUint16(ins[ip+1:]))
			vm.currentFrame().ip = pos - 1

		case code.OpJumpNotTruthy:
			pos := int(code.ReadUint16(ins[ip+1:]))
			vm.currentFrame().ip += 2

			condition := vm.pop()
			if !isTruthy(condition) {
				vm.currentFrame().ip = pos - 1
			}

		case code.OpSetGlobal:
			globalIndex := code.ReadUint16(ins[ip+1:])
			vm.currentFrame().ip += 2
			vm.globals[globalIndex] = vm.pop()

		case code.OpGetGlobal:
			globalIndex := code.ReadUint16(ins[ip+1:])
			vm.currentFrame().ip += 2
			if err := vm.push(vm.globals[globalIndex]); err != nil {
				return wrapOpErr(err, ip, "OpGetGlobal")
			}

		case code.OpSetLocal:
			localIndex := int(ins[ip+1])
			vm.currentFrame().ip++
			frame := vm.currentFrame()
			vm.stack[frame.basePointer+localIndex] = vm.pop()

		case code.OpGetLocal:
			localIndex := int(ins[ip+1])
			vm.currentFrame().ip++
			frame := vm.currentFrame()
			if err := vm.push(vm.stack[frame.basePointer+localIndex]); err != nil {
				return wrapOpErr(err, ip, "OpGetLocal")
			}

		case code.OpGetBuiltin:
			builtinIndex := int(ins[ip+1])
			vm.currentFrame().ip++
			definition := object.Builtins[builtinIndex]
			if err := vm.push(definition.Builtin); err != nil {
				return wrapOpErr(err, ip, "OpGetBuiltin")
			}

		case code.OpArray:
			numElements := int(code.ReadUint16(ins[ip+1:]))
			vm.currentFrame().ip += 2

			array := vm.buildArray(vm.sp-numElements, vm.sp)
			vm.sp -= numElements
			if err := vm.push(array); err != nil {
				return wrapOpErr(err, ip, "OpArray")
			}

		case code.OpHash:
			numElements := int(code.ReadUint16(ins[ip+1:]))
			vm.currentFrame().ip += 2

			hash, err := vm.buildHash(vm.sp-numElements, vm.sp)
			if err != nil {
				return wrapOpErr(err, ip, "OpHash")
			}
			vm.sp -= numElements
			if err := vm.push(hash); err != nil {
				return wrapOpErr(err, ip, "OpHash")
			}

		case code.OpIndex:
			index := vm.pop()
			left := vm.pop()
			if err := vm.executeIndexExpression(left, index); err != nil {
				return wrapOpErr(err, ip, "OpIndex")
			}

		case code.OpCall:
			numArgs := int(ins[ip+1])
			vm.currentFrame().ip++
			if err := vm.executeCall(numArgs); err != nil {
				return wrapOpErr(err, ip, "OpCall")
			}

		case code.OpReturnValue:
			returnValue := vm.pop()
			frame := vm.popFrame()
			vm.sp = frame.basePointer - 1
			if err := vm.push(returnValue); err != nil {
				return wrapOpErr(err, ip, "OpReturnValue")
			}

		case code.OpReturn:
			frame := vm.popFrame()
			vm.sp = frame.basePointer - 1
			if err := vm.push(Null); err != nil {
				return wrapOpErr(err, ip, "OpReturn")
			}

		case code.OpClosure:
			constIndex := code.ReadUint16(ins[ip+1:])
			numFree := int(ins[ip+3])
			vm.currentFrame().ip += 3
			if err := vm.pushClosure(int(constIndex), numFree); err != nil {
				return wrapOpErr(err, ip, "OpClosure")
			}

		case code.OpGetFree:
			freeIndex := int(ins[ip+1])
			vm.currentFrame().ip++
			currentClosure := vm.currentFrame().cl
			if err := vm.push(currentClosure.Free[freeIndex]); err != nil {
				return wrapOpErr(err, ip, "OpGetFree")
			}

		case code.OpCurrentClosure:
			currentClosure := vm.currentFrame().cl
			if err := vm.push(currentClosure); err != nil {
				return wrapOpErr(err, ip, "OpCurrentClosure")
			}

		case code.OpPop:
			vm.pop()
		}
	}

	return nil
}

func isTruthy(obj object.Object) bool {
	switch obj := obj.(type) {
	case *object.Boolean:
		return obj.Value
	case *object.Null:
		return false
	case *object.Integer:
		return obj.Value != 0
	default:
		return true
	}
}

func (vm *VM) push(o object.Object) error {
	if vm.sp >= StackSize {
		return errors.New("stack overflow")
	}

	vm.stack[vm.sp] = o
	vm.sp++
	return nil
}

func (vm *VM) pop() object.Object {
	o := vm.stack[vm.sp-1]
	vm.sp--
	return o
}

func (vm *VM) executeBinaryOperation(op code.Opcode) error {
	right := vm.pop()
	left := vm.pop()

	leftType := left.Type()
	rightType := right.Type()

	switch {
	case leftType == object.INTEGER_OBJ && rightType == object.INTEGER_OBJ:
		return vm.executeBinaryIntegerOperation(op, left, right)
	case leftType == object.STRING_OBJ && rightType == object.STRING_OBJ:
		return vm.executeBinaryStringOperation(op, left, right)
	default:
		return vm.push(&object.Error{
			Message: "type mismatch: " + string(leftType) + " " + opSymbol(op) + " " + string(rightType),
		})
	}
}

func (vm *VM) executeBinaryIntegerOperation(op code.Opcode, left, right object.Object) error {
	leftValue := left.(*object.Integer).Value
	rightValue := right.(*object.Integer).Value

	var result int64
	switch op {
	case code.OpAdd:
		result = leftValue + rightValue
	case code.OpSub:
		result = leftValue - rightValue
	case code.OpMul:
		result = leftValue * rightValue
	case code.OpDiv:
		if rightValue == 0 {
			return vm.push(&object.Error{Message: "division by zero"})
		}
		result = leftValue / rightValue
	default:
		return errors.Errorf("unknown integer operator: %d", op)
	}

	return vm.push(&object.Integer{Value: result})
}

func (vm *VM) executeBinaryStringOperation(op code.Opcode, left, right object.Object) error {
	if op != code.OpAdd {
		return vm.push(&object.Error{Message: "unknown operator for strings"})
	}

	leftValue := left.(*object.String).Value
	rightValue := right.(*object.String).Value

	return vm.push(&object.String{Value: leftValue + rightValue})
}

func (vm *VM) executeComparison(op code.Opcode) error {
	right := vm.pop()
	left := vm.pop()

	if left.Type() == object.INTEGER_OBJ && right.Type() == object.INTEGER_OBJ {
		return vm.executeIntegerComparison(op, left, right)
	}

	if left.Type() != right.Type() {
		return vm.push(&object.Error{
			Message: "type mismatch: " + string(left.Type()) + " " + opSymbol(op) + " " + string(right.Type()),
		})
	}

	switch op {
	case code.OpEqual:
		return vm.push(nativeBoolToBooleanObject(right == left))
	case code.OpNotEqual:
		return vm.push(nativeBoolToBooleanObject(right != left))
	default:
		return vm.push(&object.Error{
			Message: "unknown operator: " + opSymbol(op) + " (" + string(left.Type()) + " " + string(right.Type()) + ")",
		})
	}
}

func (vm *VM) executeIntegerComparison(op code.Opcode, left, right object.Object) error {
	leftValue := left.(*object.Integer).Value
	rightValue := right.(*object.Integer).Value

	switch op {
	case code.OpGreaterThan:
		return vm.push(nativeBoolToBooleanObject(leftValue > rightValue))
	case code.OpEqual:
		return vm.push(nativeBoolToBooleanObject(leftValue == rightValue))
	case code.OpNotEqual:
		return vm.push(nativeBoolToBooleanObject(leftValue != rightValue))
	default:
		return errors.Errorf("unknown operator: %d", op)
	}
}

func nativeBoolToBooleanObject(b bool) *object.Boolean {
	if b {
		return True
	}
	return False
}

func (vm *VM) executeBangOperator() error {
	operand := vm.pop()

	switch operand {
	case True:
		return vm.push(False)
	case False:
		return vm.push(True)
	case Null:
		return vm.push(True)
	default:
		if i, ok := operand.(*object.Integer); ok && i.Value == 0 {
			return vm.push(True)
		}
		return vm.push(False)
	}
}

func (vm *VM) executeMinusOperator() error {
	right := vm.pop()

	if right.Type() != object.INTEGER_OBJ {
		return vm.push(&object.Error{Message: "unsupported type for negation: " + string(right.Type())})
	}

	value := right.(*object.Integer).Value
	return vm.push(&object.Integer{Value: -value})
}

func (vm *VM) buildArray(startIndex, endIndex int) object.Object {
	elements := make([]object.Object, endIndex-startIndex)
	for i := startIndex; i < endIndex; i++ {
		elements[i-startIndex] = vm.stack[i]
	}
	return &object.Array{Elements: elements}
}

func (vm *VM) buildHash(startIndex, endIndex int) (object.Object, error) {
	hash := object.NewHash((endIndex - startIndex) / 2)

	for i := startIndex; i < endIndex; i += 2 {
		key := vm.stack[i]
		value := vm.stack[i+1]

		hashKey, ok := key.(object.Hashable)
		if !ok {
			return &object.Error{Message: "unusable as hash key: " + string(key.Type())}, nil
		}

		hash.Pairs.Put(hashKey.HashKey(), object.HashPair{Key: key, Value: value})
	}

	return hash, nil
}

func (vm *VM) executeIndexExpression(left, index object.Object) error {
	switch {
	case left.Type() == object.ARRAY_OBJ && index.Type() == object.INTEGER_OBJ:
		return vm.executeArrayIndex(left, index)
	case left.Type() == object.HASH_OBJ:
		return vm.executeHashIndex(left, index)
	default:
		return vm.push(&object.Error{Message: "index operator not supported: " + string(left.Type())})
	}
}

func (vm *VM) executeArrayIndex(left, index object.Object) error {
	arrayObject := left.(*object.Array)
	i := index.(*object.Integer).Value
	max := int64(len(arrayObject.Elements) - 1)

	if i < 0 || i > max {
		return vm.push(Null)
	}

	return vm.push(arrayObject.Elements[i])
}

func (vm *VM) executeHashIndex(hash, index object.Object) error {
	hashObject := hash.(*object.Hash)

	key, ok := index.(object.Hashable)
	if !ok {
		return vm.push(&object.Error{Message: "unusable as hash key: " + string(index.Type())})
	}

	pair, ok := hashObject.Pairs.Get(key.HashKey())
	if !ok {
		return vm.push(Null)
	}

	return vm.push(pair.Value)
}

func (vm *VM) executeCall(numArgs int) error {
	callee := vm.stack[vm.sp-1-numArgs]

	switch callee := callee.(type) {
	case *object.Closure:
		return vm.callClosure(callee, numArgs)
	case *object.Builtin:
		return vm.callBuiltin(callee, numArgs)
	default:
		return errors.New("calling non-closure and non-built-in")
	}
}

func (vm *VM) callClosure(cl *object.Closure, numArgs int) error {
	if numArgs != cl.Fn.NumParameters {
		return errors.Errorf("wrong number of arguments: want=%d, got=%d", cl.Fn.NumParameters, numArgs)
	}

	if vm.framesIndex >= MaxFrames {
		return errors.New("frame overflow")
	}

	basePointer := vm.sp - numArgs
	frame := NewFrame(cl, basePointer)
	vm.pushFrame(frame)
	vm.sp = frame.basePointer + cl.Fn.NumLocals

	return nil
}

func (vm *VM) callBuiltin(builtin *object.Builtin, numArgs int) error {
	args := vm.stack[vm.sp-numArgs : vm.sp]

	result := builtin.Fn(args...)
	vm.sp = vm.sp - numArgs - 1

	if result != nil {
		return vm.push(result)
	}
	return vm.push(Null)
}

func (vm *VM) pushClosure(constIndex, numFree int) error {
	constant := vm.constants[constIndex]
	function, ok := constant.(*object.CompiledFunction)
	if !ok {
		return errors.Errorf("not a function: %+v", constant)
	}

	free := make([]object.Object, numFree)
	for i := 0; i < numFree; i++ {
		free[i] = vm.stack[vm.sp-numFree+i]
	}
	vm.sp = vm.sp - numFree

	closure := &object.Closure{Fn: function, Free: free}
	return vm.push(closure)
}

func opSymbol(op code.Opcode) string {
	switch op {
	case code.OpAdd:
		return "+"
	case code.OpSub:
		return "-"
	case code.OpMul:
		return "*"
	case code.OpDiv:
		return "/"
	case code.OpGreaterThan:
		return ">"
	case code.OpEqual:
		return "=="
	case code.OpNotEqual:
		return "!="
	default:
		return "?"
	}
}

// wrapOpErr annotates a fatal VM error with the opcode and instruction
// offset that produced it. In-band type errors never reach here: they are
// pushed onto the stack as *object.Error and returned as a nil Go error.
func wrapOpErr(err error, ip int, opName string) error {
	return errors.Wrapf(err, "executing %s at offset %d", opName, ip)
}
