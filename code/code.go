// Package code defines Kong's bytecode: the opcode set the compiler emits
// and the virtual machine dispatches on, plus the encode/decode helpers
// both sides share.
//
// An instruction is one opcode byte followed by zero or more big-endian
// operands, each of a fixed width declared in that opcode's [Definition].
// Nothing here executes anything — this package only knows how to turn
// opcodes and operands into bytes and back.
package code

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Instructions is a flat byte stream holding one or more encoded instructions back to back.
type Instructions []byte

// Opcode identifies a single bytecode operation.
type Opcode byte

const (
	// OpConstant pushes constants[operand] onto the stack. Operand: 2-byte pool index.
	OpConstant Opcode = iota

	// OpAdd, OpSub, OpMul, OpDiv pop two numbers and push the result of the named operation.
	OpAdd
	// OpPop discards the value on top of the stack.
	OpPop
	OpSub
	OpMul
	OpDiv

	// OpTrue and OpFalse push the corresponding boolean singleton.
	OpTrue
	OpFalse

	// OpEqual, OpNotEqual, OpGreaterThan pop two values and push a boolean.
	OpEqual
	OpNotEqual
	OpGreaterThan

	// OpMinus negates the integer on top of the stack.
	OpMinus
	// OpBang pops a value and pushes its logical negation.
	OpBang

	// OpJumpNotTruthy pops the condition and jumps to its 2-byte operand position if it is not truthy.
	OpJumpNotTruthy
	// OpJump jumps unconditionally to its 2-byte operand position.
	OpJump

	// OpNull pushes the null singleton.
	OpNull

	// OpGetGlobal and OpSetGlobal read/write globals[operand]. Operand: 2-byte global index.
	OpGetGlobal
	OpSetGlobal

	// OpArray pops its 2-byte operand count of elements and pushes an array built from them.
	OpArray

	// OpHash pops operand values (key, value, key, value, ...) and pushes a hash built from them.
	// Operand: 2-byte count of stack values, i.e. twice the number of pairs.
	OpHash

	// OpIndex pops a collection and an index and pushes the element at that index.
	OpIndex

	// OpCall invokes the callable that sits operand slots below the top of the stack.
	// Operand: 1-byte argument count.
	OpCall

	// OpReturnValue pops the return value, tears down the current frame, and pushes it into the caller.
	OpReturnValue
	// OpReturn tears down the current frame and pushes null into the caller.
	OpReturn

	// OpSetLocal and OpGetLocal read/write the current frame's locals. Operand: 1-byte local index.
	OpSetLocal
	OpGetLocal

	// OpGetBuiltin pushes builtin[operand]. Operand: 1-byte builtin table index.
	OpGetBuiltin

	// OpClosure builds a closure from the compiled function at its 2-byte constant
	// index, capturing its 1-byte count of free variables off the stack.
	OpClosure

	// OpGetFree pushes the current closure's free variable at its 1-byte index.
	OpGetFree

	// OpCurrentClosure pushes the closure currently executing, for direct recursion.
	OpCurrentClosure
)

// Definition names an [Opcode] and records the byte width of each of its operands, in order.
type Definition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*Definition{
	OpConstant:       {"OpConstant", []int{2}},
	OpAdd:            {"OpAdd", []int{}},
	OpPop:            {"OpPop", []int{}},
	OpSub:            {"OpSub", []int{}},
	OpMul:            {"OpMul", []int{}},
	OpDiv:            {"OpDiv", []int{}},
	OpTrue:           {"OpTrue", []int{}},
	OpFalse:          {"OpFalse", []int{}},
	OpEqual:          {"OpEqual", []int{}},
	OpNotEqual:       {"OpNotEqual", []int{}},
	OpGreaterThan:    {"OpGreaterThan", []int{}},
	OpMinus:          {"OpMinus", []int{}},
	OpBang:           {"OpBang", []int{}},
	OpJumpNotTruthy:  {"OpJumpNotTruthy", []int{2}},
	OpJump:           {"OpJump", []int{2}},
	OpNull:           {"OpNull", []int{}},
	OpGetGlobal:      {"OpGetGlobal", []int{2}},
	OpSetGlobal:      {"OpSetGlobal", []int{2}},
	OpArray:          {"OpArray", []int{2}},
	OpHash:           {"OpHash", []int{2}},
	OpIndex:          {"OpIndex", []int{}},
	OpCall:           {"OpCall", []int{1}},
	OpReturnValue:    {"OpReturnValue", []int{}},
	OpReturn:         {"OpReturn", []int{}},
	OpGetLocal:       {"OpGetLocal", []int{1}},
	OpSetLocal:       {"OpSetLocal", []int{1}},
	OpGetBuiltin:     {"OpGetBuiltin", []int{1}},
	OpClosure:        {"OpClosure", []int{2, 1}},
	OpGetFree:        {"OpGetFree", []int{1}},
	OpCurrentClosure: {"OpCurrentClosure", []int{}},
}

// Lookup returns the [Definition] registered for op, or an error if op is not a known opcode.
func Lookup(op byte) (*Definition, error) {
	def, ok := definitions[Opcode(op)]
	if !ok {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}
	return def, nil
}

// Make encodes op and its operands into a single instruction. Operands beyond
// what op's Definition declares are ignored; an unknown op yields an empty slice.
func Make(op Opcode, operands ...int) []byte {
	def, ok := definitions[op]
	if !ok {
		return []byte{}
	}

	length := 1
	for _, w := range def.OperandWidths {
		length += w
	}

	instruction := make([]byte, length)
	instruction[0] = byte(op)

	offset := 1
	for i, operand := range operands {
		if i >= len(def.OperandWidths) {
			break
		}
		width := def.OperandWidths[i]
		switch width {
		case 1:
			instruction[offset] = byte(operand)
		case 2:
			binary.BigEndian.PutUint16(instruction[offset:], uint16(operand))
		}
		offset += width
	}
	return instruction
}

// String renders ins as one disassembled line per instruction, prefixed with its byte offset.
func (ins Instructions) String() string {
	var out strings.Builder

	for i := 0; i < len(ins); {
		def, err := Lookup(ins[i])
		if err != nil {
			_, _ = fmt.Fprintf(&out, "ERROR: %s\n", err)
			i++
			continue
		}

		operands, read := ReadOperands(def, ins[i+1:])
		_, _ = fmt.Fprintf(&out, "%04d %s\n", i, ins.fmtInstruction(def, operands))
		i += 1 + read
	}

	return out.String()
}

// fmtInstruction renders a single decoded instruction as "<name> <operands...>".
func (ins Instructions) fmtInstruction(def *Definition, operands []int) string {
	if len(operands) != len(def.OperandWidths) {
		return fmt.Sprintf("ERROR: operand len %d does not match defined %d\n", len(operands), len(def.OperandWidths))
	}

	switch len(operands) {
	case 0:
		return def.Name
	case 1:
		return fmt.Sprintf("%s %d", def.Name, operands[0])
	case 2:
		return fmt.Sprintf("%s %d %d", def.Name, operands[0], operands[1])
	default:
		return fmt.Sprintf("ERROR: unhandled operandCount for %s\n", def.Name)
	}
}

// ReadOperands decodes ins according to def's operand widths, returning the
// decoded operands and the number of bytes consumed.
func ReadOperands(def *Definition, ins Instructions) ([]int, int) {
	operands := make([]int, len(def.OperandWidths))
	offset := 0

	for i, width := range def.OperandWidths {
		switch width {
		case 1:
			operands[i] = int(ReadUint8(ins[offset:]))
		case 2:
			operands[i] = int(ReadUint16(ins[offset:]))
		}
		offset += width
	}
	return operands, offset
}

// ReadUint16 decodes a big-endian 2-byte operand from the start of ins.
func ReadUint16(ins Instructions) uint16 { return binary.BigEndian.Uint16(ins) }

// ReadUint8 reads a 1-byte operand from the start of ins.
func ReadUint8(ins Instructions) uint8 { return ins[0] }
