// Package object defines Kong's runtime value types: what the compiler
// puts in a constant pool and what the VM pushes and pops off its stack.
// There is no evaluator here — these values only exist because bytecode
// produced by the compiler pushes, reads, and combines them.
package object

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/dolthub/swiss"

	"github.com/kongscript/kong/code"
)

//nolint:revive
const (
	INTEGER_OBJ           = "INTEGER"
	BOOLEAN_OBJ           = "BOOLEAN"
	STRING_OBJ            = "STRING"
	NULL_OBJ              = "NULL"
	RETURN_VALUE_OBJ      = "RETURN_VALUE"
	ERROR_OBJ             = "ERROR"
	FUNCTION_OBJ          = "FUNCTION"
	BUILTIN_OBJ           = "BUILTIN"
	ARRAY_OBJ             = "ARRAY"
	HASH_OBJ              = "HASH"
	COMPILED_FUNCTION_OBJ = "COMPILED_FUNCTION_OBJ"
	CLOSURE_OBJ           = "CLOSURE"
)

// Type tags an [Object]'s runtime type, e.g. for matching against the
// *_OBJ constants above.
type Type string

// Object is implemented by every Kong runtime value.
type Object interface {
	Type() Type
	// Inspect renders the value for REPL output and error messages.
	Inspect() string
}

// --- scalars ---

// Integer is a signed 64-bit integer value.
type Integer struct {
	Value int64
}

func (i *Integer) Type() Type      { return INTEGER_OBJ }
func (i *Integer) Inspect() string { return strconv.FormatInt(i.Value, 10) }

// Boolean is true or false. The VM keeps one canonical instance of each
// (see vm.True/vm.False) rather than allocating per comparison.
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() Type      { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string { return strconv.FormatBool(b.Value) }

// String is an immutable text value; its hash is computed lazily and
// cached on first use as a Hashable key.
type String struct {
	Value   string
	hashKey *HashKey
}

func (s *String) Type() Type      { return STRING_OBJ }
func (s *String) Inspect() string { return s.Value }

// Null is the sole "no value" result: unset globals, a function falling
// off the end of its body, missing array/hash entries.
type Null struct{}

func (n *Null) Type() Type      { return NULL_OBJ }
func (n *Null) Inspect() string { return "null" }

// --- control values ---

// ReturnValue wraps the result of a return statement. Neither the compiler
// nor the VM creates one: OpReturnValue moves the returned value straight
// onto the caller's stack without wrapping it.
type ReturnValue struct {
	Value Object
}

func (rv *ReturnValue) Type() Type      { return RETURN_VALUE_OBJ }
func (rv *ReturnValue) Inspect() string { return rv.Value.Inspect() }

// Error is an in-band runtime failure (type mismatch, unknown operator,
// bad argument count) pushed onto the stack like any other value rather
// than raised as a Go error.
type Error struct {
	Message string
}

func (e *Error) Type() Type      { return ERROR_OBJ }
func (e *Error) Inspect() string { return "ERROR: " + e.Message }

// --- callables ---

// BuiltinFunction is the Go function backing a [Builtin] value.
type BuiltinFunction func(args ...Object) Object

// Builtin wraps a BuiltinFunction so it can travel through the constant
// pool and the stack as an ordinary Object.
type Builtin struct {
	Fn BuiltinFunction
}

func (b *Builtin) Type() Type      { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string { return "builtin function" }

// CompiledFunction is a function body as bytecode plus the frame shape
// the VM needs to run it: how many local slots to reserve and how many
// of those are parameters.
type CompiledFunction struct {
	Instructions  code.Instructions
	NumLocals     int
	NumParameters int
}

func (c *CompiledFunction) Type() Type      { return COMPILED_FUNCTION_OBJ }
func (c *CompiledFunction) Inspect() string { return fmt.Sprintf("CompiledFunction[%p]", c) }

// Closure pairs a CompiledFunction with the free variables captured from
// its defining scope. A function with no free variables still becomes a
// Closure with an empty Free slice — there's no separate bare-function
// call path in the VM.
type Closure struct {
	Fn   *CompiledFunction
	Free []Object
}

func (c *Closure) Type() Type      { return CLOSURE_OBJ }
func (c *Closure) Inspect() string { return fmt.Sprintf("Closure[%p]", c) }

// --- collections ---

// Array is an ordered, heterogeneous list of values.
type Array struct {
	Elements []Object
}

func (a *Array) Type() Type { return ARRAY_OBJ }

func (a *Array) Inspect() string {
	elements := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		elements[i] = e.Inspect()
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

// HashKey is the comparable key a [Hashable] value reduces to for storage
// in a Hash: its Type keeps Integer(1), Boolean(true), and any string
// that happens to hash to 1 from colliding.
type HashKey struct {
	Type  Type
	Value uint64
}

// Hashable is implemented by every Object type that may appear as a hash
// literal key: Integer, Boolean, String.
type Hashable interface {
	HashKey() HashKey
}

func (b *Boolean) HashKey() HashKey {
	var v uint64
	if b.Value {
		v = 1
	}
	return HashKey{Type: b.Type(), Value: v}
}

func (i *Integer) HashKey() HashKey {
	//nolint:gosec
	return HashKey{Type: i.Type(), Value: uint64(i.Value)}
}

func (s *String) HashKey() HashKey {
	if s.hashKey != nil {
		return *s.hashKey
	}

	h := fnv.New64a()
	if _, err := h.Write([]byte(s.Value)); err != nil {
		return HashKey{Type: ERROR_OBJ, Value: 0}
	}

	key := HashKey{Type: s.Type(), Value: h.Sum64()}
	s.hashKey = &key
	return key
}

// HashPair keeps both the original key object and its value, since the
// key's own Inspect output is needed for Hash.Inspect and HashKey alone
// can't reconstruct it.
type HashPair struct {
	Key   Object
	Value Object
}

// Hash is a Kong hash literal's runtime value: a HashKey-keyed map of
// HashPairs, backed by a Swiss table for the same reason the compiler's
// symbol table is.
type Hash struct {
	Pairs *swiss.Map[HashKey, HashPair]
}

// NewHash returns an empty Hash sized for size pairs.
func NewHash(size int) *Hash {
	return &Hash{Pairs: swiss.NewMap[HashKey, HashPair](uint32(size))}
}

func (h *Hash) Type() Type { return HASH_OBJ }

func (h *Hash) Inspect() string {
	pairs := make([]string, 0, h.Pairs.Count())
	h.Pairs.Iter(func(_ HashKey, pair HashPair) bool {
		pairs = append(pairs, fmt.Sprintf("%s: %s", pair.Key.Inspect(), pair.Value.Inspect()))
		return false
	})
	return "{" + strings.Join(pairs, ", ") + "}"
}
