package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringHashKey(t *testing.T) {
	hello1 := &String{Value: "Hello World"}
	hello2 := &String{Value: "Hello World"}
	diff1 := &String{Value: "My name is johnny"}
	diff2 := &String{Value: "My name is johnny"}

	assert.Equal(t, hello1.HashKey(), hello2.HashKey(), "equal strings must hash equal")
	assert.Equal(t, diff1.HashKey(), diff2.HashKey(), "equal strings must hash equal")
	assert.NotEqual(t, hello1.HashKey(), diff1.HashKey(), "distinct strings must hash distinct")
}

func TestStringHashKeyIsCached(t *testing.T) {
	s := &String{Value: "cache me"}
	first := s.HashKey()
	require.NotNil(t, s.hashKey, "HashKey must populate the cache")
	second := s.HashKey()
	assert.Equal(t, first, second)
}

func TestIntegerHashKey(t *testing.T) {
	one1 := &Integer{Value: 1}
	one2 := &Integer{Value: 1}
	two := &Integer{Value: 2}

	assert.Equal(t, one1.HashKey(), one2.HashKey())
	assert.NotEqual(t, one1.HashKey(), two.HashKey())
}

func TestBooleanHashKey(t *testing.T) {
	true1 := &Boolean{Value: true}
	true2 := &Boolean{Value: true}
	false1 := &Boolean{Value: false}

	assert.Equal(t, true1.HashKey(), true2.HashKey())
	assert.NotEqual(t, true1.HashKey(), false1.HashKey())
}

func TestHashKeysDistinguishTypes(t *testing.T) {
	// An Integer(1) and a Boolean(true) both reduce to numeric value 1;
	// Type must keep them from colliding as hash keys.
	assert.NotEqual(t, (&Integer{Value: 1}).HashKey(), (&Boolean{Value: true}).HashKey())
}

func TestHashPutAndGet(t *testing.T) {
	h := NewHash(2)

	key := (&String{Value: "name"}).HashKey()
	h.Pairs.Put(key, HashPair{Key: &String{Value: "name"}, Value: &String{Value: "kong"}})

	pair, ok := h.Pairs.Get(key)
	require.True(t, ok)
	assert.Equal(t, "kong", pair.Value.(*String).Value)
}

func TestObjectInspect(t *testing.T) {
	tests := []struct {
		obj      Object
		expected string
	}{
		{&Integer{Value: 5}, "5"},
		{&Boolean{Value: true}, "true"},
		{&String{Value: "hi"}, "hi"},
		{&Null{}, "null"},
		{&ReturnValue{Value: &Integer{Value: 10}}, "10"},
		{&Error{Message: "boom"}, "ERROR: boom"},
		{&Array{Elements: []Object{&Integer{Value: 1}, &Integer{Value: 2}}}, "[1, 2]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.obj.Inspect())
	}
}

func TestObjectType(t *testing.T) {
	assert.Equal(t, Type(INTEGER_OBJ), (&Integer{}).Type())
	assert.Equal(t, Type(BOOLEAN_OBJ), (&Boolean{}).Type())
	assert.Equal(t, Type(STRING_OBJ), (&String{}).Type())
	assert.Equal(t, Type(NULL_OBJ), (&Null{}).Type())
	assert.Equal(t, Type(ARRAY_OBJ), (&Array{}).Type())
	assert.Equal(t, Type(HASH_OBJ), NewHash(0).Type())
	assert.Equal(t, Type(CLOSURE_OBJ), (&Closure{}).Type())
	assert.Equal(t, Type(COMPILED_FUNCTION_OBJ), (&CompiledFunction{}).Type())
}

func TestGetBuiltinByName(t *testing.T) {
	for _, name := range []string{"len", "first", "rest", "last", "push", "puts"} {
		assert.NotNil(t, GetBuiltinByName(name), "expected a builtin named %q", name)
	}
	assert.Nil(t, GetBuiltinByName("does-not-exist"))
}

func TestBuiltinLen(t *testing.T) {
	tests := []struct {
		args     []Object
		expected Object
	}{
		{[]Object{&String{Value: "four"}}, &Integer{Value: 4}},
		{[]Object{&Array{Elements: []Object{&Integer{Value: 1}, &Integer{Value: 2}}}}, &Integer{Value: 2}},
	}

	lenFn := GetBuiltinByName("len")
	require.NotNil(t, lenFn)

	for _, tt := range tests {
		assert.Equal(t, tt.expected, lenFn.Fn(tt.args...))
	}
}

func TestBuiltinLenWrongArgCountIsError(t *testing.T) {
	lenFn := GetBuiltinByName("len")
	require.NotNil(t, lenFn)

	result := lenFn.Fn(&String{Value: "a"}, &String{Value: "b"})
	errObj, ok := result.(*Error)
	require.True(t, ok, "expected an *Error for wrong argument count")
	assert.Contains(t, errObj.Message, "wrong number of arguments")
}

func TestBuiltinPushLeavesOriginalArrayUntouched(t *testing.T) {
	pushFn := GetBuiltinByName("push")
	require.NotNil(t, pushFn)

	original := &Array{Elements: []Object{&Integer{Value: 1}}}
	result := pushFn.Fn(original, &Integer{Value: 2})

	pushed, ok := result.(*Array)
	require.True(t, ok)
	assert.Len(t, pushed.Elements, 2)
	assert.Len(t, original.Elements, 1, "push must not mutate its argument")
}
