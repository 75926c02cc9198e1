package object

import "fmt"

// Builtins is the fixed table of builtin functions available to every
// program, in the order their BuiltinScope symbol-table index refers to.
var Builtins = []struct {
	Name    string
	Builtin *Builtin
}{
	{"len", &Builtin{Fn: builtinLen}},
	{"first", &Builtin{Fn: builtinFirst}},
	{"rest", &Builtin{Fn: builtinRest}},
	{"last", &Builtin{Fn: builtinLast}},
	{"push", &Builtin{Fn: builtinPush}},
	{"puts", &Builtin{Fn: builtinPuts}},
}

func builtinLen(args ...Object) Object {
	if len(args) != 1 {
		return newError("wrong number of arguments. got=%d, want=1", len(args))
	}
	switch arg := args[0].(type) {
	case *String:
		return &Integer{Value: int64(len(arg.Value))}
	case *Array:
		return &Integer{Value: int64(len(arg.Elements))}
	default:
		return newError("argument to `len` not supported, got %s", args[0].Type())
	}
}

func builtinFirst(args ...Object) Object {
	if len(args) != 1 {
		return newError("wrong number of arguments. got=%d, want=1", len(args))
	}
	arr, ok := args[0].(*Array)
	if !ok {
		return newError("argument to `first` not supported, got %s", args[0].Type())
	}
	if len(arr.Elements) == 0 {
		return nil
	}
	return arr.Elements[0]
}

func builtinLast(args ...Object) Object {
	if len(args) != 1 {
		return newError("wrong number of arguments. got=%d, want=1", len(args))
	}
	arr, ok := args[0].(*Array)
	if !ok {
		return newError("argument to `last` not supported, got %s", args[0].Type())
	}
	if len(arr.Elements) == 0 {
		return nil
	}
	return arr.Elements[len(arr.Elements)-1]
}

// builtinRest returns a new array holding every element of its argument
// after the first, leaving the argument untouched.
func builtinRest(args ...Object) Object {
	if len(args) != 1 {
		return newError("wrong number of arguments. got=%d, want=1", len(args))
	}
	arr, ok := args[0].(*Array)
	if !ok {
		return newError("argument to `rest` not supported, got %s", args[0].Type())
	}
	length := len(arr.Elements)
	if length == 0 {
		return nil
	}

	rest := make([]Object, length-1)
	copy(rest, arr.Elements[1:])
	return &Array{Elements: rest}
}

// builtinPush returns a new array with its second argument appended,
// leaving the first argument untouched.
func builtinPush(args ...Object) Object {
	if len(args) != 2 {
		return newError("wrong number of arguments. got=%d, want=2", len(args))
	}
	arr, ok := args[0].(*Array)
	if !ok {
		return newError("argument to `push` not supported, got %s", args[0].Type())
	}

	length := len(arr.Elements)
	pushed := make([]Object, length+1)
	copy(pushed, arr.Elements)
	pushed[length] = args[1]
	return &Array{Elements: pushed}
}

func builtinPuts(args ...Object) Object {
	for _, arg := range args {
		fmt.Println(arg.Inspect())
	}
	return nil
}

func newError(format string, a ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, a...)}
}

// GetBuiltinByName returns the [Builtin] registered under name in
// [Builtins], or nil if no builtin has that name.
func GetBuiltinByName(name string) *Builtin {
	for _, def := range Builtins {
		if def.Name == name {
			return def.Builtin
		}
	}
	return nil
}
