package vm

import (
	"fmt"
	"testing"

	"github.com/kongscript/kong/ast"
	"github.com/kongscript/kong/compiler"
	"github.com/kongscript/kong/lexer"
	"github.com/kongscript/kong/object"
	"github.com/kongscript/kong/parser"
)

type vmTestCase struct {
	input    string
	expected interface{}
}

func parse(input string) *ast.Program {
	l := lexer.New(input)
	p := parser.New(l)
	return p.ParseProgram()
}

func runVMTests(t *testing.T, tests []vmTestCase) {
	t.Helper()

	for _, tt := range tests {
		program := parse(tt.input)

		comp := compiler.New()
		if err := comp.Compile(program); err != nil {
			t.Fatalf("compiler error for %q: %s", tt.input, err)
		}

		machine := New(comp.Bytecode())
		if err := machine.Run(); err != nil {
			t.Fatalf("vm error for %q: %s", tt.input, err)
		}

		actual := machine.LastPoppedStackElem()
		testExpectedObject(t, tt.input, tt.expected, actual)
	}
}

func testExpectedObject(t *testing.T, input string, expected interface{}, actual object.Object) {
	t.Helper()

	switch expected := expected.(type) {
	case int:
		if err := testIntegerObject(int64(expected), actual); err != nil {
			t.Errorf("%q: testIntegerObject failed: %s", input, err)
		}
	case bool:
		if err := testBooleanObject(expected, actual); err != nil {
			t.Errorf("%q: testBooleanObject failed: %s", input, err)
		}
	case string:
		if err := testStringObject(expected, actual); err != nil {
			t.Errorf("%q: testStringObject failed: %s", input, err)
		}
	case []int:
		array, ok := actual.(*object.Array)
		if !ok {
			t.Errorf("%q: object is not Array. got=%T (%+v)", input, actual, actual)
			return
		}
		if len(array.Elements) != len(expected) {
			t.Errorf("%q: wrong number of elements. want=%d, got=%d", input, len(expected), len(array.Elements))
			return
		}
		for i, el := range expected {
			if err := testIntegerObject(int64(el), array.Elements[i]); err != nil {
				t.Errorf("%q: testIntegerObject failed at %d: %s", input, i, err)
			}
		}
	case *object.Null:
		if actual != Null {
			t.Errorf("%q: object is not Null. got=%T (%+v)", input, actual, actual)
		}
	}
}

func testIntegerObject(expected int64, actual object.Object) error {
	result, ok := actual.(*object.Integer)
	if !ok {
		return fmt.Errorf("object is not Integer. got=%T (%+v)", actual, actual)
	}
	if result.Value != expected {
		return fmt.Errorf("object has wrong value. got=%d, want=%d", result.Value, expected)
	}
	return nil
}

func testBooleanObject(expected bool, actual object.Object) error {
	result, ok := actual.(*object.Boolean)
	if !ok {
		return fmt.Errorf("object is not Boolean. got=%T (%+v)", actual, actual)
	}
	if result.Value != expected {
		return fmt.Errorf("object has wrong value. got=%t, want=%t", result.Value, expected)
	}
	return nil
}

func testStringObject(expected string, actual object.Object) error {
	result, ok := actual.(*object.String)
	if !ok {
		return fmt.Errorf("object is not String. got=%T (%+v)", actual, actual)
	}
	if result.Value != expected {
		return fmt.Errorf("object has wrong value. got=%q, want=%q", result.Value, expected)
	}
	return nil
}

func TestIntegerArithmetic(t *testing.T) {
	tests := []vmTestCase{
		{"1", 1},
		{"2", 2},
		{"1 + 2", 3},
		{"1 - 2", -1},
		{"1 * 2", 2},
		{"4 / 2", 2},
		{"50 / 2 * 2 + 10 - 5", 55},
		{"5 + 5 + 5 + 5 - 10", 10},
		{"2 * 2 * 2 * 2 * 2", 32},
		{"5 * 2 + 10", 20},
		{"5 + 2 * 10", 25},
		{"-5", -5},
		{"-10", -10},
		{"-50 + 100 + -50", 0},
		{"(5 + 10 * 2 + 15 / 3) * 2 + -10", 50},
	}

	runVMTests(t, tests)
}

func TestBooleanExpressions(t *testing.T) {
	tests := []vmTestCase{
		{"true", true},
		{"false", false},
		{"1 < 2", true},
		{"1 > 2", false},
		{"1 < 1", false},
		{"1 > 1", false},
		{"1 <= 1", true},
		{"1 >= 1", true},
		{"2 <= 1", false},
		{"1 >= 2", false},
		{"1 == 1", true},
		{"1 != 1", false},
		{"1 == 2", false},
		{"1 != 2", true},
		{"true == true", true},
		{"false == false", true},
		{"true == false", false},
		{"(1 < 2) == true", true},
		{"(1 < 2) == false", false},
		{"!true", false},
		{"!false", true},
		{"!5", false},
		{"!!true", true},
		{"!(if (false) { 5; })", true},
	}

	runVMTests(t, tests)
}

func TestConditionals(t *testing.T) {
	tests := []vmTestCase{
		{"if (true) { 10 }", 10},
		{"if (true) { 10 } else { 20 }", 10},
		{"if (false) { 10 } else { 20 }", 20},
		{"if (1) { 10 }", 10},
		{"if (1 < 2) { 10 }", 10},
		{"if (1 < 2) { 10 } else { 20 }", 10},
		{"if (1 > 2) { 10 } else { 20 }", 20},
		{"if (1 > 2) { 10 }", Null},
		{"if (false) { 10 }", Null},
		{"if ((if (false) { 10 })) { 10 } else { 20 }", 20},
	}

	runVMTests(t, tests)
}

func TestGlobalLetStatements(t *testing.T) {
	tests := []vmTestCase{
		{"let one = 1; one", 1},
		{"let one = 1; let two = 2; one + two", 3},
		{"let one = 1; let two = one + one; one + two", 3},
	}

	runVMTests(t, tests)
}

func TestStringExpressions(t *testing.T) {
	tests := []vmTestCase{
		{`"kong"`, "kong"},
		{`"kon" + "g"`, "kong"},
		{`"kon" + "g" + "script"`, "kongscript"},
	}

	runVMTests(t, tests)
}

func TestArrayLiterals(t *testing.T) {
	tests := []vmTestCase{
		{"[]", []int{}},
		{"[1, 2, 3]", []int{1, 2, 3}},
		{"[1 + 2, 3 * 4, 5 + 6]", []int{3, 12, 11}},
	}

	runVMTests(t, tests)
}

func TestIndexExpressions(t *testing.T) {
	tests := []vmTestCase{
		{"[1, 2, 3][1]", 2},
		{"[1, 2, 3][0 + 2]", 3},
		{"[[1, 1, 1]][0][0]", 1},
		{"[][0]", Null},
		{"[1, 2, 3][99]", Null},
		{"[1][-1]", Null},
		{"{1: 1, 2: 2}[1]", 1},
		{"{1: 1, 2: 2}[2]", 2},
		{"{1: 1}[0]", Null},
		{"{}[0]", Null},
	}

	runVMTests(t, tests)
}

func TestCallingFunctions(t *testing.T) {
	tests := []vmTestCase{
		{
			input: `
			let adder = fn(a, b) { return a + b; };
			adder(5, 7);
			`,
			expected: 12,
		},
		{
			input: `
			let fib = fn(x) {
				if (x == 0) {
					0
				} else {
					if (x == 1) {
						1
					} else {
						fib(x - 1) + fib(x - 2)
					}
				}
			};
			fib(10);
			`,
			expected: 55,
		},
		{
			input: `
			let countDown = fn(x) {
				if (x == 0) {
					return 0;
				} else {
					countDown(x - 1);
				}
			};
			countDown(5);
			`,
			expected: 0,
		},
	}

	runVMTests(t, tests)
}

func TestClosures(t *testing.T) {
	tests := []vmTestCase{
		{
			input: `
			let newAdder = fn(a, b) {
				fn(c) { a + b + c };
			};
			let adder = newAdder(1, 2);
			adder(8);
			`,
			expected: 11,
		},
		{
			input: `
			let newClosure = fn(a) {
				fn() { a; };
			};
			let closure = newClosure(99);
			closure();
			`,
			expected: 99,
		},
	}

	runVMTests(t, tests)
}

func TestBuiltinFunctions(t *testing.T) {
	tests := []vmTestCase{
		{`len("")`, 0},
		{`len("four")`, 4},
		{`len([1, 2, 3])`, 3},
		{`len([])`, 0},
		{`first([1, 2, 3])`, 1},
		{`last([1, 2, 3])`, 3},
		{`rest([1, 2, 3])`, []int{2, 3}},
		{`push([1, 2], 3)`, []int{1, 2, 3}},
	}

	runVMTests(t, tests)
}

// TestCrossTypeComparisonsAreInBandErrors guards against OpEqual/OpNotEqual
// silently falling back to Go's interface equality for mismatched types
// (e.g. comparing an Integer to a Boolean), which must push an object.Error
// rather than a wrong-but-well-typed Boolean.
func TestCrossTypeComparisonsAreInBandErrors(t *testing.T) {
	tests := []string{
		"1 == true",
		"1 != true",
		`"x" == true`,
	}

	for _, input := range tests {
		program := parse(input)

		comp := compiler.New()
		if err := comp.Compile(program); err != nil {
			t.Fatalf("compiler error for %q: %s", input, err)
		}

		machine := New(comp.Bytecode())
		if err := machine.Run(); err != nil {
			t.Fatalf("vm error for %q: %s", input, err)
		}

		result := machine.LastPoppedStackElem()
		errObj, ok := result.(*object.Error)
		if !ok {
			t.Errorf("%q: expected *object.Error for cross-type comparison, got %T (%+v)", input, result, result)
			continue
		}
		if errObj.Message == "" {
			t.Errorf("%q: expected a non-empty error message", input)
		}
	}
}

func TestDivisionByZeroIsInBandError(t *testing.T) {
	program := parse("1 / 0")

	comp := compiler.New()
	if err := comp.Compile(program); err != nil {
		t.Fatalf("compiler error: %s", err)
	}

	machine := New(comp.Bytecode())
	if err := machine.Run(); err != nil {
		t.Fatalf("vm error: %s", err)
	}

	result := machine.LastPoppedStackElem()
	errObj, ok := result.(*object.Error)
	if !ok {
		t.Fatalf("expected *object.Error for division by zero, got %T (%+v)", result, result)
	}
	if errObj.Message != "division by zero" {
		t.Errorf("wrong error message. got=%q", errObj.Message)
	}
}
