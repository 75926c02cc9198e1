package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefineGlobalAndLocal(t *testing.T) {
	global := NewSymbolTable()

	a := global.Define("a")
	assert.Equal(t, Symbol{Name: "a", Scope: GlobalScope, Index: 0}, a)

	b := global.Define("b")
	assert.Equal(t, Symbol{Name: "b", Scope: GlobalScope, Index: 1}, b)

	local := NewEnclosedSymbolTable(global)
	c := local.Define("c")
	assert.Equal(t, Symbol{Name: "c", Scope: LocalScope, Index: 0}, c)

	d := local.Define("d")
	assert.Equal(t, Symbol{Name: "d", Scope: LocalScope, Index: 1}, d)
}

func TestResolveGlobal(t *testing.T) {
	global := NewSymbolTable()
	global.Define("a")
	global.Define("b")

	a, ok := global.Resolve("a")
	require.True(t, ok)
	assert.Equal(t, Symbol{Name: "a", Scope: GlobalScope, Index: 0}, a)

	b, ok := global.Resolve("b")
	require.True(t, ok)
	assert.Equal(t, Symbol{Name: "b", Scope: GlobalScope, Index: 1}, b)
}

func TestResolveLocalFallsThroughToGlobal(t *testing.T) {
	global := NewSymbolTable()
	global.Define("a")

	local := NewEnclosedSymbolTable(global)
	local.Define("b")

	a, ok := local.Resolve("a")
	require.True(t, ok)
	assert.Equal(t, GlobalScope, a.Scope)

	b, ok := local.Resolve("b")
	require.True(t, ok)
	assert.Equal(t, LocalScope, b.Scope)
}

func TestResolveNestedLocalScopes(t *testing.T) {
	global := NewSymbolTable()
	global.Define("a")

	firstLocal := NewEnclosedSymbolTable(global)
	firstLocal.Define("b")

	secondLocal := NewEnclosedSymbolTable(firstLocal)
	secondLocal.Define("c")

	tests := []struct {
		table    *SymbolTable
		expected []Symbol
	}{
		{
			firstLocal,
			[]Symbol{
				{Name: "a", Scope: GlobalScope, Index: 0},
				{Name: "b", Scope: LocalScope, Index: 0},
			},
		},
		{
			secondLocal,
			[]Symbol{
				{Name: "a", Scope: GlobalScope, Index: 0},
				{Name: "c", Scope: LocalScope, Index: 0},
			},
		},
	}

	for _, tt := range tests {
		for _, want := range tt.expected {
			got, ok := tt.table.Resolve(want.Name)
			require.True(t, ok, "expected to resolve %q", want.Name)
			assert.Equal(t, want, got)
		}
	}
}

func TestDefineResolveBuiltins(t *testing.T) {
	global := NewSymbolTable()
	firstLocal := NewEnclosedSymbolTable(global)
	secondLocal := NewEnclosedSymbolTable(firstLocal)

	expected := []Symbol{
		{Name: "len", Scope: BuiltinScope, Index: 0},
		{Name: "puts", Scope: BuiltinScope, Index: 1},
	}

	for i, sym := range expected {
		global.DefineBuiltin(i, sym.Name)
	}

	for _, table := range []*SymbolTable{global, firstLocal, secondLocal} {
		for _, want := range expected {
			got, ok := table.Resolve(want.Name)
			require.True(t, ok, "expected to resolve %q", want.Name)
			assert.Equal(t, want, got)
		}
	}
}

func TestResolveFreeVariables(t *testing.T) {
	global := NewSymbolTable()
	global.Define("a")

	firstLocal := NewEnclosedSymbolTable(global)
	firstLocal.Define("b")

	secondLocal := NewEnclosedSymbolTable(firstLocal)
	secondLocal.Define("c")
	secondLocal.Define("d")

	// Resolving "b" from secondLocal must cross firstLocal's boundary and
	// come back as a FreeScope symbol local to secondLocal.
	b, ok := secondLocal.Resolve("b")
	require.True(t, ok)
	assert.Equal(t, FreeScope, b.Scope)
	assert.Equal(t, 0, b.Index)

	require.Len(t, secondLocal.FreeSymbols, 1)
	assert.Equal(t, Symbol{Name: "b", Scope: LocalScope, Index: 0}, secondLocal.FreeSymbols[0])

	a, ok := secondLocal.Resolve("a")
	require.True(t, ok)
	assert.Equal(t, GlobalScope, a.Scope, "globals are never captured as free variables")
}

func TestDefineFunctionName(t *testing.T) {
	global := NewSymbolTable()
	global.DefineFunctionName("fibonacci")

	sym, ok := global.Resolve("fibonacci")
	require.True(t, ok)
	assert.Equal(t, Symbol{Name: "fibonacci", Scope: FunctionScope, Index: 0}, sym)
}

func TestShadowingDefinitionGetsFreshIndex(t *testing.T) {
	global := NewSymbolTable()
	first := global.Define("x")
	second := global.Define("x")

	assert.NotEqual(t, first.Index, second.Index, "Define must never reuse an earlier index when shadowing")

	resolved, ok := global.Resolve("x")
	require.True(t, ok)
	assert.Equal(t, second, resolved, "Resolve must see the most recent definition")
}
