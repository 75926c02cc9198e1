package compiler

import "github.com/dolthub/swiss"

// SymbolScope tags where a [Symbol] lives at runtime, which in turn
// decides which Op*Global/Op*Local/OpGetBuiltin/OpGetFree/
// OpCurrentClosure instruction the compiler emits to read or write it.
type SymbolScope string

const (
	GlobalScope   SymbolScope = "GLOBAL"
	LocalScope    SymbolScope = "LOCAL"
	BuiltinScope  SymbolScope = "BUILTIN"
	FreeScope     SymbolScope = "FREE"
	FunctionScope SymbolScope = "FUNCTION"
)

// Symbol is one binding: a name, where it lives, and its slot within
// that scope.
type Symbol struct {
	Name  string
	Scope SymbolScope
	Index int
}

// SymbolTable resolves names to [Symbol]s, chaining outward through Outer
// when a name isn't bound locally. A lookup that escapes into an outer,
// non-global scope is recorded as a free variable (see Resolve), which is
// how the compiler discovers a function literal's closure captures.
type SymbolTable struct {
	Outer *SymbolTable

	store          *swiss.Map[string, Symbol]
	numDefinitions int

	// FreeSymbols are names resolved in an enclosing non-global scope,
	// in the order Resolve first encountered them; their index here is
	// the OpGetFree operand the compiler emits for each.
	FreeSymbols []Symbol
}

// NewSymbolTable returns an empty table with no outer scope (global).
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		store:       swiss.NewMap[string, Symbol](32),
		FreeSymbols: []Symbol{},
	}
}

// NewEnclosedSymbolTable returns an empty table nested inside outer, for
// entering a function body.
func NewEnclosedSymbolTable(outer *SymbolTable) *SymbolTable {
	s := NewSymbolTable()
	s.Outer = outer
	return s
}

// Define binds name to a fresh index in this table: GlobalScope at the
// outermost table, LocalScope everywhere else. Each call gets its own
// index, even when name shadows an earlier definition, so resolving an
// identifier always reaches the binding lexically nearest to it.
func (s *SymbolTable) Define(name string) Symbol {
	scope := LocalScope
	if s.Outer == nil {
		scope = GlobalScope
	}
	symbol := Symbol{Name: name, Scope: scope, Index: s.numDefinitions}
	s.store.Put(name, symbol)
	s.numDefinitions++
	return symbol
}

// DefineBuiltin binds name to index under BuiltinScope, used once per
// entry in [object.Builtins] when a fresh global table is set up.
func (s *SymbolTable) DefineBuiltin(index int, name string) Symbol {
	symbol := Symbol{Name: name, Scope: BuiltinScope, Index: index}
	s.store.Put(name, symbol)
	return symbol
}

// DefineFunctionName binds a function literal's own name within its own
// body, at FunctionScope index 0, so OpCurrentClosure can resolve it for
// direct recursion without a Global/Local/Free lookup.
func (s *SymbolTable) DefineFunctionName(name string) Symbol {
	symbol := Symbol{Name: name, Scope: FunctionScope, Index: 0}
	s.store.Put(name, symbol)
	return symbol
}

// Resolve finds name in this table, or failing that, in Outer. A name
// resolved through Outer that isn't Global or Builtin is re-recorded as
// a free variable local to s, since crossing a function boundary is
// exactly when a variable needs to be captured into a closure.
func (s *SymbolTable) Resolve(name string) (Symbol, bool) {
	sym, ok := s.store.Get(name)
	if ok || s.Outer == nil {
		return sym, ok
	}

	sym, ok = s.Outer.Resolve(name)
	if !ok {
		return sym, ok
	}
	if sym.Scope == GlobalScope || sym.Scope == BuiltinScope {
		return sym, ok
	}
	return s.defineFree(sym), true
}

// defineFree records original as a free variable of s and returns the
// FreeScope symbol subsequent resolutions of its name should see.
func (s *SymbolTable) defineFree(original Symbol) Symbol {
	s.FreeSymbols = append(s.FreeSymbols, original)
	symbol := Symbol{Name: original.Name, Scope: FreeScope, Index: len(s.FreeSymbols) - 1}
	s.store.Put(original.Name, symbol)
	return symbol
}
