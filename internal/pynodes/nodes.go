// Package pynodes defines the analyzer's symbol and definition nodes: the
// mutable per-class records that semantic analysis builds and plugins extend.
package pynodes

import "github.com/phobologic/catcheck/internal/pytypes"

// MemberKind says which namespace a symbol table entry belongs to.
type MemberKind int

const (
	// MemberDef is a member of a class's own namespace.
	MemberDef MemberKind = iota
	// GlobalDef is a member of a module's namespace.
	GlobalDef
)

// Statement is a statement in a definition body.
type Statement interface {
	stmtNode()
}

// PassStmt is a no-op statement. Synthesized function bodies consist of a
// single PassStmt; they are never executed, only their types matter.
type PassStmt struct {
	Line int
}

func (*PassStmt) stmtNode() {}

// AssignStmt is a class-level field declaration, `name: annotation = value`.
// Annotation is nil when the declaration carries no type annotation.
type AssignStmt struct {
	Name       string
	Annotation pytypes.Type
	HasValue   bool
	Line       int
}

func (*AssignStmt) stmtNode() {}

// Block is an ordered sequence of statements.
type Block struct {
	Stmts []Statement
}

// Var is a variable or attribute definition.
type Var struct {
	Name     string
	FullName string
	Type     pytypes.Type
	Line     int
}

func (v *Var) DefName() string { return v.Name }

// Argument is one formal argument of a function definition.
type Argument struct {
	Var        *Var
	Annotation pytypes.Type
	Kind       pytypes.ArgKind
}

// FuncDef is a function or method definition.
type FuncDef struct {
	Name     string
	FullName string
	Args     []*Argument
	Body     *Block
	Type     *pytypes.Callable
	// Info is the class this definition is attached to, nil for
	// module-level functions.
	Info *TypeInfo
	// IsStatic marks the definition as attached to the type itself,
	// invocable without an instance.
	IsStatic bool
	Line     int
}

func (*FuncDef) stmtNode()         {}
func (f *FuncDef) DefName() string { return f.Name }

// Definition is anything a symbol table entry can point at.
type Definition interface {
	DefName() string
}

// SymbolTableNode is one entry in a symbol table.
type SymbolTableNode struct {
	Kind MemberKind
	Node Definition
	// PluginGenerated marks entries synthesized by a plugin rather than
	// written by the user.
	PluginGenerated bool
}

// SymbolTable maps member names to their entries.
type SymbolTable map[string]*SymbolTableNode

// ClassDef is the syntactic class definition: decorators and body. Info
// points at the semantic record built for it.
type ClassDef struct {
	Name string
	// Decorators holds the resolved fully-qualified name of each
	// decorator, outermost first.
	Decorators []string
	Body       []Statement
	Info       *TypeInfo
	Line       int
}

// TypeInfo is the analyzer's semantic record of a class: its identity,
// member table, type parameters, and source location.
type TypeInfo struct {
	Name     string
	FullName string
	Defn     *ClassDef
	Names    SymbolTable
	TypeVars []pytypes.TypeVarDef
	Bases    []*pytypes.Instance
	File     string
	Line     int
}

func (i *TypeInfo) DefName() string { return i.Name }

// QualifiedName implements pytypes.Class.
func (i *TypeInfo) QualifiedName() string { return i.FullName }

// TypeParams implements pytypes.Class.
func (i *TypeInfo) TypeParams() []pytypes.TypeVarDef { return i.TypeVars }

// Member returns the named entry's definition, or nil when absent.
func (i *TypeInfo) Member(name string) Definition {
	n, ok := i.Names[name]
	if !ok {
		return nil
	}
	return n.Node
}
