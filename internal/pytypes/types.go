// Package pytypes defines the analyzer's representation of Python types.
package pytypes

import (
	"fmt"
	"strings"
)

// ArgKind describes how a callable argument is passed.
type ArgKind int

const (
	ArgPos   ArgKind = iota // plain positional
	ArgOpt                  // positional with a default
	ArgNamed                // keyword-only
)

// Type is the interface implemented by every analyzer type.
type Type interface {
	String() string
}

// Any is the dynamic type: compatible with everything.
type Any struct{}

func (Any) String() string { return "Any" }

// None is the type of the None literal.
type None struct{}

func (None) String() string { return "None" }

// TypeVarDef is a type parameter as declared on a generic class.
type TypeVarDef struct {
	Name     string
	FullName string
	ID       int
}

// TypeVar is a reference to a type parameter inside a signature.
type TypeVar struct {
	Name     string
	FullName string
	ID       int
}

func (t *TypeVar) String() string { return t.Name }

// Class is the part of a class's analyzer record that types need: its
// identity and declared type parameters. Implemented by pynodes.TypeInfo.
type Class interface {
	QualifiedName() string
	TypeParams() []TypeVarDef
}

// ClassResolver maps a fully-qualified class name back to its record during
// deserialization.
type ClassResolver func(fullname string) (Class, bool)

// Instance is a class type, possibly with type arguments.
type Instance struct {
	Class Class
	Args  []Type
}

func (i *Instance) String() string {
	if len(i.Args) == 0 {
		return i.Class.QualifiedName()
	}
	parts := make([]string, len(i.Args))
	for j, a := range i.Args {
		parts[j] = a.String()
	}
	return fmt.Sprintf("%s[%s]", i.Class.QualifiedName(), strings.Join(parts, ", "))
}

// Callable is the type of a function or method.
type Callable struct {
	ArgTypes []Type
	ArgKinds []ArgKind
	ArgNames []string
	Ret      Type
	// Fallback is the generic "function" instance that carries the
	// callable's class-level behavior.
	Fallback *Instance
	// Name is the fully-qualified name of the definition this signature
	// belongs to, e.g. "pets.Cat.struc".
	Name string
}

func (c *Callable) String() string {
	parts := make([]string, len(c.ArgTypes))
	for i, a := range c.ArgTypes {
		parts[i] = fmt.Sprintf("%s: %s", c.ArgNames[i], a.String())
	}
	ret := "None"
	if c.Ret != nil {
		ret = c.Ret.String()
	}
	return fmt.Sprintf("def (%s) -> %s", strings.Join(parts, ", "), ret)
}

// FillTypeVars returns the class's own type with every declared type
// parameter re-bound to a fresh type variable, so a synthesized constructor
// on a generic class returns the parameterized type rather than an erased
// one.
func FillTypeVars(c Class) *Instance {
	params := c.TypeParams()
	args := make([]Type, len(params))
	for i, p := range params {
		args[i] = &TypeVar{Name: p.Name, FullName: p.FullName, ID: p.ID}
	}
	return &Instance{Class: c, Args: args}
}
