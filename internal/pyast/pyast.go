// Package pyast parses Python source with tree-sitter into the lightweight
// module AST the semantic analyzer consumes: classes with their decorators,
// annotated fields, and methods, plus the module's import bindings and
// type-variable declarations.
package pyast

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Module is one parsed source file.
type Module struct {
	// Name is the dotted module name, e.g. "pets.cats".
	Name string
	// Path is the repo-relative file path the module was parsed from.
	Path string
	// Imports maps each locally bound name to the fully-qualified name it
	// was imported as.
	Imports map[string]string
	// TypeVars holds the local names bound by module-level TypeVar(...)
	// assignments.
	TypeVars map[string]bool
	Classes  []*ClassNode
}

// ClassNode is a top-level class definition.
type ClassNode struct {
	Name string
	// Decorators holds the decorator expressions as written, outermost
	// first, with any call parentheses stripped (`@Cat(exc=...)` -> "Cat").
	Decorators []string
	Bases      []*TypeExpr
	Fields     []*FieldNode
	Methods    []*MethodNode
	Line       int
}

// FieldNode is a class-level attribute declaration.
type FieldNode struct {
	Name string
	// Annotation is nil when the declaration has no type annotation.
	Annotation *TypeExpr
	HasDefault bool
	Line       int
}

// MethodNode is a method defined in a class body.
type MethodNode struct {
	Name       string
	Decorators []string
	Params     []*ParamNode
	Return     *TypeExpr
	Line       int
}

// ParamNode is one formal parameter of a method.
type ParamNode struct {
	Name       string
	Annotation *TypeExpr
	HasDefault bool
}

// TypeExpr is an annotation expression: a (possibly dotted) name with
// optional subscript arguments, e.g. Dict[str, Any].
type TypeExpr struct {
	Name string
	Args []*TypeExpr
}

func (e *TypeExpr) String() string {
	if len(e.Args) == 0 {
		return e.Name
	}
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s[%s]", e.Name, strings.Join(parts, ", "))
}

// NewParser creates a fresh Python parser. Parsers are not thread-safe;
// each goroutine must use its own.
func NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return p
}

// ModuleName derives the dotted module name from a repo-relative path:
// "pets/cats.py" -> "pets.cats", "pets/__init__.py" -> "pets".
func ModuleName(relPath string) string {
	name := strings.TrimSuffix(relPath, ".py")
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.ReplaceAll(name, "/", ".")
	name = strings.TrimSuffix(name, ".__init__")
	return name
}

// ParseModule parses source into a Module. parser must have been created by
// NewParser.
func ParseModule(parser *sitter.Parser, relPath string, source []byte) (*Module, error) {
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", relPath, err)
	}
	defer tree.Close()

	mod := &Module{
		Name:     ModuleName(relPath),
		Path:     relPath,
		Imports:  map[string]string{},
		TypeVars: map[string]bool{},
	}

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "import_statement":
			parseImport(mod, child, source)
		case "import_from_statement":
			parseImportFrom(mod, child, source)
		case "expression_statement":
			parseModuleAssign(mod, child, source)
		case "class_definition":
			mod.Classes = append(mod.Classes, parseClass(child, nil, source))
		case "decorated_definition":
			decorators, def := splitDecorated(child, source)
			if def != nil && def.Type() == "class_definition" {
				mod.Classes = append(mod.Classes, parseClass(def, decorators, source))
			}
		}
	}
	return mod, nil
}

// nodeText returns the source text of a node.
func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

func parseImport(mod *Module, node *sitter.Node, source []byte) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			full := nodeText(child, source)
			// `import a.b` binds "a".
			head, _, _ := strings.Cut(full, ".")
			mod.Imports[head] = head
		case "aliased_import":
			var full, alias string
			for j := 0; j < int(child.NamedChildCount()); j++ {
				sub := child.NamedChild(j)
				switch sub.Type() {
				case "dotted_name":
					full = nodeText(sub, source)
				case "identifier":
					alias = nodeText(sub, source)
				}
			}
			if full != "" && alias != "" {
				mod.Imports[alias] = full
			}
		}
	}
}

func parseImportFrom(mod *Module, node *sitter.Node, source []byte) {
	var from string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name", "relative_import":
			name := nodeText(child, source)
			if from == "" {
				from = name
				continue
			}
			mod.Imports[name] = from + "." + name
		case "aliased_import":
			var full, alias string
			for j := 0; j < int(child.NamedChildCount()); j++ {
				sub := child.NamedChild(j)
				switch sub.Type() {
				case "dotted_name":
					full = nodeText(sub, source)
				case "identifier":
					alias = nodeText(sub, source)
				}
			}
			if from != "" && full != "" && alias != "" {
				mod.Imports[alias] = from + "." + full
			}
		}
	}
}

// parseModuleAssign records module-level TypeVar declarations,
// `T = TypeVar("T")`.
func parseModuleAssign(mod *Module, stmt *sitter.Node, source []byte) {
	if stmt.NamedChildCount() == 0 {
		return
	}
	assign := stmt.NamedChild(0)
	if assign.Type() != "assignment" {
		return
	}
	var name string
	var value *sitter.Node
	seenEq := false
	for i := 0; i < int(assign.ChildCount()); i++ {
		child := assign.Child(i)
		switch {
		case child.Type() == "identifier" && name == "":
			name = nodeText(child, source)
		case child.Type() == "=":
			seenEq = true
		case seenEq && child.IsNamed():
			value = child
		}
	}
	if name == "" || value == nil || value.Type() != "call" {
		return
	}
	callee := value.NamedChild(0)
	if callee == nil {
		return
	}
	text := nodeText(callee, source)
	if text == "TypeVar" || strings.HasSuffix(text, ".TypeVar") {
		mod.TypeVars[name] = true
	}
}

// splitDecorated separates a decorated_definition into its decorator names
// and the wrapped definition node.
func splitDecorated(node *sitter.Node, source []byte) ([]string, *sitter.Node) {
	var decorators []string
	var def *sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "decorator":
			if name := decoratorName(child, source); name != "" {
				decorators = append(decorators, name)
			}
		case "class_definition", "function_definition":
			def = child
		}
	}
	return decorators, def
}

// decoratorName extracts the dotted name of a decorator expression,
// unwrapping a call: `@Cat`, `@tc.Cat`, and `@Cat(exc=True)` all yield the
// name without arguments.
func decoratorName(node *sitter.Node, source []byte) string {
	expr := node.NamedChild(0)
	if expr == nil {
		return ""
	}
	if expr.Type() == "call" {
		expr = expr.NamedChild(0)
		if expr == nil {
			return ""
		}
	}
	switch expr.Type() {
	case "identifier", "attribute":
		return nodeText(expr, source)
	}
	return ""
}

func parseClass(node *sitter.Node, decorators []string, source []byte) *ClassNode {
	cls := &ClassNode{
		Decorators: decorators,
		Line:       int(node.StartPoint().Row) + 1,
	}
	var body *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			if cls.Name == "" {
				cls.Name = nodeText(child, source)
			}
		case "argument_list":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				arg := child.NamedChild(j)
				if arg.Type() == "keyword_argument" {
					continue // e.g. metaclass=...
				}
				if base := parseTypeNode(arg, source); base != nil {
					cls.Bases = append(cls.Bases, base)
				}
			}
		case "block":
			body = child
		}
	}
	if body != nil {
		parseClassBody(cls, body, source)
	}
	return cls
}

func parseClassBody(cls *ClassNode, body *sitter.Node, source []byte) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "expression_statement":
			if field := parseField(child, source); field != nil {
				cls.Fields = append(cls.Fields, field)
			}
		case "function_definition":
			cls.Methods = append(cls.Methods, parseMethod(child, nil, source))
		case "decorated_definition":
			decorators, def := splitDecorated(child, source)
			if def != nil && def.Type() == "function_definition" {
				cls.Methods = append(cls.Methods, parseMethod(def, decorators, source))
			}
		}
	}
}

// parseField reads a class-level attribute declaration. Annotated
// assignments appear as an assignment node with a "type" child; a bare
// assignment produces a field with a nil annotation so the attrs synthesis
// can diagnose it.
func parseField(stmt *sitter.Node, source []byte) *FieldNode {
	if stmt.NamedChildCount() == 0 {
		return nil
	}
	assign := stmt.NamedChild(0)
	if assign.Type() != "assignment" {
		return nil
	}
	field := &FieldNode{Line: int(assign.StartPoint().Row) + 1}
	seenEq := false
	for i := 0; i < int(assign.ChildCount()); i++ {
		child := assign.Child(i)
		switch {
		case child.Type() == "identifier" && field.Name == "":
			field.Name = nodeText(child, source)
		case child.Type() == "type":
			field.Annotation = parseTypeNode(child, source)
		case child.Type() == "=":
			seenEq = true
		case seenEq && child.IsNamed():
			field.HasDefault = true
		}
	}
	if field.Name == "" {
		return nil
	}
	return field
}

func parseMethod(node *sitter.Node, decorators []string, source []byte) *MethodNode {
	m := &MethodNode{
		Decorators: decorators,
		Line:       int(node.StartPoint().Row) + 1,
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			if m.Name == "" {
				m.Name = nodeText(child, source)
			}
		case "parameters":
			m.Params = parseParams(child, source)
		case "type":
			m.Return = parseTypeNode(child, source)
		}
	}
	return m
}

func parseParams(node *sitter.Node, source []byte) []*ParamNode {
	var params []*ParamNode
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier":
			params = append(params, &ParamNode{Name: nodeText(child, source)})
		case "typed_parameter":
			p := &ParamNode{}
			for j := 0; j < int(child.ChildCount()); j++ {
				sub := child.Child(j)
				switch sub.Type() {
				case "identifier":
					p.Name = nodeText(sub, source)
				case "type":
					p.Annotation = parseTypeNode(sub, source)
				}
			}
			if p.Name != "" {
				params = append(params, p)
			}
		case "default_parameter", "typed_default_parameter":
			p := &ParamNode{HasDefault: true}
			for j := 0; j < int(child.ChildCount()); j++ {
				sub := child.Child(j)
				switch sub.Type() {
				case "identifier":
					if p.Name == "" {
						p.Name = nodeText(sub, source)
					}
				case "type":
					p.Annotation = parseTypeNode(sub, source)
				}
			}
			if p.Name != "" {
				params = append(params, p)
			}
		}
	}
	return params
}

// parseTypeNode converts an annotation expression into a TypeExpr tree.
func parseTypeNode(node *sitter.Node, source []byte) *TypeExpr {
	switch node.Type() {
	case "type":
		if node.NamedChildCount() == 0 {
			return nil
		}
		return parseTypeNode(node.NamedChild(0), source)
	case "identifier", "attribute":
		return &TypeExpr{Name: nodeText(node, source)}
	case "none":
		return &TypeExpr{Name: "None"}
	case "string":
		// Forward reference: "Cat" -> Cat.
		return &TypeExpr{Name: strings.Trim(nodeText(node, source), `"'`)}
	case "subscript":
		if node.NamedChildCount() == 0 {
			return nil
		}
		base := parseTypeNode(node.NamedChild(0), source)
		if base == nil {
			return nil
		}
		expr := &TypeExpr{Name: base.Name}
		for i := 1; i < int(node.NamedChildCount()); i++ {
			if arg := parseTypeNode(node.NamedChild(i), source); arg != nil {
				expr.Args = append(expr.Args, arg)
			}
		}
		return expr
	case "binary_operator":
		// PEP 604 unions: `X | None` resolves to X, `None | X` to X.
		var operands []*TypeExpr
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if op := parseTypeNode(node.NamedChild(i), source); op != nil {
				operands = append(operands, op)
			}
		}
		for _, op := range operands {
			if op.Name != "None" {
				return op
			}
		}
		if len(operands) > 0 {
			return operands[0]
		}
		return nil
	default:
		return nil
	}
}
