// Package pyast parses Python source files into a small declaration model
// using tree-sitter. The model covers only what the precheck rules inspect:
// top-level classes and functions, method signatures, decorators, import
// statements, and trailing call expressions.
package pyast

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Parser turns Python source text into Modules. A Parser owns one
// tree-sitter parser and is not safe for concurrent use; create one per
// goroutine if parallel parsing is ever needed.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a Python parser.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// ParseFile reads and parses one Python file.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Module, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return p.Parse(ctx, content, path)
}

// Parse parses Python source text. path is used only for error messages
// and the resulting Module's Path field.
func (p *Parser) Parse(ctx context.Context, content []byte, path string) (*Module, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("syntax error in %s", path)
	}

	mod := &Module{Path: path}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		mod.Body = append(mod.Body, extractStatement(root.NamedChild(i), content))
	}

	collectImports(root, content, &mod.Imports)

	return mod, nil
}

// extractStatement classifies one top-level statement.
func extractStatement(node *sitter.Node, content []byte) Statement {
	switch node.Type() {
	case "class_definition":
		return Statement{Kind: StatementClass, Class: extractClass(node, content)}

	case "function_definition":
		return Statement{Kind: StatementFunction, Func: extractFunction(node, content, nil)}

	case "decorated_definition":
		decorators := extractDecorators(node, content)
		if def := findDefinition(node); def != nil {
			switch def.Type() {
			case "class_definition":
				return Statement{Kind: StatementClass, Class: extractClass(def, content)}
			case "function_definition":
				return Statement{Kind: StatementFunction, Func: extractFunction(def, content, decorators)}
			}
		}
		return Statement{Kind: StatementOther}

	case "expression_statement":
		stmt := Statement{Kind: StatementExpression}
		if node.NamedChildCount() > 0 {
			if expr := node.NamedChild(0); expr.Type() == "call" {
				stmt.Call = extractCall(expr, content)
			}
		}
		return stmt

	case "import_statement", "import_from_statement":
		return Statement{Kind: StatementImport}
	}

	return Statement{Kind: StatementOther}
}

// extractClass extracts a class declaration and its direct member functions.
func extractClass(node *sitter.Node, content []byte) *Class {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return &Class{}
	}

	cls := &Class{Name: text(nameNode, content)}

	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "function_definition":
			cls.Methods = append(cls.Methods, extractFunction(child, content, nil))
		case "decorated_definition":
			if def := findDefinition(child); def != nil && def.Type() == "function_definition" {
				decorators := extractDecorators(child, content)
				cls.Methods = append(cls.Methods, extractFunction(def, content, decorators))
			}
		}
	}

	return cls
}

// extractFunction extracts a function declaration with its signature.
func extractFunction(node *sitter.Node, content []byte, decorators []Decoration) *Function {
	fn := &Function{Decorations: decorators}

	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		fn.Name = text(nameNode, content)
	}

	// The async keyword is an anonymous child of function_definition.
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "async" {
			fn.Async = true
			break
		}
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		fn.Params = extractParams(params, content)
	}

	return fn
}

// extractParams partitions a parameter list. Parameters after a bare *
// separator or a named *args are keyword-only.
func extractParams(node *sitter.Node, content []byte) Params {
	var params Params
	keywordOnly := false

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "keyword_separator":
			keywordOnly = true

		case "positional_separator":
			// "/" marker: everything before it stays positional.

		case "list_splat_pattern":
			if name := paramName(child, content); name != "" {
				params.VarPositional = name
			}
			keywordOnly = true

		case "dictionary_splat_pattern":
			if name := paramName(child, content); name != "" {
				params.VarKeyword = name
			}

		case "typed_parameter":
			// A typed parameter may wrap a splat: *args: int.
			if inner := child.NamedChild(0); inner != nil {
				switch inner.Type() {
				case "list_splat_pattern":
					if name := paramName(inner, content); name != "" {
						params.VarPositional = name
					}
					keywordOnly = true
					continue
				case "dictionary_splat_pattern":
					if name := paramName(inner, content); name != "" {
						params.VarKeyword = name
					}
					continue
				}
			}
			fallthrough

		case "identifier", "default_parameter", "typed_default_parameter":
			name := paramName(child, content)
			if name == "" {
				continue
			}
			if keywordOnly {
				params.KeywordOnly = append(params.KeywordOnly, name)
			} else {
				params.Positional = append(params.Positional, name)
			}
		}
	}

	return params
}

// paramName extracts the identifier of a parameter node.
func paramName(node *sitter.Node, content []byte) string {
	if node.Type() == "identifier" {
		return text(node, content)
	}
	if name := node.ChildByFieldName("name"); name != nil {
		return text(name, content)
	}
	// typed_parameter and splat patterns carry the identifier as the first
	// named child rather than a field.
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == "identifier" {
			return text(child, content)
		}
	}
	return ""
}

// extractDecorators reduces decorators to their matchable shapes: a bare
// identifier or an attribute access. Other decorator expressions (calls,
// subscripts) produce an empty Decoration that matches nothing.
func extractDecorators(node *sitter.Node, content []byte) []Decoration {
	var decorators []Decoration
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "decorator" || child.NamedChildCount() == 0 {
			continue
		}

		expr := child.NamedChild(0)
		var dec Decoration
		switch expr.Type() {
		case "identifier":
			dec.Name = text(expr, content)
		case "attribute":
			if attr := expr.ChildByFieldName("attribute"); attr != nil {
				dec.Attr = text(attr, content)
			}
		}
		decorators = append(decorators, dec)
	}
	return decorators
}

// extractCall reduces a call expression to the shapes the rules match on.
func extractCall(node *sitter.Node, content []byte) *Call {
	call := &Call{}

	if fn := node.ChildByFieldName("function"); fn != nil {
		switch fn.Type() {
		case "identifier":
			call.FuncName = text(fn, content)
		case "attribute":
			if attr := fn.ChildByFieldName("attribute"); attr != nil {
				call.AttrName = text(attr, content)
			}
			if obj := fn.ChildByFieldName("object"); obj != nil && obj.Type() == "identifier" {
				call.BaseName = text(obj, content)
			}
		}
	}

	if args := node.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			if arg.Type() == "keyword_argument" {
				continue
			}
			if arg.Type() == "call" {
				call.FirstArgCall = extractCall(arg, content)
			}
			break
		}
	}

	return call
}

// collectImports walks the whole tree and appends every import statement,
// including imports nested inside functions and classes.
func collectImports(node *sitter.Node, content []byte, out *[]Import) {
	switch node.Type() {
	case "import_statement":
		// import a.b, c as d
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			switch child.Type() {
			case "dotted_name":
				*out = append(*out, Import{Path: text(child, content)})
			case "aliased_import":
				if name := child.ChildByFieldName("name"); name != nil {
					*out = append(*out, Import{Path: text(name, content)})
				}
			}
		}
		return

	case "import_from_statement":
		imp := Import{From: true}
		if mod := node.ChildByFieldName("module_name"); mod != nil {
			switch mod.Type() {
			case "dotted_name":
				imp.Path = text(mod, content)
			case "relative_import":
				imp.Level, imp.Path = splitRelativeImport(mod, content)
			}
		}
		*out = append(*out, imp)
		return
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		collectImports(node.NamedChild(i), content, out)
	}
}

// splitRelativeImport returns the dot count and trailing module path of a
// relative import target ("..pkg.mod" → 2, "pkg.mod").
func splitRelativeImport(node *sitter.Node, content []byte) (int, string) {
	level := 0
	path := ""
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "import_prefix":
			level += strings.Count(text(child, content), ".")
		case "dotted_name":
			path = text(child, content)
		}
	}
	return level, path
}

// findDefinition locates the class or function node inside a
// decorated_definition.
func findDefinition(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "class_definition", "function_definition":
			return child
		}
	}
	return nil
}

// text returns the source text covered by a node.
func text(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}
