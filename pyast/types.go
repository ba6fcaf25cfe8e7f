package pyast

// StatementKind tags a top-level statement in a Module body.
type StatementKind int

const (
	StatementOther StatementKind = iota
	StatementClass
	StatementFunction
	StatementExpression
	StatementImport
)

// Module is the immutable declaration model for one parsed source file.
// It is produced fresh per file and never mutated after Parse returns.
type Module struct {
	// Path is the file path the module was parsed from, used in messages.
	Path string

	// Body holds the top-level statements in source order.
	Body []Statement

	// Imports holds every import statement in the whole tree, including
	// imports nested inside functions and classes, in traversal order.
	Imports []Import
}

// Statement is one top-level statement. Exactly one of the pointer fields
// is set depending on Kind; Call is set only for expression statements
// whose expression is a call.
type Statement struct {
	Kind  StatementKind
	Class *Class
	Func  *Function
	Call  *Call
}

// Class is a class declaration with its direct member functions in
// declaration order. Nested classes are not collected.
type Class struct {
	Name    string
	Methods []*Function
}

// Function is a function or method declaration.
type Function struct {
	Name        string
	Async       bool
	Decorations []Decoration
	Params      Params
}

// Decoration is a decorator attached to a function or class. Name is set
// when the decorator expression is a bare identifier; Attr holds the final
// attribute name when it is attribute access (e.g. tool.classmethod).
// Call-form decorators carry neither, mirroring purely syntactic matching.
type Decoration struct {
	Name string
	Attr string
}

// Params partitions a parameter list the way the language does:
// positional-or-keyword, keyword-only (after a bare * or a *args), and the
// variadic slots.
type Params struct {
	Positional    []string
	KeywordOnly   []string
	VarPositional string
	VarKeyword    string
}

// Empty reports whether the parameter list has no parameters of any kind.
func (p Params) Empty() bool {
	return len(p.Positional) == 0 && len(p.KeywordOnly) == 0 &&
		p.VarPositional == "" && p.VarKeyword == ""
}

// HasKeywordOnly reports whether name is declared in the keyword-only
// partition. Positional parameters with the same name do not count.
func (p Params) HasKeywordOnly(name string) bool {
	for _, kw := range p.KeywordOnly {
		if kw == name {
			return true
		}
	}
	return false
}

// Call is a call expression reduced to the shapes the rules match on.
// FuncName is set for a direct name call (main()); AttrName/BaseName are
// set for an attribute call on a named base (asyncio.run(...)).
type Call struct {
	FuncName string
	AttrName string
	BaseName string

	// FirstArgCall is the first positional argument when that argument is
	// itself a call, nil otherwise.
	FirstArgCall *Call
}

// Import is one import statement target. For "import a.b, c" two Imports
// are produced. For from-imports Path is the module path (not the imported
// names) and Level counts the leading relative dots.
type Import struct {
	From  bool
	Path  string
	Level int
}

// Root returns the first dotted segment of the import path.
func (i Import) Root() string {
	for idx := 0; idx < len(i.Path); idx++ {
		if i.Path[idx] == '.' {
			return i.Path[:idx]
		}
	}
	return i.Path
}
