package rules

import (
	"strings"

	"github.com/eksmo-labs/precheck/pyast"
)

// FlowRule validates the one-class-per-file convention for flow modules:
// exactly one top-level class named *<Suffix>, whose Method member is an
// async classmethod taking KeywordParam as a keyword-only parameter.
type FlowRule struct {
	Suffix       string
	Method       string
	KeywordParam string
}

// Check runs the full flow-shape validation for one parsed module and
// stops at the first failure.
func (r FlowRule) Check(mod *pyast.Module) []Violation {
	cls, v := r.FindFlowClass(mod)
	if v != nil {
		return []Violation{*v}
	}

	fn, v := r.FindMethod(mod.Path, cls)
	if v != nil {
		return []Violation{*v}
	}

	if v := r.CheckMethodShape(mod.Path, cls.Name, fn); v != nil {
		return []Violation{*v}
	}

	return nil
}

// FindFlowClass locates the single suffix-matching top-level class. Zero
// matches and multiple matches are both violations; nested classes are
// never considered.
func (r FlowRule) FindFlowClass(mod *pyast.Module) (*pyast.Class, *Violation) {
	var matches []*pyast.Class
	for _, stmt := range mod.Body {
		if stmt.Kind == pyast.StatementClass && strings.HasSuffix(stmt.Class.Name, r.Suffix) {
			matches = append(matches, stmt.Class)
		}
	}

	switch len(matches) {
	case 0:
		v := violationf(mod.Path, "no class ending in %q found", r.Suffix)
		return nil, &v
	case 1:
		return matches[0], nil
	default:
		v := violationf(mod.Path, "expected exactly one %s class, found %d", r.Suffix, len(matches))
		return nil, &v
	}
}

// FindMethod returns the first direct member named Method. Later members
// with the same name are ignored: first definition wins.
func (r FlowRule) FindMethod(path string, cls *pyast.Class) (*pyast.Function, *Violation) {
	for _, m := range cls.Methods {
		if m.Name == r.Method {
			return m, nil
		}
	}
	v := violationf(path, "class %s is missing method %s()", cls.Name, r.Method)
	return nil, &v
}

// CheckMethodShape verifies the three signature requirements in order,
// stopping at the first failure: async, classmethod-decorated, and the
// keyword-only parameter.
func (r FlowRule) CheckMethodShape(path, className string, fn *pyast.Function) *Violation {
	if !fn.Async {
		v := violationf(path, "method %s() in %s must be async", r.Method, className)
		return &v
	}

	if !hasClassmethodDecoration(fn.Decorations) {
		v := violationf(path, "method %s() in %s must be a classmethod", r.Method, className)
		return &v
	}

	if !fn.Params.HasKeywordOnly(r.KeywordParam) {
		v := violationf(path, "method %s() in %s must take %s as keyword-only (*, %s=...)",
			r.Method, className, r.KeywordParam, r.KeywordParam)
		return &v
	}

	return nil
}

// hasClassmethodDecoration matches purely syntactically: a bare decorator
// named classmethod, or any attribute access whose final attribute is
// classmethod. The base is deliberately not resolved.
func hasClassmethodDecoration(decorations []pyast.Decoration) bool {
	for _, d := range decorations {
		if d.Name == "classmethod" || d.Attr == "classmethod" {
			return true
		}
	}
	return false
}
