package rules

import (
	"github.com/eksmo-labs/precheck/pyast"
)

// EntryPointRule validates the designated demo module: it must define a
// top-level async main() with an empty signature and invoke it at the
// bottom of the file, either directly or via asyncio.run(main()).
type EntryPointRule struct{}

// Check runs the entry-point validation, stopping at the first failure.
func (EntryPointRule) Check(mod *pyast.Module) []Violation {
	main := findTopLevelFunction(mod, "main")
	if main == nil {
		return []Violation{violationf(mod.Path, "missing async def main()")}
	}
	if !main.Async {
		return []Violation{violationf(mod.Path, "main() must be async")}
	}

	if !main.Params.Empty() {
		return []Violation{violationf(mod.Path, "main() must take no arguments")}
	}

	if !invokesMain(mod) {
		return []Violation{violationf(mod.Path, "main() must be invoked at the bottom of the file (asyncio.run(main()))")}
	}

	return nil
}

// findTopLevelFunction returns the first async top-level function with the
// given name, falling back to a synchronous one so the caller can report
// "must be async" rather than "missing".
func findTopLevelFunction(mod *pyast.Module, name string) *pyast.Function {
	var sync *pyast.Function
	for _, stmt := range mod.Body {
		if stmt.Kind != pyast.StatementFunction || stmt.Func.Name != name {
			continue
		}
		if stmt.Func.Async {
			return stmt.Func
		}
		if sync == nil {
			sync = stmt.Func
		}
	}
	return sync
}

// invokesMain scans the top-level statements backward and accepts the
// module when any expression-statement call is a bare main() or
// asyncio.run(main()). Trailing statements after the qualifying call are
// tolerated, including other calls.
func invokesMain(mod *pyast.Module) bool {
	for i := len(mod.Body) - 1; i >= 0; i-- {
		stmt := mod.Body[i]
		if stmt.Kind != pyast.StatementExpression || stmt.Call == nil {
			continue
		}

		call := stmt.Call
		if call.FuncName == "main" {
			return true
		}
		if call.AttrName == "run" && call.BaseName == "asyncio" &&
			call.FirstArgCall != nil && call.FirstArgCall.FuncName == "main" {
			return true
		}
	}
	return false
}
