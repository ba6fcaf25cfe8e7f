package rules

import (
	"strings"
	"testing"
)

func checkEntry(t *testing.T, src string) []Violation {
	t.Helper()
	return EntryPointRule{}.Check(parseSource(t, src))
}

func TestEntryPointDirectCall(t *testing.T) {
	violations := checkEntry(t, `
async def main():
    pass

main()
`)
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestEntryPointAsyncioRun(t *testing.T) {
	violations := checkEntry(t, `
import asyncio

async def main():
    pass

asyncio.run(main())
`)
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestEntryPointMissingMain(t *testing.T) {
	violations := checkEntry(t, `
async def start():
    pass
`)
	if len(violations) != 1 || !strings.Contains(violations[0].Message, "missing async def main()") {
		t.Fatalf("expected missing-main violation, got %v", violations)
	}
}

func TestEntryPointSyncMain(t *testing.T) {
	violations := checkEntry(t, `
def main():
    pass

main()
`)
	if len(violations) != 1 || !strings.Contains(violations[0].Message, "must be async") {
		t.Fatalf("expected async violation, got %v", violations)
	}
}

func TestEntryPointMainWithArguments(t *testing.T) {
	// Even optional parameters are rejected.
	violations := checkEntry(t, `
async def main(verbose=False):
    pass

asyncio.run(main())
`)
	if len(violations) != 1 || !strings.Contains(violations[0].Message, "no arguments") {
		t.Fatalf("expected arguments violation, got %v", violations)
	}
}

func TestEntryPointMainWithKeywordOnlyArgument(t *testing.T) {
	violations := checkEntry(t, `
async def main(*, retries=3):
    pass

asyncio.run(main())
`)
	if len(violations) != 1 || !strings.Contains(violations[0].Message, "no arguments") {
		t.Fatalf("expected arguments violation, got %v", violations)
	}
}

func TestEntryPointNeverInvoked(t *testing.T) {
	violations := checkEntry(t, `
async def main():
    pass
`)
	if len(violations) != 1 || !strings.Contains(violations[0].Message, "must be invoked") {
		t.Fatalf("expected invocation violation, got %v", violations)
	}
}

func TestEntryPointRejectsOtherAsyncioRun(t *testing.T) {
	violations := checkEntry(t, `
async def main():
    pass

async def other():
    pass

asyncio.run(other())
`)
	if len(violations) != 1 || !strings.Contains(violations[0].Message, "must be invoked") {
		t.Fatalf("expected invocation violation, got %v", violations)
	}
}

func TestEntryPointScansPastTrailingCalls(t *testing.T) {
	// The backward scan keeps looking past non-matching trailing calls.
	violations := checkEntry(t, `
async def main():
    pass

asyncio.run(main())
print("done")
`)
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestEntryPointToleratesTrailingAssignments(t *testing.T) {
	violations := checkEntry(t, `
async def main():
    pass

main()
status = "ok"
`)
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestEntryPointNestedInvocationNotAccepted(t *testing.T) {
	// The invocation must be a top-level expression statement, not inside
	// an if-guard.
	violations := checkEntry(t, `
async def main():
    pass

if __name__ == "__main__":
    asyncio.run(main())
`)
	if len(violations) != 1 || !strings.Contains(violations[0].Message, "must be invoked") {
		t.Fatalf("expected invocation violation, got %v", violations)
	}
}
