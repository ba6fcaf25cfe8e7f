package rules

import (
	"path/filepath"
	"strings"
	"testing"
)

func requiredLayout() []RequiredEntry {
	return []RequiredEntry{
		{Path: "app", Dir: true},
		{Path: "app/consts.py"},
		{Path: "README.md"},
	}
}

func TestProjectStructureComplete(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/consts.py", "X = 1\n")
	writeFile(t, root, "README.md", "# Demo\n")

	if violations := CheckProjectStructure(root, requiredLayout()); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestProjectStructureMissingFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/consts.py", "")

	violations := CheckProjectStructure(root, requiredLayout())
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %v", violations)
	}
	if !strings.Contains(violations[0].Message, "missing file: README.md") {
		t.Errorf("unexpected message: %s", violations[0].Message)
	}
}

func TestProjectStructureFileWhereDirExpected(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app", "")
	writeFile(t, root, "README.md", "# Demo\n")

	violations := CheckProjectStructure(root, requiredLayout())
	if len(violations) == 0 {
		t.Fatal("expected violations for file-vs-directory mismatch")
	}
	if !strings.Contains(violations[0].Message, "missing directory: app") {
		t.Errorf("unexpected message: %s", violations[0].Message)
	}
}

func TestDirContentsAllowListed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/consts.py", "")
	writeFile(t, root, "app/__init__.py", "")
	writeFile(t, root, "app/outsource/flows/demo_flow.py", "")

	violations, err := CheckDirContents(root, "app", []string{"consts.py", "__init__.py"}, []string{"outsource"})
	if err != nil {
		t.Fatalf("CheckDirContents: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestDirContentsRejectsStrayEntries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/consts.py", "")
	writeFile(t, root, "app/helpers.py", "")
	writeFile(t, root, "app/extras/x.py", "")

	violations, err := CheckDirContents(root, "app", []string{"consts.py", "__init__.py"}, []string{"outsource"})
	if err != nil {
		t.Fatalf("CheckDirContents: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", violations)
	}
}

func TestDirContentsMissingDirIsViolation(t *testing.T) {
	violations, err := CheckDirContents(t.TempDir(), "app", []string{"consts.py"}, []string{"outsource"})
	if err != nil {
		t.Fatalf("CheckDirContents: %v", err)
	}
	if len(violations) != 1 || !strings.Contains(violations[0].Message, "missing directory: app") {
		t.Fatalf("expected missing-directory violation, got %v", violations)
	}
}

func TestFileNamingMissingDirIsViolation(t *testing.T) {
	violations, err := CheckFileNaming(t.TempDir(), "flows", "*_flow.py", nil)
	if err != nil {
		t.Fatalf("CheckFileNaming: %v", err)
	}
	if len(violations) != 1 || !strings.Contains(violations[0].Message, "missing directory: flows") {
		t.Fatalf("expected missing-directory violation, got %v", violations)
	}
}

func TestFileNamingPattern(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "flows/order_flow.py", "")
	writeFile(t, root, "flows/__init__.py", "")
	writeFile(t, root, "flows/helper.py", "")

	violations, err := CheckFileNaming(root, "flows", "*_flow.py", []string{"__init__.py"})
	if err != nil {
		t.Fatalf("CheckFileNaming: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %v", violations)
	}
	if !strings.Contains(violations[0].Message, "helper.py") {
		t.Errorf("unexpected message: %s", violations[0].Message)
	}
}

func TestListMatchingFilesSorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "flows/b_flow.py", "")
	writeFile(t, root, "flows/a_flow.py", "")
	writeFile(t, root, "flows/notes.txt", "")

	files, err := ListMatchingFiles(root, "flows", "*_flow.py")
	if err != nil {
		t.Fatalf("ListMatchingFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}
	if filepath.Base(files[0]) != "a_flow.py" || filepath.Base(files[1]) != "b_flow.py" {
		t.Errorf("expected sorted flow files, got %v", files)
	}
}

func TestLineCeiling(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.py", strings.Repeat("x = 1\n", 5))
	writeFile(t, root, "pkg/big.py", strings.Repeat("x = 1\n", 20))
	// Virtual environments are excluded from the scan.
	writeFile(t, root, "venv/lib/huge.py", strings.Repeat("x = 1\n", 100))

	violations, err := CheckLineCeiling(root, 10, []string{"venv", "env"})
	if err != nil {
		t.Fatalf("CheckLineCeiling: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %v", violations)
	}
	if !strings.Contains(violations[0].Message, "20 lines") {
		t.Errorf("unexpected message: %s", violations[0].Message)
	}
}

func defaultReadmeRule() ReadmeRule {
	return ReadmeRule{
		Path:              "README.md",
		InstallKeywords:   []string{"установка", "installation", "setup", "инсталляция", "install"},
		RunKeywords:       []string{"запуск", "run", "usage", "использование", "демонстрация"},
		DescriptionLines:  15,
		DescriptionMinLen: 10,
	}
}

const goodReadme = `# Demo project

A demonstration project for outsource flows.

## Installation

pip install .

## Usage

python demonstration/main.py
`

func TestReadmeValid(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", goodReadme)

	if violations := defaultReadmeRule().Check(root); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestReadmeChecks(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", "", "is empty"},
		{"no title", "Just text without a heading but long enough.\n\nInstallation, usage.\n", "must start with a # title"},
		{"no description", "# Title\n\n## Installation\n\ninstall\n\n## Run\n\nrun\n", "project description"},
		{"no install section", "# Title\n\nA reasonably long description line.\n\n## Running\n\nrun it\n", "installation section"},
		{"no run section", "# Title\n\nA reasonably long description line.\n\n## Installation\n\npip\n", "run/usage section"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, root, "README.md", tt.content)

			violations := defaultReadmeRule().Check(root)
			if len(violations) != 1 {
				t.Fatalf("expected 1 violation, got %v", violations)
			}
			if !strings.Contains(violations[0].Message, tt.want) {
				t.Errorf("expected %q in message, got: %s", tt.want, violations[0].Message)
			}
		})
	}
}

func TestReadmeDescriptionFoundLateInWindow(t *testing.T) {
	// The description may sit anywhere in the first 15 lines, not just
	// right under the title.
	content := "# Title\n" + strings.Repeat("\n", 10) +
		"A description that arrives on line twelve.\n" +
		"\n## Installation\n\npip\n\n## Usage\n\nrun\n"
	root := t.TempDir()
	writeFile(t, root, "README.md", content)

	if violations := defaultReadmeRule().Check(root); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestReadmeDescriptionBeyondWindowRejected(t *testing.T) {
	content := "# Title\n" + strings.Repeat("\n", 15) +
		"A description that arrives too late to count.\n" +
		"\n## Installation\n\npip\n\n## Usage\n\nrun\n"
	root := t.TempDir()
	writeFile(t, root, "README.md", content)

	violations := defaultReadmeRule().Check(root)
	if len(violations) != 1 || !strings.Contains(violations[0].Message, "project description") {
		t.Fatalf("expected description violation, got %v", violations)
	}
}

func TestReadmeMissing(t *testing.T) {
	violations := defaultReadmeRule().Check(t.TempDir())
	if len(violations) != 1 || !strings.Contains(violations[0].Message, "missing README.md") {
		t.Fatalf("expected missing violation, got %v", violations)
	}
}

func TestCountLines(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "one\ntwo\nthree\n")
	writeFile(t, root, "b.py", "one\ntwo")
	writeFile(t, root, "c.py", "")

	for _, tt := range []struct {
		file string
		want int
	}{
		{"a.py", 3},
		{"b.py", 2},
		{"c.py", 0},
	} {
		got, err := countLines(filepath.Join(root, tt.file))
		if err != nil {
			t.Fatalf("countLines(%s): %v", tt.file, err)
		}
		if got != tt.want {
			t.Errorf("countLines(%s) = %d, want %d", tt.file, got, tt.want)
		}
	}
}
