// Package rules implements the precheck rule set: declaration shape checks
// over parsed Python modules, the import boundary audit, and flat
// filesystem policy checks.
package rules

import "fmt"

// Violation describes one rule failure. Path points at the offending file
// or directory; Message is the human-readable reason printed to the user.
type Violation struct {
	Path    string
	Message string
}

// String renders the violation the way the console reporter prints it.
func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// violationf builds a Violation with a formatted message.
func violationf(path, format string, args ...any) Violation {
	return Violation{Path: path, Message: fmt.Sprintf(format, args...)}
}
