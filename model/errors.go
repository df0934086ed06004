package model

import "fmt"

// ContractViolation marks a descriptor that cannot legally be encoded — a register
// value out of range, or an unsupported combination of fields such as a non-NHWCB
// format paired with packed boundary data. It is always fatal: raised as a panic
// and recovered only at compile.Generate, never returned as an error (SPEC_FULL.md
// §4.2, spec.md §7).
type ContractViolation struct {
	Component string
	Message   string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("%s: %s", e.Component, e.Message)
}

// Violate panics with a ContractViolation tagged with component.
func Violate(component, format string, args ...any) {
	panic(&ContractViolation{Component: component, Message: fmt.Sprintf(format, args...)})
}
