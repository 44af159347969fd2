package autowire

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a DependencyError.
type ErrorKind int

const (
	// KindClassNotFound means the requested name does not resolve to an existing, instantiable type.
	KindClassNotFound ErrorKind = iota + 1
	// KindCircularDependency means the type is already being constructed further up the call chain.
	KindCircularDependency
	// KindMissingProperty means a required constructor parameter could not be supplied.
	KindMissingProperty
	// KindUndefinedReference means the hosting container was consulted and failed.
	KindUndefinedReference
	// KindContractViolation means a resolver or configuration produced a value that contradicts
	// the parameter's declared contract. It signals a programming error.
	KindContractViolation
	// KindInvalidConfiguration means the configuration or factory table is malformed.
	KindInvalidConfiguration
)

var (
	ErrClassNotFound        = errors.New("class not found")
	ErrCircularDependency   = errors.New("circular dependency")
	ErrMissingProperty      = errors.New("missing property")
	ErrUndefinedReference   = errors.New("undefined reference")
	ErrContractViolation    = errors.New("type contract violation")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

var kindSentinels = map[ErrorKind]error{
	KindClassNotFound:        ErrClassNotFound,
	KindCircularDependency:   ErrCircularDependency,
	KindMissingProperty:      ErrMissingProperty,
	KindUndefinedReference:   ErrUndefinedReference,
	KindContractViolation:    ErrContractViolation,
	KindInvalidConfiguration: ErrInvalidConfiguration,
}

// DependencyError is returned for every failure of the engine. Use errors.Is with one of the
// Err* sentinels to classify it, or errors.As to inspect the details.
type DependencyError struct {
	Kind        ErrorKind
	Message     string
	TypeName    TypeName
	Parameter   string
	Stack       []TypeName
	SourceError error
}

func (e *DependencyError) Error() string {
	b := strings.Builder{}
	b.WriteString(e.Message)
	if e.Parameter != "" {
		b.WriteString(fmt.Sprintf(": parameter %q of %v", e.Parameter, e.TypeName))
	} else if e.TypeName != "" {
		b.WriteString(fmt.Sprintf(": %v", e.TypeName))
	}
	if len(e.Stack) > 0 {
		b.WriteString(" (")
		b.WriteString(formatStack(e.Stack))
		b.WriteString(")")
	}
	if e.SourceError != nil {
		b.WriteString(": ")
		b.WriteString(e.SourceError.Error())
	}
	return b.String()
}

func (e *DependencyError) Unwrap() error {
	return e.SourceError
}

// Is matches the sentinel for the error's kind.
func (e *DependencyError) Is(target error) bool {
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		return sentinel == target
	}
	return false
}

func formatStack(stack []TypeName) string {
	parts := make([]string, len(stack))
	for i, s := range stack {
		parts[i] = string(s)
	}
	return strings.Join(parts, " -> ")
}
