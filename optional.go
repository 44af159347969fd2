package autowire

import (
	"fmt"
)

// Optional marks the named dependency parameter as optional with a nil default. When nothing can
// supply the dependency the constructor receives nil instead of the construction failing.
//
// Only pointer and interface parameters can be optional; Provide rejects anything else.
//
//	reg.Provide(NewReportService, autowire.Named("store", "tracer"), autowire.Optional("tracer"))
func Optional(name string) ProvideOption {
	return func(s *provideSettings) {
		s.defaults[name] = nil
		s.optional[name] = true
	}
}

// checkOptional verifies a parameter marked with Optional.
func checkOptional(owner TypeName, p Parameter) error {
	if p.GoType == nil {
		return nil
	}
	if !isNilable(p.GoType) {
		return fmt.Errorf("Optional() requires a pointer or interface parameter, %q of %v is %v", p.Name, owner, p.GoType)
	}
	return nil
}
