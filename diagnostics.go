package autowire

import (
	"fmt"
	"strings"
)

// Status is a diagnostic tool that returns a string describing what the injector knows about. The
// result lists every registered class with its parameters, followed by the configuration.
//
// Aliases and preferences that point at types without a definition are still listed; use Validate
// to find them.
func (i *Injector) Status() string {
	result := strings.Builder{}
	for _, name := range i.definitions.Classes() {
		def, ok := i.definitions.ClassDefinition(name)
		if !ok {
			continue
		}
		if result.Len() > 0 {
			result.WriteString("\n")
		}
		if def.Abstract {
			result.WriteString(fmt.Sprintf("%v - abstract", name))
			continue
		}
		result.WriteString(fmt.Sprintf("%v - constructor: %s", name, formatParameters(def.Parameters)))
	}

	config := i.config.Status()
	if config != "" {
		result.WriteString("\n----\nconfiguration:\n")
		result.WriteString(config)
	}
	return result.String()
}

// formatParameters renders a parameter list without addresses or Go type spellings so the output is
// stable for tests.
func formatParameters(params []Parameter) string {
	builder := strings.Builder{}
	builder.WriteString("(")
	for idx, p := range params {
		if idx > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(p.Name)
		if p.Type != "" {
			builder.WriteString(" ")
			builder.WriteString(string(p.Type))
		}
		if p.HasDefault {
			builder.WriteString(fmt.Sprintf(" = %v", p.Default))
		}
	}
	builder.WriteString(")")
	return builder.String()
}
