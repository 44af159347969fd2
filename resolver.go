package autowire

import (
	"fmt"
	"strconv"
)

// PlanKind tags a Plan. The zero value is not a valid kind.
type PlanKind int

const (
	// PlanLiteral supplies Value as is.
	PlanLiteral PlanKind = iota + 1
	// PlanNeedsType requires an instance of Type, looked up in the container or constructed.
	PlanNeedsType
	// PlanUnresolvable means nothing can supply the parameter.
	PlanUnresolvable
)

func (k PlanKind) String() string {
	switch k {
	case PlanLiteral:
		return "literal"
	case PlanNeedsType:
		return "type"
	case PlanUnresolvable:
		return "unresolvable"
	}
	return fmt.Sprintf("PlanKind(%d)", int(k))
}

// Plan is the resolver's decision for one constructor parameter.
type Plan struct {
	Kind     PlanKind
	Value    any
	Type     TypeName
	Optional bool
}

// Literal supplies value as is.
func Literal(value any) Plan {
	return Plan{Kind: PlanLiteral, Value: value}
}

// NeedsType supplies an instance of name. An optional dependency falls back to the parameter default.
func NeedsType(name TypeName, optional bool) Plan {
	return Plan{Kind: PlanNeedsType, Type: name, Optional: optional}
}

// Unresolvable marks a parameter nothing can supply.
func Unresolvable() Plan {
	return Plan{Kind: PlanUnresolvable}
}

func (p Plan) String() string {
	switch p.Kind {
	case PlanLiteral:
		return fmt.Sprintf("literal(%v)", p.Value)
	case PlanNeedsType:
		if p.Optional {
			return fmt.Sprintf("type(%v, optional)", p.Type)
		}
		return fmt.Sprintf("type(%v)", p.Type)
	}
	return p.Kind.String()
}

// Resolver classifies the parameters of a constructor. It returns one Plan per parameter in
// declaration order.
type Resolver interface {
	Resolve(owner TypeName, params []Parameter, prefs Preferences) ([]Plan, error)
}

// DependencyResolver is the default Resolver. For each parameter it applies, in order:
// configured literal or forced type for the parameter name, then for its position; the declared
// dependency type after preferences; the declared default; otherwise unresolvable.
type DependencyResolver struct{}

// Resolve classifies every parameter of owner in declaration order.
func (DependencyResolver) Resolve(owner TypeName, params []Parameter, prefs Preferences) ([]Plan, error) {
	plans := make([]Plan, len(params))
	for i, p := range params {
		plans[i] = resolveParameter(owner, p, prefs)
	}
	return plans, nil
}

func resolveParameter(owner TypeName, p Parameter, prefs Preferences) Plan {
	for _, key := range parameterKeys(p) {
		if forced, ok := prefs.ForcedTypeFor(owner, key); ok {
			return NeedsType(prefs.PreferenceFor(owner, forced), p.HasDefault)
		}
		if value, ok := prefs.LiteralParameterFor(owner, key); ok {
			return Literal(value)
		}
	}
	if p.Type != "" {
		return NeedsType(prefs.PreferenceFor(owner, p.Type), p.HasDefault)
	}
	if p.HasDefault {
		return Literal(p.Default)
	}
	return Unresolvable()
}

// parameterKeys lists the lookup keys of a parameter: name first, then position.
func parameterKeys(p Parameter) []string {
	return []string{p.Name, strconv.Itoa(p.Position)}
}
