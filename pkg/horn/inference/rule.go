package inference

import (
	"sort"
	"strings"
)

// Rule is a conjunction of body literals implying the head.
// Example: "Parent(x,y) ^ Parent(y,z) => Grandparent(x,z)"
type Rule struct {
	Body []Literal // premises
	Head Literal   // conclusion
}

// Name is the head's predicate name; rules are indexed by it.
func (r Rule) Name() string { return r.Head.Name }

// Bind applies BindVariable to the head and every body literal, in place.
func (r Rule) Bind(variable, value string) {
	r.Head.BindVariable(variable, value)
	for _, lit := range r.Body {
		lit.BindVariable(variable, value)
	}
}

// Clone deep-copies the rule so a binding never leaks into the stored template.
func (r Rule) Clone() Rule {
	out := Rule{Head: r.Head.Clone()}
	if r.Body != nil {
		out.Body = make([]Literal, len(r.Body))
		for i, lit := range r.Body {
			out.Body[i] = lit.Clone()
		}
	}
	return out
}

// BodyHasVariables reports whether any body literal still has a variable.
func (r Rule) BodyHasVariables() bool {
	for _, lit := range r.Body {
		if lit.HasVariables() {
			return true
		}
	}
	return false
}

func (r Rule) String() string {
	parts := make([]string, len(r.Body))
	for i, lit := range r.Body {
		parts[i] = lit.String()
	}
	if len(parts) == 0 {
		return "=> " + r.Head.String()
	}
	return strings.Join(parts, " ^ ") + " => " + r.Head.String()
}

// Binding maps variable names to constant values.
type Binding map[string]string

// Clone copies the binding.
func (b Binding) Clone() Binding {
	out := make(Binding, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Variables returns the bound variable names, sorted.
func (b Binding) Variables() []string {
	vars := make([]string, 0, len(b))
	for k := range b {
		vars = append(vars, k)
	}
	sort.Strings(vars)
	return vars
}

func (b Binding) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, v := range b.Variables() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v)
		sb.WriteByte('=')
		sb.WriteString(b[v])
	}
	sb.WriteByte('}')
	return sb.String()
}
