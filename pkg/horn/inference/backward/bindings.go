package backward

import (
	"sort"

	"github.com/cognicore/horn/pkg/horn/inference"
)

// validBindings returns every assignment of the rule body's variables under
// which each body literal proves.
//
// Candidate values come from facts and from other rules; they are merged into
// all combinations and each combination is checked against a copy of the body.
// If a combination leaves any body literal with an unbound variable the whole
// search fails and nil is returned.
func (s *search) validBindings(r inference.Rule, depth int) []inference.Binding {
	if s.halted(depth) {
		return nil
	}

	var candidates []inference.Binding
	for _, lit := range r.Body {
		if lit.IsGround() {
			continue
		}
		candidates = append(candidates, s.e.bindingsFromFacts(lit)...)
		candidates = append(candidates, s.bindingsFromRules(lit, depth)...)
	}

	var valid []inference.Binding
	for _, b := range mergeBindings(candidates) {
		good := true
		for _, lit := range r.Body {
			g := lit.Substitute(b)
			if g.HasVariables() {
				return nil
			}
			if !s.prove(g, depth+1) {
				good = false
				break
			}
		}
		if good {
			valid = append(valid, b)
		}
	}
	return valid
}

// bindingsFromFacts binds the literal's variables to the values of each
// matching fact, one binding per fact.
func (e *Engine) bindingsFromFacts(lit inference.Literal) []inference.Binding {
	var out []inference.Binding
	for _, tuple := range e.matchingFacts(lit) {
		b := make(inference.Binding)
		ok := true
		for i, a := range lit.Args {
			if !a.IsVariable() {
				continue
			}
			if prev, bound := b[a.Value]; bound && prev != tuple[i] {
				ok = false
				break
			}
			b[a.Value] = tuple[i]
		}
		if ok && len(b) > 0 {
			out = append(out, b)
		}
	}
	return out
}

// bindingsFromRules asks every rule that could conclude lit for its own valid
// bindings and translates them back to lit's variable names.
func (s *search) bindingsFromRules(lit inference.Literal, depth int) []inference.Binding {
	var out []inference.Binding
	for _, tmpl := range s.e.rules[lit.Name] {
		r := tmpl.Clone()
		if !bindHead(r, lit) {
			continue
		}
		for _, b := range s.validBindings(r, depth+1) {
			if folded, ok := foldHead(lit, r.Head, b); ok && len(folded) > 0 {
				out = append(out, folded)
			}
		}
	}
	return out
}

// foldHead maps a binding over a rule's variables onto the variables of lit,
// position by position through the rule's head.
func foldHead(lit, head inference.Literal, b inference.Binding) (inference.Binding, bool) {
	out := make(inference.Binding)
	for i, a := range lit.Args {
		if !a.IsVariable() {
			continue
		}
		h := head.Args[i]
		val := h.Value
		if h.IsVariable() {
			v, ok := b[h.Value]
			if !ok {
				continue
			}
			val = v
		}
		if prev, bound := out[a.Value]; bound && prev != val {
			return nil, false
		}
		out[a.Value] = val
	}
	return out, true
}

// mergeBindings collects, per variable, the distinct values proposed by any
// candidate and returns their Cartesian product. With no variables the result
// is a single empty binding.
func mergeBindings(candidates []inference.Binding) []inference.Binding {
	values := make(map[string][]string)
	known := make(map[string]map[string]struct{})
	for _, c := range candidates {
		for _, v := range c.Variables() {
			val := c[v]
			if known[v] == nil {
				known[v] = make(map[string]struct{})
			}
			if _, dup := known[v][val]; dup {
				continue
			}
			known[v][val] = struct{}{}
			values[v] = append(values[v], val)
		}
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	out := []inference.Binding{{}}
	for _, name := range names {
		next := make([]inference.Binding, 0, len(out)*len(values[name]))
		for _, partial := range out {
			for _, val := range values[name] {
				b := partial.Clone()
				b[name] = val
				next = append(next, b)
			}
		}
		out = next
	}
	return out
}
