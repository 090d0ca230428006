package backward

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/inference"
	"github.com/cognicore/horn/pkg/horn/internalerr"
)

// search carries the state of one top-level query.
type search struct {
	e   *Engine
	ctx context.Context
	err error
	cut bool // some branch hit the depth limit
}

// Prove reports whether query is derivable. Only ground queries are meaningful;
// anything unresolvable is simply false.
func (e *Engine) Prove(query inference.Literal) bool {
	ok, _ := e.ProveContext(context.Background(), query)
	return ok
}

// ProveContext proves query, stopping early if ctx is done.
// A true answer is always returned with a nil error. A false answer comes with
// ctx.Err() if the search was cancelled, or ErrDepthExceeded if a branch was
// cut off by the depth limit and the answer may therefore be incomplete.
func (e *Engine) ProveContext(ctx context.Context, query inference.Literal) (bool, error) {
	e.seen = make(map[string][]inference.Rule)

	s := &search{e: e, ctx: ctx}
	if s.prove(query.Clone(), 0) {
		return true, nil
	}
	if s.err != nil {
		return false, s.err
	}
	if s.cut {
		return false, fmt.Errorf("prove %s: %w", query, internalerr.ErrDepthExceeded)
	}
	return false, nil
}

// halted reports whether the branch at depth must stop.
func (s *search) halted(depth int) bool {
	if s.err != nil {
		return true
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return true
	}
	if s.e.maxDepth > 0 && depth > s.e.maxDepth {
		if !s.cut {
			s.e.log.Debug("proof depth limit reached", zap.Int("max_depth", s.e.maxDepth))
		}
		s.cut = true
		s.e.stats.DepthExceeded++
		return true
	}
	return false
}

// prove resolves a goal against the facts and then against every rule whose
// head shares its name.
func (s *search) prove(q inference.Literal, depth int) bool {
	if s.halted(depth) {
		return false
	}
	s.e.stats.Goals++

	if q.IsGround() && s.e.hasFact(q) {
		return true
	}

	rules := s.e.rules[q.Name]
	if len(rules) == 0 {
		return false
	}

	for _, tmpl := range rules {
		r := tmpl.Clone()
		if !bindHead(r, q) {
			continue
		}
		s.e.stats.RuleTrials++
		if s.evalRule(r, depth+1) {
			s.e.derive(q)
			return true
		}
	}
	return false
}

// bindHead binds each head variable to the query constant at the same
// position, propagating into the body, and reports whether the head still
// agrees with the query.
func bindHead(r inference.Rule, q inference.Literal) bool {
	if len(r.Head.Args) != len(q.Args) {
		return false
	}
	for i, a := range q.Args {
		if h := r.Head.Args[i]; h.IsVariable() && !a.IsVariable() {
			r.Bind(h.Value, a.Value)
		}
	}
	for i, a := range q.Args {
		if h := r.Head.Args[i]; !h.IsVariable() && !a.IsVariable() && h.Value != a.Value {
			return false
		}
	}
	return true
}

// evalRule decides whether a (partially bound) rule copy holds.
func (s *search) evalRule(r inference.Rule, depth int) bool {
	if s.halted(depth) {
		return false
	}

	// A ground head that was already attempted during this query would recurse forever.
	if r.Head.IsGround() {
		if s.e.seenBefore(r) {
			s.e.stats.LoopsDetected++
			s.e.log.Debug("loop detected", zap.Stringer("rule", r))
			return false
		}
		s.e.seen[r.Name()] = append(s.e.seen[r.Name()], r)
	}

	if r.BodyHasVariables() {
		bindings := s.validBindings(r, depth)
		if len(bindings) == 0 {
			return false
		}
		if r.Head.HasVariables() {
			for _, b := range bindings {
				s.e.derive(r.Head.Substitute(b))
			}
		}
		return true
	}

	for _, lit := range r.Body {
		if !s.prove(lit, depth) {
			return false
		}
	}
	return true
}

// seenBefore reports whether an equivalent ground rule instance was recorded.
func (e *Engine) seenBefore(r inference.Rule) bool {
	for _, old := range e.seen[r.Name()] {
		if sameInstance(old, r) {
			return true
		}
	}
	return false
}

// sameInstance compares name, head arguments, and the names of the body
// literals in order. Body arguments are deliberately not compared.
func sameInstance(a, b inference.Rule) bool {
	if a.Name() != b.Name() || !a.Head.Equal(b.Head) {
		return false
	}
	if len(a.Body) != len(b.Body) {
		return false
	}
	for i := range a.Body {
		if a.Body[i].Name != b.Body[i].Name {
			return false
		}
	}
	return true
}
