// Package backward implements a backward-chaining inference engine over
// ground facts and Horn rules.
//
// Queries are proven by matching them against stored facts and, failing that,
// against the heads of rules whose bodies are then proven recursively. Rule
// bodies with unbound variables are resolved by enumerating candidate bindings
// drawn from facts and from other rules, merging them into every combination
// and keeping the combinations under which each body literal proves.
package backward

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/inference"
)

// DefaultMaxDepth bounds the proof search when Options.MaxDepth is zero.
// Each rule application nests one level, so ground chains far longer than
// any hand-written knowledge base still prove; only recursion through
// unbound variables is expected to reach it.
const DefaultMaxDepth = 10000

// Options configures an Engine.
type Options struct {
	// MaxDepth limits how deeply goals and binding searches may nest.
	// Zero selects DefaultMaxDepth; a negative value disables the limit.
	MaxDepth int

	Logger *zap.Logger
}

// Stats counts work done by an engine over its lifetime.
type Stats struct {
	Goals         int
	RuleTrials    int
	LoopsDetected int
	DerivedFacts  int
	DepthExceeded int
}

// Engine is a knowledge base of facts and rules with a backward-chaining solver.
// It is not safe for concurrent use.
type Engine struct {
	facts     map[string][][]string          // name → argument tuples
	factIndex map[string]map[string]struct{} // name → tuple keys
	rules     map[string][]inference.Rule    // head name → rules, in insertion order
	seen      map[string][]inference.Rule    // ground rule instances tried by the current query
	derived   []inference.Literal

	maxDepth int
	log      *zap.Logger
	stats    Stats
}

var _ inference.Engine = (*Engine)(nil)

// New creates an empty engine. An optional Options value can be passed;
// if omitted the defaults apply.
func New(opts ...Options) *Engine {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	maxDepth := o.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		facts:     make(map[string][][]string),
		factIndex: make(map[string]map[string]struct{}),
		rules:     make(map[string][]inference.Rule),
		seen:      make(map[string][]inference.Rule),
		maxDepth:  maxDepth,
		log:       log,
	}
}

// AddFact adds a fact to the knowledge base.
// A fact with variables is universally quantified and is stored as a rule
// with an empty body.
func (e *Engine) AddFact(fact inference.Literal) {
	if fact.HasVariables() {
		e.AddRule(inference.Rule{Head: fact.Clone()})
		return
	}
	e.insertFact(fact)
}

// AddRule adds a rule, indexed by its head name.
func (e *Engine) AddRule(rule inference.Rule) {
	name := rule.Name()
	e.rules[name] = append(e.rules[name], rule.Clone())
}

// insertFact stores a ground literal and reports whether it was new.
func (e *Engine) insertFact(fact inference.Literal) bool {
	values := fact.Values()
	key := tupleKey(values)

	idx := e.factIndex[fact.Name]
	if idx == nil {
		idx = make(map[string]struct{})
		e.factIndex[fact.Name] = idx
	}
	if _, ok := idx[key]; ok {
		return false
	}
	idx[key] = struct{}{}
	e.facts[fact.Name] = append(e.facts[fact.Name], values)
	return true
}

// derive memoizes a proven ground literal as a fact.
func (e *Engine) derive(lit inference.Literal) {
	if lit.HasVariables() {
		return
	}
	if e.insertFact(lit) {
		e.derived = append(e.derived, lit.Clone())
		e.stats.DerivedFacts++
	}
}

// hasFact reports whether the ground literal is stored exactly.
func (e *Engine) hasFact(q inference.Literal) bool {
	_, ok := e.factIndex[q.Name][tupleKey(q.Values())]
	return ok
}

// matchingFacts returns the stored tuples of the literal's name and arity
// that agree with the literal at every constant position.
func (e *Engine) matchingFacts(lit inference.Literal) [][]string {
	var out [][]string
	for _, tuple := range e.facts[lit.Name] {
		if len(tuple) != len(lit.Args) {
			continue
		}
		ok := true
		for i, a := range lit.Args {
			if !a.IsVariable() && tuple[i] != a.Value {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, tuple)
		}
	}
	return out
}

// Facts returns the argument tuples stored under name, including derived ones.
func (e *Engine) Facts(name string) [][]string {
	src := e.facts[name]
	out := make([][]string, len(src))
	for i, tuple := range src {
		out[i] = append([]string(nil), tuple...)
	}
	return out
}

// Rules returns copies of the rules whose head is name.
func (e *Engine) Rules(name string) []inference.Rule {
	src := e.rules[name]
	out := make([]inference.Rule, len(src))
	for i, r := range src {
		out[i] = r.Clone()
	}
	return out
}

// Derived returns the facts added while solving, in derivation order.
func (e *Engine) Derived() []inference.Literal {
	out := make([]inference.Literal, len(e.derived))
	for i, lit := range e.derived {
		out[i] = lit.Clone()
	}
	return out
}

// Predicates lists every name that has facts or rules, sorted.
func (e *Engine) Predicates() []string {
	set := make(map[string]struct{}, len(e.facts)+len(e.rules))
	for name := range e.facts {
		set[name] = struct{}{}
	}
	for name := range e.rules {
		set[name] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Stats returns the engine's counters.
func (e *Engine) Stats() Stats { return e.stats }

func tupleKey(values []string) string {
	return strings.Join(values, "\x1f")
}
