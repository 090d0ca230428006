package inference

import "context"

// Engine answers yes/no queries over a knowledge base of facts and Horn rules.
// This interface allows swapping implementations (the backward chainer, a Prolog bridge, etc.)
type Engine interface {
	// AddFact adds a fact to the knowledge base
	// Example: AddFact(Parent(Tom,Bob))
	AddFact(fact Literal)

	// AddRule adds a rule; several rules may share a head name
	// Example: AddRule(Parent(x,y) => Ancestor(x,y))
	AddRule(rule Rule)

	// Prove reports whether the query can be derived from the facts and rules
	Prove(query Literal) bool

	// ProveContext is Prove with cancellation. The returned error explains
	// a false answer that may be incomplete (cancelled or cut off).
	ProveContext(ctx context.Context, query Literal) (bool, error)
}
