package prologx

import (
	"context"
	"time"

	"github.com/cognicore/horn/pkg/horn/inference"
)

// Verdict pairs the engine's answer for a query with Prolog's.
type Verdict struct {
	Query     inference.Literal
	Engine    bool
	EngineErr error
	Prolog    bool
	PrologErr error // set when Prolog errored or ran past the timeout
}

// Agree reports whether both sides answered and the answers match.
func (v Verdict) Agree() bool {
	return v.PrologErr == nil && v.Engine == v.Prolog
}

// Compare asks every query of both the engine and the oracle. Each Prolog
// query gets its own timeout since Prolog does not terminate on cyclic rules.
func Compare(ctx context.Context, eng inference.Engine, o *Oracle, queries []inference.Literal, timeout time.Duration) []Verdict {
	out := make([]Verdict, 0, len(queries))
	for _, q := range queries {
		v := Verdict{Query: q}
		v.Engine, v.EngineErr = eng.ProveContext(ctx, q)

		qctx, cancel := context.WithTimeout(ctx, timeout)
		v.Prolog, v.PrologErr = o.Prove(qctx, q)
		cancel()

		out = append(out, v)
	}
	return out
}
