package horn

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/export"
	"github.com/cognicore/horn/pkg/horn/inference"
	"github.com/cognicore/horn/pkg/horn/inference/backward"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/parse"
	"github.com/cognicore/horn/pkg/horn/store"
)

// Horn is the knowledge base facade
type Horn struct {
	mu      sync.Mutex
	eng     *backward.Engine
	store   store.Store
	log     *zap.Logger
	entropy *ulid.MonotonicEntropy
}

// Options configures a Horn instance
type Options struct {
	Store  store.Store // optional; runs are not persisted when nil
	Logger *zap.Logger
	Engine backward.Options
}

// New creates a Horn instance with an empty knowledge base
func New(opts Options) *Horn {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	engOpts := opts.Engine
	if engOpts.Logger == nil {
		engOpts.Logger = log.Named("engine")
	}
	return &Horn{
		eng:     backward.New(engOpts),
		store:   opts.Store,
		log:     log,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Close cleanly shuts down the Horn instance
func (h *Horn) Close() error {
	if h.store == nil {
		return nil
	}
	return h.store.Close()
}

// Load adds the facts and rules of a parsed program. Queries are ignored.
func (h *Horn) Load(p *parse.Program) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, f := range p.Facts {
		h.eng.AddFact(f)
	}
	for _, r := range p.Rules {
		h.eng.AddRule(r)
	}
}

// Tell parses statements and adds them to the knowledge base. Nothing is added
// unless every statement parses.
func (h *Horn) Tell(statements ...string) (int, error) {
	facts := make([]inference.Literal, 0, len(statements))
	var rules []inference.Rule
	for i, s := range statements {
		fact, rule, err := parse.Statement(s)
		if err != nil {
			return 0, fmt.Errorf("statement %d: %w", i+1, err)
		}
		if fact != nil {
			facts = append(facts, *fact)
		} else {
			rules = append(rules, *rule)
		}
	}

	h.Load(&parse.Program{Facts: facts, Rules: rules})
	return len(statements), nil
}

// Answer is the outcome of one query
type Answer struct {
	Query  inference.Literal
	Result bool
	Err    error // non-nil when the answer may be incomplete
}

// Result is the outcome of an Ask call
type Result struct {
	RunID      string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Answers    []Answer
	Derived    []inference.Literal // facts derived while answering
	Stats      backward.Stats      // work done while answering
}

// Bools returns the answers in query order
func (r *Result) Bools() []bool {
	out := make([]bool, len(r.Answers))
	for i, a := range r.Answers {
		out[i] = a.Result
	}
	return out
}

// Run converts the result to its persisted form
func (r *Result) Run() store.Run {
	run := store.Run{
		ID:         r.RunID,
		Source:     r.Source,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Answers:    make([]store.Answer, len(r.Answers)),
		Derived:    make([]string, len(r.Derived)),
		Stats: store.RunStats{
			Goals:         r.Stats.Goals,
			RuleTrials:    r.Stats.RuleTrials,
			LoopsDetected: r.Stats.LoopsDetected,
			DerivedFacts:  r.Stats.DerivedFacts,
			DepthExceeded: r.Stats.DepthExceeded,
		},
	}
	for i, a := range r.Answers {
		run.Answers[i] = store.Answer{Query: a.Query.String(), Result: a.Result}
		if a.Err != nil {
			run.Answers[i].Err = a.Err.Error()
		}
	}
	for i, d := range r.Derived {
		run.Derived[i] = d.String()
	}
	return run
}

// Ask answers queries in order. A failing query is answered false and never
// stops the remaining ones. The run is persisted when a store is configured;
// a store failure is returned together with the complete result.
func (h *Horn) Ask(ctx context.Context, queries []inference.Literal, source string) (*Result, error) {
	h.mu.Lock()
	res := h.ask(ctx, queries, source)
	h.mu.Unlock()

	if h.store == nil {
		return res, nil
	}
	if err := h.store.SaveRun(ctx, res.Run()); err != nil {
		h.log.Error("save run failed", zap.String("run_id", res.RunID), zap.Error(err))
		return res, fmt.Errorf("save run %s: %w: %w", res.RunID, internalerr.ErrStoreUnavailable, err)
	}
	return res, nil
}

func (h *Horn) ask(ctx context.Context, queries []inference.Literal, source string) *Result {
	res := &Result{
		RunID:     ulid.MustNew(ulid.Now(), h.entropy).String(),
		Source:    source,
		StartedAt: time.Now(),
		Answers:   make([]Answer, 0, len(queries)),
	}
	before := h.eng.Stats()
	derivedBefore := len(h.eng.Derived())

	for _, q := range queries {
		ok, err := h.eng.ProveContext(ctx, q)
		if err != nil {
			h.log.Warn("query incomplete", zap.Stringer("query", q), zap.Error(err))
		}
		res.Answers = append(res.Answers, Answer{Query: q, Result: ok, Err: err})
	}

	after := h.eng.Stats()
	res.Stats = backward.Stats{
		Goals:         after.Goals - before.Goals,
		RuleTrials:    after.RuleTrials - before.RuleTrials,
		LoopsDetected: after.LoopsDetected - before.LoopsDetected,
		DerivedFacts:  after.DerivedFacts - before.DerivedFacts,
		DepthExceeded: after.DepthExceeded - before.DepthExceeded,
	}
	res.Derived = h.eng.Derived()[derivedBefore:]
	res.FinishedAt = time.Now()

	h.log.Debug("run finished",
		zap.String("run_id", res.RunID),
		zap.String("source", source),
		zap.Int("queries", len(queries)),
		zap.Int("goals", res.Stats.Goals),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
	)
	return res
}

// Solve loads a program and answers its queries
func (h *Horn) Solve(ctx context.Context, p *parse.Program, source string) (*Result, error) {
	h.Load(p)
	return h.Ask(ctx, p.Queries, source)
}

// Export writes the knowledge base, derived facts included
func (h *Horn) Export(ctx context.Context, e *export.Exporter) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return e.Export(ctx, h.eng)
}

// Predicates lists every predicate known to the knowledge base
func (h *Horn) Predicates() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.eng.Predicates()
}

// Runs returns recent persisted runs, newest first
func (h *Horn) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	if h.store == nil {
		return nil, internalerr.ErrStoreUnavailable
	}
	return h.store.ListRuns(ctx, limit)
}

// Run returns a persisted run by ID
func (h *Horn) Run(ctx context.Context, id string) (store.Run, error) {
	if h.store == nil {
		return store.Run{}, internalerr.ErrStoreUnavailable
	}
	run, found, err := h.store.GetRun(ctx, id)
	if err != nil {
		return store.Run{}, err
	}
	if !found {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return run, nil
}

// IsIncomplete reports whether err marks an answer cut short by the depth
// limit or by cancellation.
func IsIncomplete(err error) bool {
	return errors.Is(err, internalerr.ErrDepthExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
