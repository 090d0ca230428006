package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cognicore/horn/pkg/horn/internalerr"
)

// Store persists query runs and the facts they derived
type Store interface {
	Close() error

	// SaveRun inserts or replaces a run, keyed by ID. A run without an ID is
	// rejected with internalerr.ErrInvalidInput.
	SaveRun(ctx context.Context, r Run) error

	// GetRun returns the run with the given ID; found is false when it does not exist
	GetRun(ctx context.Context, id string) (r Run, found bool, err error)

	// ListRuns returns up to limit runs, newest first
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// Run is one batch of queries answered against a knowledge base
type Run struct {
	ID         string // ULID
	Source     string // input file or client description
	StartedAt  time.Time
	FinishedAt time.Time
	Answers    []Answer
	Derived    []string // facts added while solving, e.g. "Ancestor(Tom,Bob)"
	Stats      RunStats
}

// Answer is the outcome of a single query
type Answer struct {
	Query  string
	Result bool
	Err    string // non-empty when the answer may be incomplete
}

// RunStats mirrors the engine counters for a run
type RunStats struct {
	Goals         int
	RuleTrials    int
	LoopsDetected int
	DerivedFacts  int
	DepthExceeded int
}

// DefaultListLimit applies when ListRuns is called with a non-positive limit
const DefaultListLimit = 20

// Validate checks that a run can be saved
func (r Run) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("run has no id: %w", internalerr.ErrInvalidInput)
	}
	return nil
}
