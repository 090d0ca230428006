// Package batch solves many query files concurrently and checks the answers
// against expected output files.
//
// Inputs are named input_<n>.txt and the matching expectation output_<n>.txt.
// Each input gets its own knowledge base, so files never see each other's
// facts.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/horn/pkg/horn"
	"github.com/cognicore/horn/pkg/horn/inference/backward"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/parse"
	"github.com/cognicore/horn/pkg/horn/report"
	"github.com/cognicore/horn/pkg/horn/store"
)

// DefaultWorkers is used when Runner.Workers is not positive.
const DefaultWorkers = 4

var inputName = regexp.MustCompile(`^input_(\d+)\.txt$`)

// Case is one input file and the file holding its expected answers.
type Case struct {
	N        int
	Input    string
	Expected string
}

// Discover pairs every input_<n>.txt in inputs with output_<n>.txt in
// outputs, ordered by n. The expected file need not exist.
func Discover(inputs, outputs string) ([]Case, error) {
	entries, err := os.ReadDir(inputs)
	if err != nil {
		return nil, err
	}

	var cases []Case
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		m := inputName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		cases = append(cases, Case{
			N:        n,
			Input:    filepath.Join(inputs, e.Name()),
			Expected: filepath.Join(outputs, fmt.Sprintf("output_%d.txt", n)),
		})
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].N < cases[j].N })
	return cases, nil
}

// Outcome is the result of solving one case.
type Outcome struct {
	Case
	RunID    string
	Answers  []bool
	Expected []bool
	Passed   bool
	Err      error // parse, solve or expectation failure

	// StoreErr is set when the run was answered but could not be persisted.
	// It does not affect Passed.
	StoreErr error
}

// Runner solves cases with a bounded number of workers.
type Runner struct {
	Workers int
	Engine  backward.Options
	Store   store.Store // optional, shared by all cases
	Logger  *zap.Logger

	// OutputDir receives the generated answer file of each case as
	// output_<n>.txt when set.
	OutputDir string
	NewLine   string
}

// Run solves every case. Failures of individual cases are reported in their
// outcomes; only cancellation of ctx stops the batch early.
func (r *Runner) Run(ctx context.Context, cases []Case) ([]Outcome, error) {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	outcomes := make([]Outcome, len(cases))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out := r.solve(ctx, c, log)
			if out.Err != nil {
				log.Warn("case failed", zap.Int("case", c.N), zap.String("input", c.Input), zap.Error(out.Err))
			}
			mu.Lock()
			outcomes[i] = out
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (r *Runner) solve(ctx context.Context, c Case, log *zap.Logger) Outcome {
	out := Outcome{Case: c}

	prog, err := parse.LoadProgram(c.Input)
	if err != nil {
		out.Err = err
		return out
	}

	h := horn.New(horn.Options{
		Store:  r.Store,
		Logger: log.With(zap.Int("case", c.N)),
		Engine: r.Engine,
	})
	res, err := h.Solve(ctx, prog, c.Input)
	if res != nil {
		out.RunID = res.RunID
		out.Answers = res.Bools()
	}
	if err != nil {
		if res == nil || !errors.Is(err, internalerr.ErrStoreUnavailable) {
			out.Err = err
			return out
		}
		log.Warn("case answered but not persisted", zap.Int("case", c.N), zap.Error(err))
		out.StoreErr = err
	}

	if r.OutputDir != "" {
		path := filepath.Join(r.OutputDir, fmt.Sprintf("output_%d.txt", c.N))
		if err := report.WriteAnswersFile(path, out.Answers, r.newline()); err != nil {
			out.Err = err
			return out
		}
	}

	out.Expected, err = report.ParseAnswersFile(c.Expected)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("no expected output for case %d: %w", c.N, err)
		}
		out.Err = err
		return out
	}
	out.Passed = slices.Equal(out.Answers, out.Expected)
	return out
}

func (r *Runner) newline() string {
	if r.NewLine == "" {
		return "\r\n"
	}
	return r.NewLine
}

// WriteResults writes one "Test <i> : PASSED|FAILED" line per outcome,
// numbering from 1 in outcome order.
func WriteResults(path string, outcomes []Outcome, newline string) error {
	var sb strings.Builder
	for i, o := range outcomes {
		sb.WriteString(report.TestLine(i+1, o.Passed))
		sb.WriteString(newline)
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// Passed counts the passing outcomes.
func Passed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Passed {
			n++
		}
	}
	return n
}
