// Package report renders query answers, batch test results and run summaries.
package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/store"
)

const (
	True  = "TRUE"
	False = "FALSE"
)

// FormatAnswer renders a single answer.
func FormatAnswer(ok bool) string {
	if ok {
		return True
	}
	return False
}

// WriteAnswers writes one TRUE/FALSE line per answer, each terminated by newline.
func WriteAnswers(w io.Writer, answers []bool, newline string) error {
	bw := bufio.NewWriter(w)
	for _, ok := range answers {
		if _, err := bw.WriteString(FormatAnswer(ok) + newline); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteAnswersFile creates or truncates path and writes the answers to it.
func WriteAnswersFile(path string, answers []bool, newline string) error {
	var buf bytes.Buffer
	if err := WriteAnswers(&buf, answers, newline); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ParseAnswers reads an answer file. Either line ending is accepted and blank
// lines are ignored.
func ParseAnswers(r io.Reader) ([]bool, error) {
	var out []bool
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case True:
			out = append(out, true)
		case False:
			out = append(out, false)
		default:
			return nil, fmt.Errorf("line %d: unexpected answer %q: %w", lineNum, line, internalerr.ErrInvalidInput)
		}
	}
	return out, scanner.Err()
}

// ParseAnswersFile reads an answer file from disk.
func ParseAnswersFile(path string) ([]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseAnswers(f)
}

// TestLine renders one batch result, e.g. "Test 3 : PASSED".
func TestLine(i int, passed bool) string {
	status := "FAILED"
	if passed {
		status = "PASSED"
	}
	return fmt.Sprintf("Test %d : %s", i, status)
}

// Summary aggregates the outcome of one or more runs.
type Summary struct {
	Queries int
	True    int
	Errors  int
	Derived int
	Stats   store.RunStats
	Elapsed time.Duration
}

// Add folds a run into the summary.
func (s *Summary) Add(r store.Run) {
	for _, a := range r.Answers {
		s.Queries++
		if a.Result {
			s.True++
		}
		if a.Err != "" {
			s.Errors++
		}
	}
	s.Derived += len(r.Derived)
	s.Stats.Goals += r.Stats.Goals
	s.Stats.RuleTrials += r.Stats.RuleTrials
	s.Stats.LoopsDetected += r.Stats.LoopsDetected
	s.Stats.DerivedFacts += r.Stats.DerivedFacts
	s.Stats.DepthExceeded += r.Stats.DepthExceeded
	if !r.FinishedAt.IsZero() && r.FinishedAt.After(r.StartedAt) {
		s.Elapsed += r.FinishedAt.Sub(r.StartedAt)
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%s queries (%s true, %s false, %s incomplete), %s goals, %s rule trials, %s loops cut, %s facts derived in %s",
		humanize.Comma(int64(s.Queries)),
		humanize.Comma(int64(s.True)),
		humanize.Comma(int64(s.Queries-s.True)),
		humanize.Comma(int64(s.Errors)),
		humanize.Comma(int64(s.Stats.Goals)),
		humanize.Comma(int64(s.Stats.RuleTrials)),
		humanize.Comma(int64(s.Stats.LoopsDetected)),
		humanize.Comma(int64(s.Derived)),
		s.Elapsed.Round(time.Microsecond),
	)
}

// RunLine renders a run for listings, e.g.
// "01J... input_1.txt 3 queries, 2 true (5 minutes ago)".
func RunLine(r store.Run, now time.Time) string {
	var s Summary
	s.Add(r)
	source := r.Source
	if source == "" {
		source = "-"
	}
	return fmt.Sprintf("%s %s %s queries, %s true (%s)",
		r.ID, source,
		humanize.Comma(int64(s.Queries)),
		humanize.Comma(int64(s.True)),
		humanize.RelTime(r.StartedAt, now, "ago", "from now"),
	)
}

type runJSON struct {
	ID         string         `json:"id"`
	Source     string         `json:"source,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Answers    []answerJSON   `json:"answers"`
	Derived    []string       `json:"derived,omitempty"`
	Stats      store.RunStats `json:"stats"`
}

type answerJSON struct {
	Query  string `json:"query"`
	Result bool   `json:"result"`
	Error  string `json:"error,omitempty"`
}

// WriteRunJSON writes a run as indented JSON.
func WriteRunJSON(w io.Writer, r store.Run) error {
	out := runJSON{
		ID:         r.ID,
		Source:     r.Source,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Answers:    make([]answerJSON, 0, len(r.Answers)),
		Derived:    r.Derived,
		Stats:      r.Stats,
	}
	for _, a := range r.Answers {
		out.Answers = append(out.Answers, answerJSON{Query: a.Query, Result: a.Result, Error: a.Err})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
