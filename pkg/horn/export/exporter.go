package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cognicore/horn/pkg/horn/inference"
	"github.com/cognicore/horn/pkg/horn/inference/prologx"
)

// Format selects the rendering of an exported knowledge base.
type Format string

const (
	// FormatKB is the statement-per-line format read by parse.LoadKB.
	FormatKB Format = "kb"
	// FormatProlog is Prolog source with quoted atoms.
	FormatProlog Format = "prolog"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatKB, FormatProlog:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want kb or prolog)", s)
}

// KB is the read side of a knowledge base.
type KB interface {
	Predicates() []string
	Facts(name string) [][]string
	Rules(name string) []inference.Rule
	Derived() []inference.Literal
}

// KBWriter persists an exported knowledge base (file, stdout, etc.).
type KBWriter interface {
	WriteKB(ctx context.Context, content string) error
}

// Exporter renders the facts and rules of a knowledge base, derived facts
// included, so that a later run starts from everything already proven.
type Exporter struct {
	Writer KBWriter
	Format Format
}

func (e *Exporter) Export(ctx context.Context, kb KB) error {
	if e.Writer == nil {
		return fmt.Errorf("kb exporter: nil writer")
	}

	var facts []inference.Literal
	var rules []inference.Rule
	for _, name := range kb.Predicates() {
		for _, tuple := range kb.Facts(name) {
			facts = append(facts, inference.NewLiteral(name, tuple...))
		}
		rules = append(rules, kb.Rules(name)...)
	}

	var content string
	switch e.Format {
	case FormatProlog:
		content = prologx.Program(facts, rules)
	case FormatKB, "":
		content = renderKB(facts, rules, kb.Derived())
	default:
		return fmt.Errorf("kb exporter: unknown format %q", e.Format)
	}
	return e.Writer.WriteKB(ctx, content)
}

func renderKB(facts []inference.Literal, rules []inference.Rule, derived []inference.Literal) string {
	isDerived := make(map[string]struct{}, len(derived))
	for _, d := range derived {
		isDerived[d.String()] = struct{}{}
	}

	var b strings.Builder
	for _, f := range facts {
		if _, ok := isDerived[f.String()]; !ok {
			b.WriteString(f.String() + "\n")
		}
	}
	if len(derived) > 0 {
		b.WriteString("# derived\n")
		for _, d := range derived {
			b.WriteString(d.String() + "\n")
		}
	}
	for _, r := range rules {
		b.WriteString(r.String() + "\n")
	}
	return b.String()
}

// FileWriter writes the export to a file, replacing it.
type FileWriter struct {
	Path string
}

func (w FileWriter) WriteKB(ctx context.Context, content string) error {
	return os.WriteFile(w.Path, []byte(content), 0644)
}

// StreamWriter writes the export to an io.Writer.
type StreamWriter struct {
	W io.Writer
}

func (w StreamWriter) WriteKB(ctx context.Context, content string) error {
	_, err := io.WriteString(w.W, content)
	return err
}
