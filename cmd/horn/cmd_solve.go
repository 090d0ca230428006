package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn"
	"github.com/cognicore/horn/pkg/horn/inference"
	"github.com/cognicore/horn/pkg/horn/parse"
	"github.com/cognicore/horn/pkg/horn/report"
)

var (
	inputPath  string
	outputPath string
	kbPath     string
)

// solveCmd answers the queries of an input file
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Answer the queries of an input file",
	Long: `Reads an input file, answers each query and writes one TRUE or FALSE
line per query to the output file.

Example:
  horn solve -i input.txt -o output.txt`,
	Args: cobra.NoArgs,
	RunE: runSolve,
}

// askCmd answers ad-hoc queries against a knowledge-base file
var askCmd = &cobra.Command{
	Use:   "ask QUERY...",
	Short: "Answer queries against a knowledge-base file",
	Long: `Loads a knowledge-base file (one fact or rule per line, # comments)
and prints the answer to each query given on the command line.

Example:
  horn ask --kb family.txt 'Grandparent(Tom,Ann)' 'Ancestor(Ann,Tom)'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	solveCmd.Flags().StringVarP(&inputPath, "input", "i", "input.txt", "Input file")
	solveCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default from config)")

	askCmd.Flags().StringVar(&kbPath, "kb", "", "Knowledge-base file (required)")
	askCmd.MarkFlagRequired("kb")
}

func runSolve(cmd *cobra.Command, args []string) error {
	out := outputPath
	if out == "" {
		out = cfg.Output.Path
	}

	res, err := solveFile(cmd, inputPath, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", out, summarize(res))
	return nil
}

// solveFile answers inputPath into out and returns the run.
func solveFile(cmd *cobra.Command, in, out string) (*horn.Result, error) {
	ctx := commandContext(cmd)

	prog, err := parse.LoadProgram(in)
	if err != nil {
		return nil, err
	}

	h, err := newHorn(ctx)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	res, err := h.Solve(ctx, prog, in)
	if err != nil {
		logger.Warn("run not persisted", zap.Error(err))
	}
	if err := report.WriteAnswersFile(out, res.Bools(), cfg.NewLine()); err != nil {
		return nil, fmt.Errorf("write answers: %w", err)
	}
	logger.Info("solved",
		zap.String("input", in),
		zap.String("output", out),
		zap.String("run_id", res.RunID),
		zap.Int("queries", len(res.Answers)),
	)
	return res, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	prog, err := parse.LoadKB(kbPath)
	if err != nil {
		return err
	}

	queries := make([]inference.Literal, len(args))
	for i, a := range args {
		q, err := parse.Literal(a)
		if err != nil {
			return fmt.Errorf("query %q: %w", a, err)
		}
		queries[i] = q
	}

	h, err := newHorn(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	h.Load(prog)
	res, err := h.Ask(ctx, queries, kbPath)
	if err != nil {
		logger.Warn("run not persisted", zap.Error(err))
	}

	w := cmd.OutOrStdout()
	for _, a := range res.Answers {
		if a.Err != nil {
			fmt.Fprintf(w, "%s %s (%v)\n", a.Query, report.FormatAnswer(a.Result), a.Err)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", a.Query, report.FormatAnswer(a.Result))
	}
	return nil
}

func summarize(res *horn.Result) string {
	var s report.Summary
	s.Add(res.Run())
	return s.String()
}
