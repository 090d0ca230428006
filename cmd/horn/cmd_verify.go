package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/horn/pkg/horn/inference/backward"
	"github.com/cognicore/horn/pkg/horn/inference/prologx"
	"github.com/cognicore/horn/pkg/horn/parse"
	"github.com/cognicore/horn/pkg/horn/report"
)

// verifyCmd cross-checks answers with a Prolog interpreter
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare the engine's answers with a Prolog interpreter",
	Long: `Loads an input file into both the backward-chaining engine and a Prolog
interpreter and reports every query on which they disagree.

Prolog does not terminate on cyclic rules, so each Prolog query is bounded by
verify.timeout; queries that time out are reported as unknown, not as
disagreements.

Example:
  horn verify -i input.txt`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&inputPath, "input", "i", "input.txt", "Input file")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	prog, err := parse.LoadProgram(inputPath)
	if err != nil {
		return err
	}

	eng := backward.New(engineOptions())
	for _, f := range prog.Facts {
		eng.AddFact(f)
	}
	for _, r := range prog.Rules {
		eng.AddRule(r)
	}

	oracle, err := prologx.Load(prog.Facts, prog.Rules)
	if err != nil {
		return err
	}

	verdicts := prologx.Compare(ctx, eng, oracle, prog.Queries, cfg.Verify.Timeout)

	w := cmd.OutOrStdout()
	disagree := 0
	for _, v := range verdicts {
		status := "ok"
		switch {
		case v.PrologErr != nil:
			status = fmt.Sprintf("unknown (%v)", v.PrologErr)
		case !v.Agree():
			status = "MISMATCH"
			disagree++
		}
		fmt.Fprintf(w, "%s engine=%s prolog=%s %s\n",
			v.Query, report.FormatAnswer(v.Engine), report.FormatAnswer(v.Prolog), status)
	}

	if disagree > 0 {
		return fmt.Errorf("%d of %d answers disagree", disagree, len(verdicts))
	}
	return nil
}
