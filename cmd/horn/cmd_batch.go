package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/batch"
	"github.com/cognicore/horn/pkg/horn/report"
)

var (
	batchInputs  string
	batchOutputs string
	batchResults string
	batchWrite   string
	batchWorkers int
)

// batchCmd runs every input file of a directory and checks the answers
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Solve every input_<n>.txt and compare with output_<n>.txt",
	Long: `Solves each input_<n>.txt in the inputs directory with its own knowledge
base, compares the answers with output_<n>.txt in the outputs directory and
writes one "Test <i> : PASSED|FAILED" line per input to the results file.

Example:
  horn batch --inputs tests/inputs --outputs tests/outputs`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchInputs, "inputs", "tests/inputs", "Directory of input_<n>.txt files")
	batchCmd.Flags().StringVar(&batchOutputs, "outputs", "tests/outputs", "Directory of expected output_<n>.txt files")
	batchCmd.Flags().StringVar(&batchResults, "results", "test-results", "Results file")
	batchCmd.Flags().StringVar(&batchWrite, "write-dir", "", "Also write generated answers to this directory")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Concurrent files (default from config)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	cases, err := batch.Discover(batchInputs, batchOutputs)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("no input_<n>.txt files in %s", batchInputs)
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	workers := batchWorkers
	if workers <= 0 {
		workers = cfg.Batch.Workers
	}
	runner := &batch.Runner{
		Workers:   workers,
		Engine:    engineOptions(),
		Store:     st,
		Logger:    logger,
		OutputDir: batchWrite,
		NewLine:   cfg.NewLine(),
	}

	outcomes, err := runner.Run(ctx, cases)
	if err != nil {
		return err
	}
	if err := batch.WriteResults(batchResults, outcomes, cfg.NewLine()); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for i, o := range outcomes {
		line := report.TestLine(i+1, o.Passed)
		if o.Err != nil {
			line += fmt.Sprintf(" (%v)", o.Err)
		}
		fmt.Fprintln(w, line)
	}

	passed := batch.Passed(outcomes)
	logger.Info("batch finished",
		zap.Int("cases", len(outcomes)),
		zap.Int("passed", passed),
		zap.String("results", batchResults),
	)
	if passed != len(outcomes) {
		return fmt.Errorf("%d of %d tests failed", len(outcomes)-passed, len(outcomes))
	}
	return nil
}
