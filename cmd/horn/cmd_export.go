package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/export"
	"github.com/cognicore/horn/pkg/horn/parse"
)

var exportFormat string

// exportCmd writes a knowledge base back out, derived facts included
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the knowledge base of an input file, after solving it",
	Long: `Solves the queries of an input file (or loads a knowledge-base file with
--kb) and writes every fact and rule, including facts derived while solving,
as a knowledge-base file or as Prolog source.

Examples:
  horn export -i input.txt -o kb.txt
  horn export --kb family.txt --format prolog`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file whose queries are solved first")
	exportCmd.Flags().StringVar(&kbPath, "kb", "", "Knowledge-base file")
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file (default stdout)")
	exportCmd.Flags().StringVar(&exportFormat, "format", string(export.FormatKB), "kb or prolog")
	exportCmd.MarkFlagsMutuallyExclusive("input", "kb")
	exportCmd.MarkFlagsOneRequired("input", "kb")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	h, err := newHorn(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	if kbPath != "" {
		prog, err := parse.LoadKB(kbPath)
		if err != nil {
			return err
		}
		h.Load(prog)
	} else {
		prog, err := parse.LoadProgram(inputPath)
		if err != nil {
			return err
		}
		if _, err := h.Solve(ctx, prog, inputPath); err != nil {
			logger.Warn("run not persisted", zap.Error(err))
		}
	}

	var w export.KBWriter = export.StreamWriter{W: cmd.OutOrStdout()}
	if outputPath != "" {
		w = export.FileWriter{Path: outputPath}
	}
	return h.Export(ctx, &export.Exporter{Writer: w, Format: format})
}
