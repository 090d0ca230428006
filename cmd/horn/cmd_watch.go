package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchDebounce collapses the burst of events editors produce on save.
const watchDebounce = 100 * time.Millisecond

// watchCmd re-solves an input file whenever it changes
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-solve an input file whenever it changes",
	Long: `Solves the input file once, then again after every change until
interrupted.

Example:
  horn watch -i input.txt -o output.txt`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&inputPath, "input", "i", "input.txt", "Input file")
	watchCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	out := outputPath
	if out == "" {
		out = cfg.Output.Path
	}

	solve := func() {
		res, err := solveFile(cmd, inputPath, out)
		if err != nil {
			logger.Error("solve failed", zap.String("input", inputPath), zap.Error(err))
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", out, summarize(res))
	}

	solve()
	return watchFile(ctx, inputPath, watchDebounce, solve)
}

// watchFile calls fn after each debounced change to path until ctx is done.
// The parent directory is watched so that editors replacing the file by
// rename are noticed.
func watchFile(ctx context.Context, path string, debounce time.Duration, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("watching", zap.String("path", abs))

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		case <-pending:
			pending = nil
			fn()
		}
	}
}
