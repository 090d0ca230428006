package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/parse"
	"github.com/cognicore/horn/pkg/horn/server"
)

var serveAddr string

// serveCmd exposes a knowledge base over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a knowledge base over an HTTP JSON API",
	Long: `Starts an HTTP server holding one knowledge base.

Endpoints:
  POST /v1/statements  {"statements": ["Parent(Tom,Bob)", "Parent(x,y) => Ancestor(x,y)"]}
  POST /v1/ask         {"queries": ["Ancestor(Tom,Bob)"]}
  GET  /v1/runs        recent runs (?limit=n)
  GET  /v1/runs/:id    one run
  GET  /v1/predicates  known predicates
  GET  /healthz`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&kbPath, "kb", "", "Knowledge-base file to preload")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
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
		logger.Info("knowledge base loaded",
			zap.String("path", kbPath),
			zap.Int("facts", len(prog.Facts)),
			zap.Int("rules", len(prog.Rules)),
		)
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewServer(h, logger.Named("http")).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
