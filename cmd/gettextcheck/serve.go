// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/gettextcheck/services/gettext"
)

const shutdownTimeout = 10 * time.Second

// serveOptions holds flag values for the serve command.
type serveOptions struct {
	addr            string
	rate            float64
	burst           int
	maxRequestBytes int64
	debug           bool
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the checker over HTTP",
		Long: `Start an HTTP server exposing:

  POST /v1/gettext/check   Check one Python source blob
  GET  /v1/gettext/rules   List the classification pipeline
  GET  /v1/gettext/health  Health check
  GET  /metrics            Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: root.withTracing(func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root, opts)
		}),
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "Address to listen on")
	cmd.Flags().Float64Var(&opts.rate, "rate", 50, "Requests per second allowed on /v1 routes (0 disables limiting)")
	cmd.Flags().IntVar(&opts.burst, "burst", 100, "Request burst allowed above --rate")
	cmd.Flags().Int64Var(&opts.maxRequestBytes, "max-request-bytes", gettext.DefaultMaxRequestBytes, "Largest accepted request body")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable gin debug mode and request logging")

	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts *serveOptions) error {
	cfg, err := root.loadConfig(ctx)
	if err != nil {
		return err
	}
	handlers, err := gettext.NewHandlers(cfg, gettext.WithMaxRequestBytes(opts.maxRequestBytes))
	if err != nil {
		return err
	}

	middleware := []gin.HandlerFunc{otelgin.Middleware("gettextcheck")}
	if opts.debug {
		gin.SetMode(gin.DebugMode)
		middleware = append(middleware, gin.Logger())
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gettext.NewRouter(handlers, opts.rate, opts.burst, middleware...)

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting gettextcheck server", slog.String("address", opts.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down gettextcheck server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
