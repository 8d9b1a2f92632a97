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
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/gettextcheck/services/gettext/lint"
)

// checkOptions holds flag values for the check command.
type checkOptions struct {
	format   string
	explain  bool
	watch    bool
	debounce time.Duration
	workers  int
}

func newCheckCommand(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Report string literals that need translation",
		Long: `Check Python files for string literals that are not wrapped in a
translation call. Directories are searched recursively for .py and .pyi
files, skipping hidden directories, virtualenvs, caches and any exclude
prefixes from the configuration. Paths default to the current directory.`,
		Example: `  # Check a project
  gettextcheck check .

  # Show why each exempt literal was skipped
  gettextcheck check --explain app/forms.py

  # Machine-readable output
  gettextcheck check --format json src/

  # Re-check on every save
  gettextcheck check --watch .`,
		RunE: root.withTracing(func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, root, opts, args)
		}),
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "Output format: text, json")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Also print exempt literals with the reason")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-check when files change")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 250*time.Millisecond, "Quiet period before re-checking in --watch mode")
	cmd.Flags().IntVarP(&opts.workers, "workers", "j", 0, "Files checked in parallel (0 uses the configured value)")

	return cmd
}

func runCheck(cmd *cobra.Command, root *rootOptions, opts *checkOptions, args []string) error {
	ctx := cmd.Context()

	r, err := newRenderer(cmd.OutOrStdout(), opts.format)
	if err != nil {
		return err
	}

	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}
	run := newCheckRun(ctx, root, opts, r, roots)

	report, err := run()
	if err != nil {
		return err
	}

	if opts.watch {
		slog.Info("watching for changes", slog.Any("paths", roots))
		return watchPaths(ctx, roots, opts.debounce, func(changed []string) {
			slog.Debug("re-checking after change", slog.Int("changed", len(changed)))
			if _, err := run(); err != nil && ctx.Err() == nil {
				slog.Warn("re-check failed", slog.String("error", err.Error()))
			}
		})
	}

	if len(report.Findings) > 0 {
		return errFindings
	}
	return nil
}

// newCheckRun returns a function that checks roots and renders the report.
// Configuration is loaded on every call so override edits apply in watch mode.
func newCheckRun(ctx context.Context, root *rootOptions, opts *checkOptions, r *renderer, roots []string) func() (*lint.Report, error) {
	checkerOpts := []lint.Option{lint.WithExplain(opts.explain)}
	if opts.workers > 0 {
		checkerOpts = append(checkerOpts, lint.WithWorkers(opts.workers))
	}

	return func() (*lint.Report, error) {
		cfg, err := root.loadConfig(ctx)
		if err != nil {
			return nil, err
		}
		checker, err := lint.NewChecker(cfg, checkerOpts...)
		if err != nil {
			return nil, err
		}
		report, err := checker.CheckPaths(ctx, roots)
		if err != nil {
			return nil, err
		}
		return report, r.report(report, opts.explain)
	}
}
