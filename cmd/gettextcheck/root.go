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
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/gettextcheck/services/gettext/config"
)

// errFindings is returned by check when literals need translation. It is
// reported through the exit code only.
var errFindings = errors.New("untranslated strings found")

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	trace      bool

	shutdownTracing func(context.Context) error
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "gettextcheck",
		Short: "Find Python string literals missing a gettext call",
		Long: `gettextcheck reports user-facing string literals in Python code that are
not passed through a translation function such as _() or gettext().

Literals are exempt when their content is not prose (numbers, URLs, paths,
all-caps constants, format-only strings) or when their position in the
code shows they are not user-facing (dict keys, logging calls, model field
options, queryset arguments and similar).

Configuration is read from gettext.config.yaml in the current directory,
or from the file given with --config. Its lists extend the built-in ones.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := setupLogging(cmd.ErrOrStderr(), opts.logLevel); err != nil {
				return err
			}
			if opts.trace {
				shutdown, err := setupTracing(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				opts.shutdownTracing = shutdown
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a configuration override file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&opts.trace, "trace", false, "Print OpenTelemetry spans to stderr")

	cmd.AddCommand(
		newCheckCommand(opts),
		newRulesCommand(opts),
		newServeCommand(opts),
	)
	return cmd
}

// loadConfig returns the effective configuration.
//
// Description:
//
//	With --config the named file must exist. Otherwise the project file
//	in the working directory is applied when present.
func (o *rootOptions) loadConfig(ctx context.Context) (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(ctx, o.configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	return config.LoadProject(ctx, wd)
}

// withTracing wraps a RunE so spans are flushed however the command ends.
func (o *rootOptions) withTracing(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer o.flushTracing()
		return run(cmd, args)
	}
}

// flushTracing stops the tracer provider if --trace installed one.
func (o *rootOptions) flushTracing() {
	if o.shutdownTracing == nil {
		return
	}
	shutdown := o.shutdownTracing
	o.shutdownTracing = nil
	if err := shutdown(context.Background()); err != nil {
		slog.Warn("flushing traces failed", slog.String("error", err.Error()))
	}
}
