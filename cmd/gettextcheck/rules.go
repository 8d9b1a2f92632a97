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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/gettextcheck/services/gettext"
	"github.com/AleutianAI/gettextcheck/services/gettext/classify"
)

func newRulesCommand(root *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the classification pipeline",
		Long: `List the translation wrappers, content predicates and structural rules
in the order they are evaluated, after applying configuration.`,
		Args: cobra.NoArgs,
		RunE: root.withTracing(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			r, err := newRenderer(cmd.OutOrStdout(), format)
			if err != nil {
				return err
			}
			cfg, err := root.loadConfig(ctx)
			if err != nil {
				return err
			}
			engine, err := classify.NewEngine(cfg)
			if err != nil {
				return err
			}
			return r.rules(gettext.DescribeRules(engine, cfg.TranslationWrappers))
		}),
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json")
	return cmd
}
