// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Classification
// =============================================================================

var (
	// decisionsTotal counts classified literals.
	// Labels: verdict (exempt, needs_translation), stage (content, wrapper,
	// structure, none), reason (predicate, wrapper or rule name)
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gettextcheck",
		Subsystem: "classify",
		Name:      "decisions_total",
		Help:      "Total classified string literals by verdict, stage and reason",
	}, []string{"verdict", "stage", "reason"})

	// rulePanicsTotal counts structural rules that panicked and were
	// treated as no match.
	// Labels: rule
	rulePanicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gettextcheck",
		Subsystem: "classify",
		Name:      "rule_panics_total",
		Help:      "Total recovered panics in structural rules",
	}, []string{"rule"})

	// malformedTreesTotal counts literals whose ancestor chain was too long.
	malformedTreesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gettextcheck",
		Subsystem: "classify",
		Name:      "malformed_trees_total",
		Help:      "Total literals rejected because their ancestor chain exceeded the limit",
	})
)

func recordDecision(d Decision) {
	decisionsTotal.WithLabelValues(d.Verdict.String(), d.Stage.String(), d.Reason).Inc()
}
