// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// filesCheckedTotal counts checked files.
	// Labels: status (ok, error)
	filesCheckedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gettextcheck",
		Subsystem: "lint",
		Name:      "files_checked_total",
		Help:      "Total source files checked by status",
	}, []string{"status"})

	// findingsTotal counts reported literals.
	findingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gettextcheck",
		Subsystem: "lint",
		Name:      "findings_total",
		Help:      "Total string literals reported as needing translation",
	})

	// fileCheckSeconds measures parse plus classification time per file.
	fileCheckSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gettextcheck",
		Subsystem: "lint",
		Name:      "file_check_seconds",
		Help:      "Time to parse and classify one source file",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

func recordFileChecked(result *FileResult, elapsed time.Duration) {
	status := "ok"
	if result.Error != "" {
		status = "error"
	}
	filesCheckedTotal.WithLabelValues(status).Inc()
	findingsTotal.Add(float64(len(result.Findings)))
	fileCheckSeconds.Observe(elapsed.Seconds())
}
