// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command gettextcheck reports Python string literals that should be
// wrapped in a gettext translation call.
//
// Usage:
//
//	gettextcheck check ./myproject
//	gettextcheck check --format json --explain app/views.py
//	gettextcheck check --watch .
//	gettextcheck rules
//	gettextcheck serve --addr :8080
//
// Exit codes:
//
//	0 - No findings
//	1 - At least one literal needs translation
//	2 - Usage, configuration, or I/O error
//
// Example requests against serve:
//
//	curl -X POST http://localhost:8080/v1/gettext/check \
//	  -H "Content-Type: application/json" \
//	  -d '{"file_path": "views.py", "content": "title = \"Dashboard\"\n"}'
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFindings):
		return 1
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	}
}
