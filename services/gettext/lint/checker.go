// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lint drives classification over Python source files.
package lint

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/gettextcheck/services/gettext/ast"
	"github.com/AleutianAI/gettextcheck/services/gettext/classify"
	"github.com/AleutianAI/gettextcheck/services/gettext/config"
)

var lintTracer = otel.Tracer("gettextcheck.lint")

// FileResult is the outcome of checking one file.
type FileResult struct {
	Path            string      `json:"path"`
	Findings        []Finding   `json:"findings"`
	Exemptions      []Exemption `json:"exemptions,omitempty"`
	LiteralsChecked int         `json:"literals_checked"`

	// SyntaxErrors is true when the parser recovered from errors. Findings
	// are still reported for the parts it could read.
	SyntaxErrors bool `json:"syntax_errors,omitempty"`

	// Error is set when the file could not be checked at all.
	Error string `json:"error,omitempty"`
}

// Report aggregates the results of a multi-file check.
type Report struct {
	Files           []*FileResult `json:"files"`
	Findings        []Finding     `json:"findings"`
	FilesChecked    int           `json:"files_checked"`
	FilesFailed     int           `json:"files_failed"`
	LiteralsChecked int           `json:"literals_checked"`
	Duration        time.Duration `json:"duration_ns"`
}

// Option configures a Checker.
type Option func(*Checker)

// WithExplain makes the checker record exempt decisions as well as findings.
func WithExplain(explain bool) Option {
	return func(c *Checker) {
		c.explain = explain
	}
}

// WithWorkers bounds concurrent file checks. Values below 1 mean one
// worker per CPU.
func WithWorkers(n int) Option {
	return func(c *Checker) {
		c.workers = n
	}
}

// Checker parses files and classifies every string literal in them.
//
// Description:
//
//	Each file is parsed into the syntax model, every literal is visited
//	depth-first in source order, and the engine decides its verdict.
//	Literals that need translation become findings.
//
// Thread Safety: Safe for concurrent use. Each call parses with its own
// tree-sitter parser.
type Checker struct {
	engine     *classify.Engine
	parser     *ast.PythonParser
	extensions []string
	exclude    []string
	explain    bool
	workers    int
}

// NewChecker builds a checker from configuration.
//
// Inputs:
//
//	cfg - Validated configuration. Must not be nil.
//	opts - Optional settings.
//
// Outputs:
//
//	*Checker - Ready for use.
//	error - Non-nil if the engine cannot be built from cfg.
func NewChecker(cfg *config.Config, opts ...Option) (*Checker, error) {
	engine, err := classify.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("NewChecker: %w", err)
	}

	parser := ast.NewPythonParser(
		ast.WithPythonMaxFileSize(cfg.Limits.MaxFileSize),
	)
	c := &Checker{
		engine:     engine,
		parser:     parser,
		extensions: parser.Extensions(),
		exclude:    cfg.Exclude,
		workers:    cfg.Limits.Workers,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	return c, nil
}

// Engine returns the classification engine.
func (c *Checker) Engine() *classify.Engine {
	return c.engine
}

// CheckSource classifies every literal of one in-memory source file.
//
// Inputs:
//
//	ctx - Context for cancellation and tracing.
//	path - Path recorded in locations. Need not exist.
//	content - The source bytes.
//
// Outputs:
//
//	*FileResult - Findings in source order.
//	error - Non-nil if the source cannot be parsed or its tree is malformed.
func (c *Checker) CheckSource(ctx context.Context, path string, content []byte) (*FileResult, error) {
	ctx, span := lintTracer.Start(ctx, "lint.Checker.CheckSource",
		trace.WithAttributes(
			attribute.String("path", path),
			attribute.Int("size", len(content)),
		),
	)
	defer span.End()

	tree, err := c.parser.Parse(ctx, content, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	result := &FileResult{
		Path:         path,
		Findings:     []Finding{},
		SyntaxErrors: len(tree.Errors) > 0,
	}
	if result.SyntaxErrors {
		slog.Debug("source has syntax errors, checking recovered tree",
			slog.String("path", path),
			slog.Int("errors", len(tree.Errors)),
		)
	}

	for _, lit := range ast.TextLiterals(tree.Root) {
		d, ok, err := c.engine.Classify(lit)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "classification failed")
			return nil, fmt.Errorf("checking %s: %w", path, err)
		}
		if !ok {
			continue
		}
		result.LiteralsChecked++

		if d.Exempt() {
			if c.explain {
				result.Exemptions = append(result.Exemptions, Exemption{
					Text:     lit.Value,
					Location: lit.Location,
					Decision: d,
				})
			}
			continue
		}
		result.Findings = append(result.Findings, newFinding(lit))
	}

	span.SetAttributes(
		attribute.Int("literals_checked", result.LiteralsChecked),
		attribute.Int("findings", len(result.Findings)),
	)
	return result, nil
}

// CheckFile reads and checks one file.
func (c *Checker) CheckFile(ctx context.Context, path string) (*FileResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return c.CheckSource(ctx, path, content)
}

// CheckFiles checks files concurrently.
//
// Description:
//
//	Runs up to the configured number of workers. A file that cannot be
//	checked is recorded with its error and does not stop the others. The
//	report lists files in input order and findings sorted by location.
//
// Outputs:
//
//	*Report - The aggregated results.
//	error - Non-nil only when ctx is canceled.
func (c *Checker) CheckFiles(ctx context.Context, paths []string) (*Report, error) {
	ctx, span := lintTracer.Start(ctx, "lint.Checker.CheckFiles",
		trace.WithAttributes(
			attribute.Int("files", len(paths)),
			attribute.Int("workers", c.workers),
		),
	)
	defer span.End()

	start := time.Now()
	results := make([]*FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fileStart := time.Now()
			result, err := c.CheckFile(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("file check failed",
					slog.String("path", path),
					slog.String("error", err.Error()),
				)
				result = &FileResult{Path: path, Findings: []Finding{}, Error: err.Error()}
			}
			recordFileChecked(result, time.Since(fileStart))
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("CheckFiles: %w", err)
	}

	report := &Report{Files: results, Findings: []Finding{}}
	for _, r := range results {
		report.FilesChecked++
		if r.Error != "" {
			report.FilesFailed++
		}
		report.LiteralsChecked += r.LiteralsChecked
		report.Findings = append(report.Findings, r.Findings...)
	}
	sortFindings(report.Findings)
	report.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("findings", len(report.Findings)),
		attribute.Int("files_failed", report.FilesFailed),
	)
	return report, nil
}

// CheckPaths discovers source files under roots and checks them.
func (c *Checker) CheckPaths(ctx context.Context, roots []string) (*Report, error) {
	files, err := Discover(roots, c.extensions, c.exclude)
	if err != nil {
		return nil, err
	}
	slog.Debug("discovered source files", slog.Int("files", len(files)))
	return c.CheckFiles(ctx, files)
}
