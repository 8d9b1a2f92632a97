// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gettext exposes the missing-translation checker over HTTP.
package gettext

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/gettextcheck/services/gettext/ast"
	"github.com/AleutianAI/gettextcheck/services/gettext/classify"
	"github.com/AleutianAI/gettextcheck/services/gettext/config"
	"github.com/AleutianAI/gettextcheck/services/gettext/lint"
)

const (
	// DefaultMaxRequestBytes bounds the JSON body of a check request.
	DefaultMaxRequestBytes int64 = 32 << 20

	defaultFilePath = "<input>"
)

// Handlers serves the /v1/gettext endpoints.
//
// Thread Safety: Safe for concurrent use. The checker and its frozen rule
// registry are read-only after construction.
type Handlers struct {
	checker         *lint.Checker
	wrappers        []string
	maxRequestBytes int64
}

// HandlerOption configures Handlers.
type HandlerOption func(*Handlers)

// WithMaxRequestBytes overrides DefaultMaxRequestBytes.
func WithMaxRequestBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxRequestBytes = n
		}
	}
}

// NewHandlers builds handlers backed by a checker for cfg.
//
// Inputs:
//
//	cfg - Validated configuration. Must not be nil.
//	opts - Optional settings.
//
// Outputs:
//
//	*Handlers - Ready to register.
//	error - Non-nil if the checker cannot be built.
func NewHandlers(cfg *config.Config, opts ...HandlerOption) (*Handlers, error) {
	if cfg == nil {
		return nil, errors.New("NewHandlers: config must not be nil")
	}
	checker, err := lint.NewChecker(cfg, lint.WithExplain(true))
	if err != nil {
		return nil, fmt.Errorf("NewHandlers: %w", err)
	}
	h := &Handlers{
		checker:         checker,
		wrappers:        slices.Clone(cfg.TranslationWrappers),
		maxRequestBytes: DefaultMaxRequestBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// HandleCheck handles POST /v1/gettext/check.
//
// Description:
//
//	Parses the submitted source and reports every string literal that is
//	neither translated nor exempt. Exempt decisions are included only when
//	the request sets explain.
//
// Response:
//
//	200 OK: CheckResponse
//	400 Bad Request: Malformed JSON or content that is not UTF-8
//	413 Request Entity Too Large: Body or source over the configured limit
//	422 Unprocessable Entity: The parsed tree could not be walked
//	500 Internal Server Error: Unexpected failure
func (h *Handlers) HandleCheck(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCheck")
	start := time.Now()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxRequestBytes)

	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error:     fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
				Code:      "REQUEST_TOO_LARGE",
				RequestID: requestID,
			})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "invalid request body: " + err.Error(),
			Code:      "INVALID_REQUEST",
			RequestID: requestID,
		})
		return
	}
	if req.FilePath == "" {
		req.FilePath = defaultFilePath
	}

	result, err := h.checker.CheckSource(c.Request.Context(), req.FilePath, []byte(req.Content))
	if err != nil {
		status, code := checkErrorStatus(err)
		if status == http.StatusInternalServerError {
			logger.Error("check failed", slog.String("file_path", req.FilePath), slog.String("error", err.Error()))
		} else {
			logger.Debug("check rejected", slog.String("file_path", req.FilePath), slog.String("error", err.Error()))
		}
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code, RequestID: requestID})
		return
	}

	resp := CheckResponse{
		FilePath:        req.FilePath,
		Findings:        result.Findings,
		LiteralsChecked: result.LiteralsChecked,
		SyntaxErrors:    result.SyntaxErrors,
		DurationMs:      time.Since(start).Milliseconds(),
	}
	if req.Explain {
		resp.Exemptions = result.Exemptions
	}

	logger.Debug("check complete",
		slog.String("file_path", req.FilePath),
		slog.Int("literals_checked", resp.LiteralsChecked),
		slog.Int("findings", len(resp.Findings)),
	)
	c.JSON(http.StatusOK, resp)
}

// checkErrorStatus maps checker errors to an HTTP status and error code.
func checkErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ast.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"
	case errors.Is(err, ast.ErrInvalidContent):
		return http.StatusBadRequest, "INVALID_CONTENT"
	case errors.Is(err, classify.ErrMalformedTree):
		return http.StatusUnprocessableEntity, "MALFORMED_TREE"
	default:
		return http.StatusInternalServerError, "CHECK_FAILED"
	}
}

// HandleRules handles GET /v1/gettext/rules.
//
// Response:
//
//	200 OK: RulesResponse
func (h *Handlers) HandleRules(c *gin.Context) {
	c.JSON(http.StatusOK, DescribeRules(h.checker.Engine(), h.wrappers))
}

// DescribeRules lists an engine's pipeline in evaluation order.
func DescribeRules(engine *classify.Engine, wrappers []string) RulesResponse {
	rules := engine.Rules()
	resp := RulesResponse{
		TranslationWrappers: wrappers,
		ContentPredicates:   engine.ContentPredicates(),
		Rules:               make([]RuleInfo, 0, len(rules)),
	}
	for _, r := range rules {
		resp.Rules = append(resp.Rules, RuleInfo{Name: r.Name, Kind: r.Kind.String()})
	}
	return resp
}

// HandleHealth handles GET /v1/gettext/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
		Rules:  len(h.checker.Engine().Rules()),
	})
}
