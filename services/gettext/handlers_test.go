// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gettext

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/gettextcheck/services/gettext/classify"
	"github.com/AleutianAI/gettextcheck/services/gettext/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestRouter builds a router over default configuration with rate
// limiting disabled.
func setupTestRouter(t *testing.T, opts ...HandlerOption) *gin.Engine {
	t.Helper()
	cfg, err := config.Default(context.Background())
	require.NoError(t, err)
	handlers, err := NewHandlers(cfg, opts...)
	require.NoError(t, err)
	return NewRouter(handlers, 0, 0)
}

func postCheck(t *testing.T, router http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/gettext/check", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleCheck_Success(t *testing.T) {
	router := setupTestRouter(t)

	w := postCheck(t, router, CheckRequest{
		FilePath: "app/views.py",
		Content:  "title = \"Dashboard\"\nlabel = _(\"Name\")\n",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "app/views.py", resp.FilePath)
	assert.Equal(t, 2, resp.LiteralsChecked)
	assert.False(t, resp.SyntaxErrors)
	assert.Empty(t, resp.Exemptions)

	require.Len(t, resp.Findings, 1)
	f := resp.Findings[0]
	assert.Equal(t, "Dashboard", f.Text)
	assert.Equal(t, "W9903", f.MessageID)
	assert.Equal(t, "missing-gettext", f.Symbol)
	assert.Equal(t, "app/views.py", f.Location.FilePath)
	assert.Equal(t, 1, f.Location.StartLine)
}

func TestHandleCheck_Explain(t *testing.T) {
	router := setupTestRouter(t)

	w := postCheck(t, router, CheckRequest{
		Content: "label = _(\"Name\")\n",
		Explain: true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var raw struct {
		FilePath   string `json:"file_path"`
		Exemptions []struct {
			Text     string `json:"text"`
			Decision struct {
				Verdict string `json:"verdict"`
				Stage   string `json:"stage"`
				Reason  string `json:"reason"`
			} `json:"decision"`
		} `json:"exemptions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, "<input>", raw.FilePath)
	require.Len(t, raw.Exemptions, 1)
	assert.Equal(t, "Name", raw.Exemptions[0].Text)
	assert.Equal(t, "exempt", raw.Exemptions[0].Decision.Verdict)
	assert.Equal(t, "wrapper", raw.Exemptions[0].Decision.Stage)
	assert.Equal(t, "_", raw.Exemptions[0].Decision.Reason)
}

func TestHandleCheck_Errors(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		router := setupTestRouter(t)
		w := postCheck(t, router, "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "INVALID_REQUEST", resp.Code)
		assert.NotEmpty(t, resp.RequestID)
	})

	t.Run("body too large", func(t *testing.T) {
		router := setupTestRouter(t, WithMaxRequestBytes(64))
		w := postCheck(t, router, CheckRequest{Content: strings.Repeat("x = 1\n", 100)})
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "REQUEST_TOO_LARGE", resp.Code)
	})

	t.Run("source too large", func(t *testing.T) {
		cfg, err := config.Default(context.Background())
		require.NoError(t, err)
		cfg.Limits.MaxFileSize = 8
		handlers, err := NewHandlers(cfg)
		require.NoError(t, err)
		router := NewRouter(handlers, 0, 0)

		w := postCheck(t, router, CheckRequest{Content: "message = \"far too long\"\n"})
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "FILE_TOO_LARGE", resp.Code)
	})
}

func TestCheckErrorStatus(t *testing.T) {
	status, code := checkErrorStatus(classify.ErrMalformedTree)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "MALFORMED_TREE", code)

	status, code = checkErrorStatus(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "CHECK_FAILED", code)
}

func TestHandleRules(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/gettext/rules", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp RulesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.TranslationWrappers, "_")
	assert.Len(t, resp.ContentPredicates, 10)
	assert.Equal(t, classify.PredicateEmpty, resp.ContentPredicates[0])
	require.Len(t, resp.Rules, 17)
	assert.Equal(t, RuleInfo{Name: classify.RuleDictKey, Kind: "dict"}, resp.Rules[0])
	assert.Equal(t, classify.RuleRelationTarget, resp.Rules[16].Name)
}

func TestHandleHealth(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/gettext/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 17, resp.Rules)
}

func TestRequestIDMiddleware(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/gettext/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/v1/gettext/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg, err := config.Default(context.Background())
	require.NoError(t, err)
	handlers, err := NewHandlers(cfg)
	require.NoError(t, err)
	router := NewRouter(handlers, 0.01, 1)

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/gettext/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, get().Code)

	w := get()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "RATE_LIMITED", resp.Code)

	// Metrics are served outside the rate-limited group.
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mw := httptest.NewRecorder()
	router.ServeHTTP(mw, req)
	assert.Equal(t, http.StatusOK, mw.Code)
	assert.Contains(t, mw.Body.String(), "gettextcheck_http_rate_limited_total")
}

func TestNewHandlers_Errors(t *testing.T) {
	_, err := NewHandlers(nil)
	assert.Error(t, err)

	cfg, err := config.Default(context.Background())
	require.NoError(t, err)
	cfg.TranslationWrappers = nil
	_, err = NewHandlers(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
