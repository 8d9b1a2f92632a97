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
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

const (
	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
)

var rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "gettextcheck",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Total requests rejected by the rate limiter",
})

// RequestIDMiddleware assigns every request an ID.
//
// Description:
//
//	Reuses a client-supplied X-Request-ID header when present, otherwise
//	generates a UUID. The ID is stored on the gin context and echoed in
//	the response header.
//
// Thread Safety: This middleware is safe for concurrent use.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// RateLimitMiddleware rejects requests beyond a token bucket limit.
//
// Description:
//
//	Allows perSecond requests per second on average with bursts up to
//	burst. Rejected requests get 429 with a Retry-After header. A
//	perSecond of zero or less disables limiting.
//
// Inputs:
//
//	perSecond - Sustained request rate.
//	burst - Bucket size. Values below 1 are raised to 1.
//
// Thread Safety: This middleware is safe for concurrent use.
func RateLimitMiddleware(perSecond float64, burst int) gin.HandlerFunc {
	if perSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(c *gin.Context) {
		reservation := limiter.Reserve()
		delay := reservation.Delay()
		if delay == 0 {
			c.Next()
			return
		}
		reservation.Cancel()
		rateLimitedTotal.Inc()

		requestID := getOrCreateRequestID(c)
		slog.Warn("request rate limited",
			slog.String("request_id", requestID),
			slog.String("path", c.Request.URL.Path),
			slog.Duration("retry_after", delay),
		)

		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
			Error:     "rate limit exceeded",
			Code:      "RATE_LIMITED",
			RequestID: requestID,
		})
	}
}

// getOrCreateRequestID returns the request ID set by RequestIDMiddleware,
// falling back to the header or a fresh UUID when the middleware is absent.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetString(requestIDKey); id != "" {
		return id
	}
	id := c.GetHeader(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDKey, id)
	return id
}
