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
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers the checker routes with the router.
//
// Description:
//
//	Registers all /v1/gettext/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/gettext/check - Check one Python source blob
//	GET  /v1/gettext/rules - List the classification pipeline
//	GET  /v1/gettext/health - Health check
//
// Example:
//
//	handlers, err := gettext.NewHandlers(cfg)
//	v1 := router.Group("/v1")
//	gettext.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	g := rg.Group("/gettext")
	{
		g.POST("/check", handlers.HandleCheck)
		g.GET("/rules", handlers.HandleRules)
		g.GET("/health", handlers.HandleHealth)
	}
}

// NewRouter builds the complete HTTP router.
//
// Description:
//
//	Installs recovery, request ID, and rate limit middleware, then the
//	/v1/gettext routes and the Prometheus /metrics endpoint. Extra
//	middleware such as tracing is applied before the routes.
//
// Inputs:
//
//	handlers - The handlers instance.
//	perSecond, burst - Rate limit for /v1 routes. perSecond <= 0 disables it.
//	middleware - Additional middleware applied to every route.
func NewRouter(handlers *Handlers, perSecond float64, burst int, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)
	router.Use(RequestIDMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(RateLimitMiddleware(perSecond, burst))
	RegisterRoutes(v1, handlers)
	return router
}
