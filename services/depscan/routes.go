// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package depscan

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the analysis API on the engine.
func RegisterRoutes(r *gin.Engine, h *Handlers) {
	r.GET("/health", h.HandleHealth)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/analyze", h.HandleAnalyze)
		v1.GET("/report", h.HandleReport)
		v1.GET("/packages", h.HandlePackages)
	}
}
