package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tracelab/entiq"
	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/types"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests
type HealthHandler struct {
	engine entiq.Getter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(engine entiq.Getter) *HealthHandler {
	return &HealthHandler{
		engine: engine,
	}
}

// HealthCheck handles GET /health - basic liveness check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "entiq",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// ReadinessCheck handles GET /ready
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := gin.H{
		"status":    "ready",
		"service":   "entiq",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    gin.H{},
	}

	allHealthy := true
	checks := response["checks"].(gin.H)

	// Probe the store through a fetch of a reference that cannot exist. Any
	// outcome except a timeout means the backend answered.
	if h.engine != nil {
		startTime := time.Now()
		probe := types.EntityRef{Kind: types.KindSample, ID: "health-check-non-existent-id"}
		_, err := h.engine.GetObjects(ctx, types.Principal{UserID: "health-check"}, []types.EntityRef{probe}, fetch.NewGraph(types.KindSample))
		duration := time.Since(startTime)

		if err != nil && ctx.Err() != nil {
			checks["store"] = gin.H{
				"status":   "unhealthy",
				"error":    "store connection timeout",
				"duration": duration.String(),
			}
			allHealthy = false
		} else {
			checks["store"] = gin.H{
				"status":   "healthy",
				"duration": duration.String(),
			}
		}
	} else {
		checks["store"] = gin.H{
			"status": "unhealthy",
			"error":  "engine not initialized",
		}
		allHealthy = false
	}

	checks["system"] = gin.H{
		"status": "healthy",
	}

	if !allHealthy {
		response["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// LivenessCheck handles GET /live - Kubernetes liveness probe endpoint
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	// Simple liveness check - just confirm the service is running
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   "entiq",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DetailedHealthCheck handles GET /health/detailed - comprehensive health information
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	startTime := time.Now()
	response := gin.H{
		"status":  "healthy",
		"service": "entiq",
		"version": Version,
		"build_info": gin.H{
			"git_commit": GitCommit,
			"build_time": BuildTime,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"environment": gin.H{
			"go_version": GoVersion,
		},
		"checks": gin.H{},
		"metrics": gin.H{
			"response_time_ms": 0, // Will be set at the end
		},
	}

	allHealthy := true
	checks := response["checks"].(gin.H)

	if h.engine != nil {
		probeStart := time.Now()
		probe := types.EntityRef{Kind: types.KindSample, ID: "health-check-detailed"}
		_, err := h.engine.GetObjects(ctx, types.Principal{UserID: "health-check"}, []types.EntityRef{probe}, fetch.NewGraph(types.KindSample))
		probeDuration := time.Since(probeStart)

		storeStatus := gin.H{
			"status":      "healthy",
			"duration_ms": probeDuration.Milliseconds(),
			"operation":   "GetObjects",
		}
		if err != nil && ctx.Err() != nil {
			storeStatus["status"] = "unhealthy"
			storeStatus["error"] = "connection timeout"
			allHealthy = false
		}
		checks["store_connectivity"] = storeStatus
	} else {
		checks["engine"] = gin.H{
			"status": "unhealthy",
			"error":  "engine not initialized",
		}
		allHealthy = false
	}

	// Add system health metrics
	systemMetrics := h.getSystemMetrics()
	checks["system"] = gin.H{
		"status":       "healthy",
		"memory_usage": systemMetrics.MemoryUsage,
		"goroutines":   systemMetrics.Goroutines,
		"gc_cycles":    systemMetrics.GCCycles,
		"heap_objects": systemMetrics.HeapObjects,
		"stack_usage":  systemMetrics.StackUsage,
	}

	totalDuration := time.Since(startTime)
	response["metrics"].(gin.H)["response_time_ms"] = totalDuration.Milliseconds()

	if !allHealthy {
		response["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// SystemMetrics holds system runtime metrics
type SystemMetrics struct {
	MemoryUsage string `json:"memory_usage"`
	Goroutines  int    `json:"goroutines"`
	GCCycles    uint32 `json:"gc_cycles"`
	HeapObjects uint64 `json:"heap_objects"`
	StackUsage  string `json:"stack_usage"`
}

// getSystemMetrics collects current system runtime metrics
func (h *HealthHandler) getSystemMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// Convert bytes to human-readable format
	memoryUsage := fmt.Sprintf("%.2f MB", float64(m.Alloc)/(1024*1024))
	stackUsage := fmt.Sprintf("%.2f MB", float64(m.StackSys)/(1024*1024))

	return SystemMetrics{
		MemoryUsage: memoryUsage,
		Goroutines:  runtime.NumGoroutine(),
		GCCycles:    m.NumGC,
		HeapObjects: m.HeapObjects,
		StackUsage:  stackUsage,
	}
}
