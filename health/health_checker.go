// Package health provides health checking functionality for the clinical API.
package health

import (
	"net/http"
	"runtime"
	"time"

	"github.com/medperplexity/clinical-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	patients            interfaces.PatientStore
	rounds              interfaces.RoundStore
	catalog             interfaces.CatalogStore
	generatorConfigured bool
	startedAt           time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(patients interfaces.PatientStore, rounds interfaces.RoundStore, catalog interfaces.CatalogStore, generatorConfigured bool) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		patients:            patients,
		rounds:              rounds,
		catalog:             catalog,
		generatorConfigured: generatorConfigured,
		startedAt:           time.Now(),
	}
}

// HealthCheck reports store reachability and pipeline readiness.
// The stores re-read their files per call, so a vanished or corrupted data
// file shows up here on the next probe without a restart.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	patientCount := h.patients.Count()
	roundCount := len(h.rounds.List())
	catalogStats := h.catalog.Stats()

	// An empty patient file and an empty catalog together mean the data
	// directory is gone; either one alone still serves degraded answers.
	switch {
	case patientCount == 0 && catalogStats.TotalDrugs == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case patientCount == 0 || catalogStats.TotalDrugs == 0 || !h.generatorConfigured:
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.startedAt)

	data = map[string]any{
		"status":         status,
		"uptime_seconds": uptime.Seconds(),
		"data": map[string]any{
			"api_version":               "1.0.0",
			"patients":                  patientCount,
			"rounds":                    roundCount,
			"catalog_entries":           catalogStats.TotalDrugs,
			"catalog_potential_savings": catalogStats.PotentialSavings,
			"generator_configured":      h.generatorConfigured,
		},
		"system": map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       int(m.Alloc / 1024 / 1024),
				"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
				"sys_mb":         int(m.Sys / 1024 / 1024),
				"num_gc":         m.NumGC,
			},
		},
	}

	return status, data, httpStatus
}
