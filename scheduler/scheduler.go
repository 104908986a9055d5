// Package scheduler provides background maintenance for the clinical API.
// It sweeps expired bearer sessions, audits the Jan Aushadhi catalog for
// data quality problems, and keeps the related Prometheus gauges current.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/medperplexity/clinical-api/interfaces"
	"github.com/medperplexity/clinical-api/logging"
	"github.com/medperplexity/clinical-api/metrics"
)

// Compile-time check to ensure Scheduler implements the Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles session cleanup and catalog auditing using dependency injection
type Scheduler struct {
	sessions  interfaces.SessionManager
	catalog   interfaces.CatalogStore
	validator interfaces.DataValidator
	scheduler *gocron.Scheduler
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(sessions interfaces.SessionManager, catalog interfaces.CatalogStore, validator interfaces.DataValidator) *Scheduler {
	return &Scheduler{
		sessions:  sessions,
		catalog:   catalog,
		validator: validator,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start runs one audit immediately so the gauges are populated, then
// schedules the recurring jobs
func (s *Scheduler) Start() error {
	s.auditCatalog()
	s.sweepSessions()

	if _, err := s.scheduler.Every(15).Minutes().Do(s.sweepSessions); err != nil {
		logging.Error("Failed to schedule session sweep", "error", err)
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	if _, err := s.scheduler.Every(1).Day().At("06:00").Do(s.auditCatalog); err != nil {
		logging.Error("Failed to schedule catalog audit", "error", err)
		return fmt.Errorf("failed to schedule catalog audit: %w", err)
	}

	s.scheduler.StartAsync()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// sweepSessions drops expired sessions and refreshes the session gauge
func (s *Scheduler) sweepSessions() {
	removed := s.sessions.Sweep()
	active := s.sessions.Active()
	metrics.ActiveSessions.Set(float64(active))

	if removed > 0 {
		logging.Info("Swept expired sessions", "removed", removed, "active", active)
	}
}

// auditCatalog re-reads the catalog, logs data quality problems, and updates
// the catalog gauges
func (s *Scheduler) auditCatalog() {
	start := time.Now()

	entries := s.catalog.Load()
	stats := s.catalog.Stats()
	report := s.validator.ReportCatalogQuality(entries)

	metrics.CatalogEntries.Set(float64(report.TotalEntries))
	metrics.CatalogPotentialSavings.Set(stats.PotentialSavings)

	// Log duplicate generic names
	if len(report.DuplicateGenerics) > 0 {
		logging.Warn("Duplicate generics detected",
			"total", len(report.DuplicateGenerics),
			"generic_list", report.DuplicateGenerics,
		)
	}

	// Log entries whose prices cannot be right
	if report.EntriesWithBadPrices > 0 {
		logging.Warn("Catalog entries with bad prices",
			"count", report.EntriesWithBadPrices,
			"generic_list", report.BadPriceGenerics,
		)
	}

	// Log entries where switching saves nothing
	if report.EntriesWithoutSavings > 0 {
		logging.Warn("Catalog entries without a savings margin",
			"count", report.EntriesWithoutSavings,
			"generic_list", report.NoSavingsGenerics,
		)
	}

	if report.EntriesWithoutName > 0 {
		logging.Warn("Catalog entries without a generic name", "count", report.EntriesWithoutName)
	}
	if report.EntriesWithoutBrands > 0 {
		logging.Warn("Catalog entries without brand aliases", "count", report.EntriesWithoutBrands)
	}

	elapsed := time.Since(start)
	logging.Info("Catalog audit completed",
		"duration", elapsed.String(),
		"catalog_entries", report.TotalEntries,
		"potential_savings", stats.PotentialSavings,
	)
}
