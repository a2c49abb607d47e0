// Package di wires databases, clients, services and jobs into a Container.
package di

import (
	"errors"

	"github.com/aristath/basket/internal/clients/yahoo"
	"github.com/aristath/basket/internal/database"
	"github.com/aristath/basket/internal/events"
	"github.com/aristath/basket/internal/modules/analysis"
	"github.com/aristath/basket/internal/modules/prices"
	"github.com/aristath/basket/internal/monitoring"
	"github.com/aristath/basket/internal/reliability"
	"github.com/aristath/basket/internal/scheduler"
)

// Container holds all dependencies for the application.
// R2Client and ReportArchiver are nil when no archive bucket is configured.
type Container struct {
	HistoryDB *database.DB
	CacheDB   *database.DB

	EventBus     *events.Bus
	EventManager *events.Manager
	Metrics      *monitoring.Metrics

	YahooClient    *yahoo.Client
	R2Client       *reliability.R2Client
	ReportArchiver *reliability.ReportArchiver

	HistoryDBClient *prices.HistoryDB
	ReportRepo      *analysis.ReportRepository

	PriceService    *prices.Service
	AnalysisService *analysis.Service
}

// Close closes both databases
func (c *Container) Close() error {
	var errs []error
	for _, db := range []*database.DB{c.HistoryDB, c.CacheDB} {
		if db != nil {
			errs = append(errs, db.Close())
		}
	}
	return errors.Join(errs...)
}

// JobInstances holds the background jobs. ArchiveRotation is nil without
// an archive.
type JobInstances struct {
	PriceSync       scheduler.Job
	ReportCleanup   scheduler.Job
	WALCheckpoint   scheduler.Job
	Maintenance     scheduler.Job
	ArchiveRotation scheduler.Job
}

// All returns the non-nil jobs for manual triggering
func (j *JobInstances) All() []scheduler.Job {
	var out []scheduler.Job
	for _, job := range []scheduler.Job{j.PriceSync, j.ReportCleanup, j.WALCheckpoint, j.Maintenance, j.ArchiveRotation} {
		if job != nil {
			out = append(out, job)
		}
	}
	return out
}
