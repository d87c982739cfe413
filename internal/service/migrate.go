package service

import (
	"context"
	"time"

	"github.com/calebms/vidshift/internal/domain"
	"github.com/calebms/vidshift/internal/ledger"
	"github.com/calebms/vidshift/internal/logger"
	"github.com/calebms/vidshift/internal/platform"
)

// MigrationEngine orchestrates the video migration: it filters eligible
// manifest records, skips ids the ledger already shows as succeeded, submits
// the rest strictly sequentially, and records every outcome durably before
// moving on. A single item's failure never stops the run.
type MigrationEngine struct {
	store     *ledger.Store
	submitter platform.VideoSubmitter
	logger    *logger.Logger

	delay       time.Duration
	groupFilter string
	dryRun      bool
}

// MigrationOptions holds per-run engine settings.
type MigrationOptions struct {
	// Delay is the pause between consecutive remote calls, a courtesy to
	// the destination API's rate limits.
	Delay time.Duration

	// GroupFilter restricts the run to records with a matching group id
	// when non-empty.
	GroupFilter string

	// DryRun reports what would happen without calling the API or writing
	// the ledger.
	DryRun bool
}

// MigrationSummary tallies the run by outcome.
type MigrationSummary struct {
	Succeeded         int
	SkippedDone       int
	SkippedIneligible int
	Failed            int
	Total             int
}

// NewMigrationEngine creates a new migration engine.
func NewMigrationEngine(store *ledger.Store, submitter platform.VideoSubmitter, log *logger.Logger, opts *MigrationOptions) *MigrationEngine {
	if opts == nil {
		opts = &MigrationOptions{}
	}
	if log == nil {
		log = logger.GetDefault()
	}

	return &MigrationEngine{
		store:       store,
		submitter:   submitter,
		logger:      log.WithField(logger.FieldComponent, "migrate"),
		delay:       opts.Delay,
		groupFilter: opts.GroupFilter,
		dryRun:      opts.DryRun,
	}
}

// log returns a logger from context if available, otherwise the engine's.
func (e *MigrationEngine) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return e.logger
}

// Run processes the manifest records in order, one remote call in flight at
// a time. It returns early only when the context is canceled or a ledger
// write fails; everything already recorded stays durable either way.
func (e *MigrationEngine) Run(ctx context.Context, records []domain.SourceRecord) (*MigrationSummary, error) {
	summary := &MigrationSummary{Total: len(records)}
	start := time.Now()

	e.log(ctx).WithFields(logger.Fields{
		"records": len(records),
		"dry_run": e.dryRun,
		"group":   e.groupFilter,
	}).Info("Starting migration run")

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		itemLog := e.log(ctx).WithField(logger.FieldExternalID, record.ExternalID)

		if !e.eligible(record) {
			summary.SkippedIneligible++
			itemLog.WithField("reason", skipReason(record, e.groupFilter)).Info("Skipped ineligible record")
			continue
		}

		if e.store.IsCompleted(record.ExternalID) {
			summary.SkippedDone++
			itemLog.Info("Skipped already migrated record")
			continue
		}

		if e.dryRun {
			summary.Succeeded++
			itemLog.WithField("name", record.Name).Info("Dry run: would submit video copy")
			continue
		}

		result := e.submitter.CopyFromURL(ctx, record)
		entry := entryFromResult(record, result)
		if err := e.store.Record(entry); err != nil {
			// Losing durability defeats the resume guarantee; stop here
			// rather than racking up outcomes that would be resubmitted.
			return summary, err
		}

		if result.OK() {
			summary.Succeeded++
			itemLog.WithField(logger.FieldRemoteID, result.RemoteID).Info("Video copy accepted")
		} else {
			summary.Failed++
			itemLog.WithFields(logger.Fields{
				"status": string(result.Status),
				"error":  result.Message,
			}).Warn("Video copy failed")
		}

		if i < len(records)-1 {
			if err := sleep(ctx, e.delay); err != nil {
				return summary, err
			}
		}
	}

	e.log(ctx).WithFields(logger.Fields{
		"succeeded":          summary.Succeeded,
		"failed":             summary.Failed,
		"skipped_done":       summary.SkippedDone,
		"skipped_ineligible": summary.SkippedIneligible,
		"total":              summary.Total,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info("Migration run completed")

	return summary, nil
}

// eligible applies the availability and group filters.
func (e *MigrationEngine) eligible(record domain.SourceRecord) bool {
	if !record.Eligible() {
		return false
	}
	if e.groupFilter != "" && record.GroupID != e.groupFilter {
		return false
	}
	return true
}

func skipReason(record domain.SourceRecord, groupFilter string) string {
	if !record.Eligible() {
		return "source asset unavailable"
	}
	if groupFilter != "" && record.GroupID != groupFilter {
		return "group filter mismatch"
	}
	return ""
}

// entryFromResult derives the persisted ledger entry for one resolved call.
func entryFromResult(record domain.SourceRecord, result domain.SubmitResult) domain.LedgerEntry {
	entry := domain.LedgerEntry{
		ExternalID:  record.ExternalID,
		Name:        record.Name,
		GroupID:     record.GroupID,
		SourceURL:   record.SourceURL,
		CompletedAt: time.Now().UTC(),
	}
	if result.OK() {
		entry.Outcome = domain.OutcomeSuccess
		entry.RemoteID = result.RemoteID
	} else {
		entry.Outcome = domain.OutcomeFailure
		entry.ErrorMessage = result.Message
	}
	return entry
}

// sleep waits for the configured delay or until the context is canceled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
