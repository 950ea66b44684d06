package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/pkg/logger"
	"crewsync-service/pkg/utils"
)

// UploadIngestor feeds tabular exports into the reconciliation store
type UploadIngestor struct {
	parser     *utils.ReportParser
	reconciler *Reconciler
	detector   *SwapDetector
	jobs       repository.SyncJobRepository
	clock      clockwork.Clock
	logger     logger.Logger
}

// NewUploadIngestor creates an ingestor. detector may be nil to skip swap
// detection on imported flights, jobs may be nil to skip the audit record.
func NewUploadIngestor(parser *utils.ReportParser, reconciler *Reconciler, detector *SwapDetector, jobs repository.SyncJobRepository, clock clockwork.Clock, logger logger.Logger) *UploadIngestor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &UploadIngestor{
		parser:     parser,
		reconciler: reconciler,
		detector:   detector,
		jobs:       jobs,
		clock:      clock,
		logger:     logger,
	}
}

// Ingest parses and reconciles one export. Malformed rows are skipped and counted;
// only an unreadable file or a store failure fails the run.
func (i *UploadIngestor) Ingest(ctx context.Context, upload entity.Upload) (entity.SyncResult, error) {
	if upload.ExportedAt.IsZero() {
		upload.ExportedAt = i.clock.Now()
	}
	kind := upload.Type.Kind()
	result := entity.SyncResult{
		RunID:     uuid.New().String(),
		Kind:      kind,
		Mode:      entity.ModeCSV,
		Status:    entity.SyncRunning,
		Attempts:  1,
		StartedAt: i.clock.Now().UTC(),
	}
	i.startJob(ctx, result)

	source := NewUploadSource(i.parser, upload)
	batch, err := source.Fetch(ctx, kind, entity.TimeWindow{})
	if err == nil {
		var counts entity.UpsertCounts
		counts, err = i.reconciler.Apply(ctx, batch)
		result.Apply(counts)
	}

	result.FinishedAt = i.clock.Now().UTC()
	if err != nil {
		result.Status = entity.SyncFailed
		result.Error = err.Error()
		i.finishJob(ctx, result)
		return result, fmt.Errorf("ingest %s: %w", upload.Filename, err)
	}
	result.Status = entity.SyncCompleted
	i.finishJob(ctx, result)
	i.detectSwaps(ctx, batch)

	i.logger.Info("Ingested export",
		"file", upload.Filename,
		"type", upload.Type,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"skipped", result.Skipped)
	return result, nil
}

func (i *UploadIngestor) startJob(ctx context.Context, result entity.SyncResult) {
	if i.jobs == nil {
		return
	}
	if err := i.jobs.Start(ctx, result.Job()); err != nil {
		i.logger.Warn("Failed to record sync job start", "runID", result.RunID, "error", err)
	}
}

func (i *UploadIngestor) finishJob(ctx context.Context, result entity.SyncResult) {
	if i.jobs == nil {
		return
	}
	if err := i.jobs.Finish(ctx, result.Job()); err != nil {
		i.logger.Warn("Failed to record sync job finish", "runID", result.RunID, "error", err)
	}
}

// detectSwaps compares the imported legs against their baselines
func (i *UploadIngestor) detectSwaps(ctx context.Context, batch *entity.Batch) {
	if i.detector == nil || batch == nil {
		return
	}
	window, ok := flightWindow(batch.Flights)
	if !ok {
		return
	}
	res, err := i.detector.Detect(ctx, window)
	if err != nil {
		i.logger.Error("Swap detection on imported flights failed", "error", err)
		return
	}
	if len(res.Detected) > 0 {
		i.logger.Info("Swaps detected in imported flights", "count", len(res.Detected))
	}
}

// flightWindow spans the flight dates of the records
func flightWindow(flights []entity.FlightRecord) (entity.TimeWindow, bool) {
	var from, to string
	for _, f := range flights {
		if f.FlightDate == "" {
			continue
		}
		if from == "" || f.FlightDate < from {
			from = f.FlightDate
		}
		if f.FlightDate > to {
			to = f.FlightDate
		}
	}
	if from == "" {
		return entity.TimeWindow{}, false
	}
	start, err := entity.ParseDate(from)
	if err != nil {
		return entity.TimeWindow{}, false
	}
	end, err := entity.ParseDate(to)
	if err != nil {
		return entity.TimeWindow{}, false
	}
	return entity.NewTimeWindow(start, end), true
}
