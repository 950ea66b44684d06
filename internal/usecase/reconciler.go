package usecase

import (
	"context"
	"fmt"
	"sync/atomic"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/pkg/logger"
	"crewsync-service/pkg/metrics"
)

// Stores groups the reconciliation store repositories
type Stores struct {
	Crew       repository.CrewRepository
	Roster     repository.RosterRepository
	Flights    repository.FlightRepository
	ModLog     repository.ModLogRepository
	Reference  repository.ReferenceRepository
	Compliance repository.ComplianceRepository
}

// Reconciler merges canonical batches into the reconciliation store
type Reconciler struct {
	stores  Stores
	gate    *StoreGate
	metrics *metrics.Metrics
	logger  logger.Logger

	rejected atomic.Int64
}

// NewReconciler creates a reconciler. metrics may be nil.
func NewReconciler(stores Stores, gate *StoreGate, m *metrics.Metrics, logger logger.Logger) *Reconciler {
	return &Reconciler{
		stores:  stores,
		gate:    gate,
		metrics: m,
		logger:  logger,
	}
}

// Apply upserts every record of the batch. Rejected records count as skipped.
// Crew are written before roster so activities of new crew are not flagged as orphans.
func (r *Reconciler) Apply(ctx context.Context, batch *entity.Batch) (entity.UpsertCounts, error) {
	var total entity.UpsertCounts
	if batch == nil {
		return total, nil
	}

	err := r.gate.Write(func() error {
		if len(batch.Crew) > 0 {
			c, err := r.stores.Crew.UpsertCrew(ctx, batch.Crew)
			if err != nil {
				return fmt.Errorf("upsert crew: %w", err)
			}
			total.Add(c)
			relinked, err := r.stores.Roster.RelinkOrphans(ctx)
			if err != nil {
				return fmt.Errorf("relink orphan roster: %w", err)
			}
			if relinked > 0 {
				r.logger.Info("Relinked orphan roster activities", "count", relinked)
			}
		}
		if len(batch.Roster) > 0 {
			c, err := r.stores.Roster.UpsertRoster(ctx, batch.Roster)
			if err != nil {
				return fmt.Errorf("upsert roster: %w", err)
			}
			total.Add(c)
		}
		if len(batch.Flights) > 0 {
			c, err := r.stores.Flights.UpsertFlights(ctx, batch.Flights)
			if err != nil {
				return fmt.Errorf("upsert flights: %w", err)
			}
			total.Add(c)
		}
		if len(batch.ModLog) > 0 && r.stores.ModLog != nil {
			c, err := r.stores.ModLog.Append(ctx, batch.ModLog)
			if err != nil {
				return fmt.Errorf("append modification log: %w", err)
			}
			total.Add(c)
		}
		if len(batch.Aircraft) > 0 {
			c, err := r.stores.Reference.UpsertAircraft(ctx, batch.Aircraft)
			if err != nil {
				return fmt.Errorf("upsert aircraft: %w", err)
			}
			total.Add(c)
		}
		if len(batch.Airports) > 0 {
			c, err := r.stores.Reference.UpsertAirports(ctx, batch.Airports)
			if err != nil {
				return fmt.Errorf("upsert airports: %w", err)
			}
			total.Add(c)
		}
		if len(batch.Reported) > 0 {
			c, err := r.stores.Compliance.SaveReported(ctx, batch.Reported)
			if err != nil {
				return fmt.Errorf("save reported hours: %w", err)
			}
			total.Add(c)
		}
		return nil
	})
	total.Skipped += len(batch.Rejected)
	r.rejected.Add(int64(len(batch.Rejected)))
	r.record(batch.Kind, total, len(batch.Rejected))
	if err != nil {
		return total, err
	}

	r.logger.Info("Reconciled batch",
		"kind", batch.Kind,
		"source", batch.Source,
		"inserted", total.Inserted,
		"updated", total.Updated,
		"unchanged", total.Unchanged,
		"skipped", total.Skipped)
	return total, nil
}

func (r *Reconciler) record(kind entity.EntityKind, c entity.UpsertCounts, rejected int) {
	if r.metrics == nil {
		return
	}
	k := string(kind)
	r.metrics.RecordsUpserted.WithLabelValues(k, "inserted").Add(float64(c.Inserted))
	r.metrics.RecordsUpserted.WithLabelValues(k, "updated").Add(float64(c.Updated))
	r.metrics.RecordsUpserted.WithLabelValues(k, "unchanged").Add(float64(c.Unchanged))
	r.metrics.RecordsUpserted.WithLabelValues(k, "skipped").Add(float64(c.Skipped))
	if rejected > 0 {
		r.metrics.ParseErrors.WithLabelValues(k).Add(float64(rejected))
	}
}

// TakeRejected returns the number of records rejected since the previous call
func (r *Reconciler) TakeRejected() int {
	return int(r.rejected.Swap(0))
}
