package usecase

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/pkg/logger"
	"crewsync-service/pkg/metrics"
)

// SwapDetectorConfig tunes recovery classification
type SwapDetectorConfig struct {
	// DelayThresholdMinutes is the departure delay above which a swap counts as DELAYED
	DelayThresholdMinutes int
}

// DetectResult summarizes one detection pass
type DetectResult struct {
	Observed  int
	Baselined int
	Detected  []entity.SwapEvent
	Recovered int
	Delayed   int
	Cancelled int
}

// Changed reports whether the pass created or advanced any swap event
func (r *DetectResult) Changed() bool {
	return len(r.Detected) > 0 || r.Recovered+r.Delayed+r.Cancelled > 0
}

// SwapDetector compares observed aircraft assignments against their first-seen baseline
type SwapDetector struct {
	flights    repository.FlightRepository
	modLog     repository.ModLogRepository
	snapshots  repository.AssignmentSnapshotRepository
	swaps      repository.SwapRepository
	classifier *SwapClassifier
	gate       *StoreGate
	cfg        SwapDetectorConfig
	metrics    *metrics.Metrics
	clock      clockwork.Clock
	logger     logger.Logger
}

// NewSwapDetector creates a detector. modLog and metrics may be nil.
func NewSwapDetector(
	flights repository.FlightRepository,
	modLog repository.ModLogRepository,
	snapshots repository.AssignmentSnapshotRepository,
	swaps repository.SwapRepository,
	classifier *SwapClassifier,
	gate *StoreGate,
	cfg SwapDetectorConfig,
	m *metrics.Metrics,
	clock clockwork.Clock,
	logger logger.Logger,
) *SwapDetector {
	if cfg.DelayThresholdMinutes <= 0 {
		cfg.DelayThresholdMinutes = 15
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if classifier == nil {
		classifier = NewSwapClassifier(DefaultSwapKeywords())
	}
	return &SwapDetector{
		flights:    flights,
		modLog:     modLog,
		snapshots:  snapshots,
		swaps:      swaps,
		classifier: classifier,
		gate:       gate,
		cfg:        cfg,
		metrics:    m,
		clock:      clock,
		logger:     logger,
	}
}

// Detect baselines unseen legs of the window, emits one event per new
// registration pair and advances the recovery of pending swaps.
func (d *SwapDetector) Detect(ctx context.Context, window entity.TimeWindow) (*DetectResult, error) {
	result := &DetectResult{}
	err := d.gate.Read(func() error {
		flights, err := d.flights.ListFlights(ctx, window)
		if err != nil {
			return fmt.Errorf("list flights: %w", err)
		}
		current := make(map[entity.FlightKey]entity.FlightRecord, len(flights))
		for _, f := range flights {
			if f.FlightNumber == "" || f.Departure == "" || f.AircraftReg == "" {
				continue
			}
			current[f.FlightKey] = f
			result.Observed++
			if err := d.observe(ctx, f, result); err != nil {
				return err
			}
		}
		return d.advanceRecovery(ctx, current, result)
	})
	if err != nil {
		return result, err
	}

	d.logger.Info("Swap detection completed",
		"observed", result.Observed,
		"baselined", result.Baselined,
		"detected", len(result.Detected),
		"recovered", result.Recovered,
		"delayed", result.Delayed,
		"cancelled", result.Cancelled)
	return result, nil
}

func (d *SwapDetector) observe(ctx context.Context, f entity.FlightRecord, result *DetectResult) error {
	now := d.clock.Now().UTC()
	baseline, created, err := d.snapshots.Baseline(ctx, entity.AircraftAssignmentSnapshot{
		FlightKey:    f.FlightKey,
		AircraftReg:  f.AircraftReg,
		AircraftType: f.AircraftType,
		FirstSeenAt:  now,
	})
	if err != nil {
		return fmt.Errorf("baseline %s: %w", f.FlightKey, err)
	}
	if created {
		result.Baselined++
		return nil
	}
	if baseline.AircraftReg == "" || baseline.AircraftReg == f.AircraftReg {
		return nil
	}

	category, reason, ref, err := d.reason(ctx, f.FlightKey)
	if err != nil {
		return err
	}
	delay := f.DelayMinutes()
	event := &entity.SwapEvent{
		FlightKey:      f.FlightKey,
		Arrival:        f.Arrival,
		OriginalReg:    baseline.AircraftReg,
		OriginalType:   baseline.AircraftType,
		SwappedReg:     f.AircraftReg,
		SwappedType:    f.AircraftType,
		Category:       category,
		Reason:         reason,
		DelayMinutes:   delay,
		RecoveryStatus: d.recovery(f, baseline.AircraftType, delay),
		ModLogRef:      ref,
		DetectedAt:     now,
		UpdatedAt:      now,
	}
	inserted, err := d.swaps.CreateIfAbsent(ctx, event)
	if err != nil {
		return fmt.Errorf("record swap %s: %w", f.FlightKey, err)
	}
	if !inserted {
		return nil
	}

	result.Detected = append(result.Detected, *event)
	if d.metrics != nil {
		d.metrics.SwapsDetected.WithLabelValues(string(event.Category)).Inc()
	}
	d.logger.Info("Aircraft swap detected",
		"eventID", event.EventID,
		"flight", f.FlightKey.String(),
		"from", event.OriginalReg,
		"to", event.SwappedReg,
		"category", event.Category,
		"delayMinutes", delay)
	return nil
}

// reason classifies the log entry that best explains the swap: the newest entry
// about the aircraft assignment, else the newest entry of the leg
func (d *SwapDetector) reason(ctx context.Context, key entity.FlightKey) (entity.SwapCategory, string, string, error) {
	if d.modLog == nil {
		category, reason := d.classifier.Classify("")
		return category, reason, "", nil
	}
	entries, err := d.modLog.FindByFlight(ctx, key)
	if err != nil {
		return "", "", "", fmt.Errorf("modification log of %s: %w", key, err)
	}
	if len(entries) == 0 {
		category, reason := d.classifier.Classify("")
		return category, reason, "", nil
	}

	chosen := entries[0]
	for _, e := range entries {
		if d.classifier.IsAircraftChange(e.Text()) {
			chosen = e
			break
		}
	}
	category, reason := d.classifier.Classify(chosen.Text())
	return category, reason, chosen.Ref(), nil
}

// recovery decides the status of a swap from the latest observation of its leg
func (d *SwapDetector) recovery(f entity.FlightRecord, originalType string, delay int) entity.RecoveryStatus {
	switch {
	case f.IsCancelled():
		return entity.RecoveryCancelled
	case !f.HasOperated():
		return entity.RecoveryPending
	case delay > d.cfg.DelayThresholdMinutes:
		return entity.RecoveryDelayed
	case originalType == "" || f.AircraftType == originalType:
		return entity.RecoveryRecovered
	default:
		return entity.RecoveryPending
	}
}

func (d *SwapDetector) advanceRecovery(ctx context.Context, current map[entity.FlightKey]entity.FlightRecord, result *DetectResult) error {
	pending, err := d.swaps.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending swaps: %w", err)
	}
	for _, ev := range pending {
		f, ok := current[ev.FlightKey]
		if !ok {
			stored, err := d.flights.GetFlight(ctx, ev.FlightKey)
			if err != nil || stored == nil {
				continue
			}
			f = *stored
		}
		delay := f.DelayMinutes()
		status := d.recovery(f, ev.OriginalType, delay)
		if status == entity.RecoveryPending && delay == ev.DelayMinutes {
			continue
		}
		if err := d.swaps.UpdateRecovery(ctx, ev.EventID, status, delay); err != nil {
			return fmt.Errorf("update recovery of %s: %w", ev.EventID, err)
		}
		switch status {
		case entity.RecoveryRecovered:
			result.Recovered++
		case entity.RecoveryDelayed:
			result.Delayed++
		case entity.RecoveryCancelled:
			result.Cancelled++
		}
	}
	return nil
}
