package repository

import (
	"context"
	"errors"
	"time"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultSwapPageSize = 20
	maxSwapPageSize     = 200
)

// GormAssignmentSnapshotRepository implements the AssignmentSnapshotRepository interface
type GormAssignmentSnapshotRepository struct {
	db *gorm.DB
}

// NewGormAssignmentSnapshotRepository creates a new GORM baseline repository
func NewGormAssignmentSnapshotRepository(db *gorm.DB) repository.AssignmentSnapshotRepository {
	return &GormAssignmentSnapshotRepository{
		db: db,
	}
}

// AircraftAssignmentSnapshots GORM model for database mapping
type AircraftAssignmentSnapshots struct {
	ID           uint      `gorm:"primaryKey"`
	FlightDate   string    `gorm:"column:flight_date;size:10;uniqueIndex:idx_assignment_key,priority:1"`
	FlightNumber string    `gorm:"column:flight_number;size:16;uniqueIndex:idx_assignment_key,priority:2"`
	Departure    string    `gorm:"column:departure;size:4;uniqueIndex:idx_assignment_key,priority:3"`
	AircraftReg  string    `gorm:"column:aircraft_reg;size:16"`
	AircraftType string    `gorm:"column:aircraft_type;size:16"`
	FirstSeenAt  time.Time `gorm:"column:first_seen_at"`
}

// TableName overrides the default table name
func (AircraftAssignmentSnapshots) TableName() string {
	return "aircraft_assignment_snapshots"
}

func (m AircraftAssignmentSnapshots) toEntity() entity.AircraftAssignmentSnapshot {
	return entity.AircraftAssignmentSnapshot{
		FlightKey: entity.FlightKey{
			FlightDate:   m.FlightDate,
			FlightNumber: m.FlightNumber,
			Departure:    m.Departure,
		},
		AircraftReg:  m.AircraftReg,
		AircraftType: m.AircraftType,
		FirstSeenAt:  m.FirstSeenAt.UTC(),
	}
}

// Baseline inserts the snapshot if the leg has none. An existing baseline is never overwritten.
func (r *GormAssignmentSnapshotRepository) Baseline(ctx context.Context, snapshot entity.AircraftAssignmentSnapshot) (*entity.AircraftAssignmentSnapshot, bool, error) {
	m := AircraftAssignmentSnapshots{
		FlightDate:   snapshot.FlightDate,
		FlightNumber: snapshot.FlightNumber,
		Departure:    snapshot.Departure,
		AircraftReg:  snapshot.AircraftReg,
		AircraftType: snapshot.AircraftType,
		FirstSeenAt:  snapshot.FirstSeenAt.UTC(),
	}

	db := r.db.WithContext(ctx)
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "flight_date"}, {Name: "flight_number"}, {Name: "departure"}},
		DoNothing: true,
	}).Create(&m)
	if result.Error != nil {
		return nil, false, result.Error
	}
	created := result.RowsAffected == 1

	stored, err := r.Get(ctx, snapshot.FlightKey)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// Get returns the baseline of a flight leg
func (r *GormAssignmentSnapshotRepository) Get(ctx context.Context, key entity.FlightKey) (*entity.AircraftAssignmentSnapshot, error) {
	var m AircraftAssignmentSnapshots
	result := r.db.WithContext(ctx).
		Where("flight_date = ? AND flight_number = ? AND departure = ?", key.FlightDate, key.FlightNumber, key.Departure).
		Take(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, entity.ErrNotFound
		}
		return nil, result.Error
	}

	s := m.toEntity()
	return &s, nil
}

// GormSwapRepository implements the SwapRepository interface
type GormSwapRepository struct {
	db *gorm.DB
}

// NewGormSwapRepository creates a new GORM swap event repository
func NewGormSwapRepository(db *gorm.DB) repository.SwapRepository {
	return &GormSwapRepository{
		db: db,
	}
}

// SwapEvents GORM model for database mapping
type SwapEvents struct {
	ID             uint      `gorm:"primaryKey"`
	// NULL until the row sequence is known
	EventID        *string   `gorm:"column:event_id;size:16;uniqueIndex"`
	FlightDate     string    `gorm:"column:flight_date;size:10;uniqueIndex:idx_swap_pair,priority:1;index"`
	FlightNumber   string    `gorm:"column:flight_number;size:16;uniqueIndex:idx_swap_pair,priority:2"`
	Departure      string    `gorm:"column:departure;size:4;uniqueIndex:idx_swap_pair,priority:3"`
	OriginalReg    string    `gorm:"column:original_reg;size:16;uniqueIndex:idx_swap_pair,priority:4"`
	SwappedReg     string    `gorm:"column:swapped_reg;size:16;uniqueIndex:idx_swap_pair,priority:5"`
	Arrival        string    `gorm:"column:arrival;size:4"`
	OriginalType   string    `gorm:"column:original_type;size:16"`
	SwappedType    string    `gorm:"column:swapped_type;size:16"`
	Category       string    `gorm:"column:swap_category;size:16;index"`
	Reason         string    `gorm:"column:swap_reason"`
	DelayMinutes   int       `gorm:"column:delay_minutes"`
	RecoveryStatus string    `gorm:"column:recovery_status;size:16;index"`
	ModLogRef      string    `gorm:"column:mod_log_ref"`
	DetectedAt     time.Time `gorm:"column:detected_at"`
	UpdatedAt      time.Time
}

// TableName overrides the default table name
func (SwapEvents) TableName() string {
	return "swap_events"
}

func (m SwapEvents) toEntity() entity.SwapEvent {
	return entity.SwapEvent{
		EventID: deref(m.EventID),
		FlightKey: entity.FlightKey{
			FlightDate:   m.FlightDate,
			FlightNumber: m.FlightNumber,
			Departure:    m.Departure,
		},
		Arrival:        m.Arrival,
		OriginalReg:    m.OriginalReg,
		OriginalType:   m.OriginalType,
		SwappedReg:     m.SwappedReg,
		SwappedType:    m.SwappedType,
		Category:       entity.SwapCategory(m.Category),
		Reason:         m.Reason,
		DelayMinutes:   m.DelayMinutes,
		RecoveryStatus: entity.RecoveryStatus(m.RecoveryStatus),
		ModLogRef:      m.ModLogRef,
		DetectedAt:     m.DetectedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

// CreateIfAbsent appends the event unless the same registration pair was already
// recorded for the leg. The event ID is derived from the row sequence.
func (r *GormSwapRepository) CreateIfAbsent(ctx context.Context, event *entity.SwapEvent) (bool, error) {
	m := SwapEvents{
		FlightDate:     event.FlightDate,
		FlightNumber:   event.FlightNumber,
		Departure:      event.Departure,
		OriginalReg:    event.OriginalReg,
		SwappedReg:     event.SwappedReg,
		Arrival:        event.Arrival,
		OriginalType:   event.OriginalType,
		SwappedType:    event.SwappedType,
		Category:       string(event.Category),
		Reason:         event.Reason,
		DelayMinutes:   event.DelayMinutes,
		RecoveryStatus: string(event.RecoveryStatus),
		ModLogRef:      event.ModLogRef,
		DetectedAt:     event.DetectedAt.UTC(),
	}

	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "flight_date"}, {Name: "flight_number"}, {Name: "departure"},
				{Name: "original_reg"}, {Name: "swapped_reg"},
			},
			DoNothing: true,
		}).Create(&m)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		created = true
		eventID := entity.FormatSwapEventID(int(m.ID))
		m.EventID = &eventID
		return tx.Model(&m).Update("event_id", eventID).Error
	})
	if err != nil {
		return false, err
	}

	if created {
		event.EventID = *m.EventID
	}
	return created, nil
}

// ListByFlight returns every swap of a flight leg in detection order
func (r *GormSwapRepository) ListByFlight(ctx context.Context, key entity.FlightKey) ([]entity.SwapEvent, error) {
	var models []SwapEvents
	err := r.db.WithContext(ctx).
		Where("flight_date = ? AND flight_number = ? AND departure = ?", key.FlightDate, key.FlightNumber, key.Departure).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return swapEntities(models), nil
}

// ListPending returns swaps whose recovery is still undecided
func (r *GormSwapRepository) ListPending(ctx context.Context) ([]entity.SwapEvent, error) {
	var models []SwapEvents
	err := r.db.WithContext(ctx).
		Where("recovery_status = ?", string(entity.RecoveryPending)).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return swapEntities(models), nil
}

// UpdateRecovery transitions the recovery status. It is the only mutation of a stored event.
func (r *GormSwapRepository) UpdateRecovery(ctx context.Context, eventID string, status entity.RecoveryStatus, delayMinutes int) error {
	result := r.db.WithContext(ctx).Model(&SwapEvents{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"recovery_status": string(status),
			"delay_minutes":   delayMinutes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// Query returns one page of swaps in the period plus the total match count
func (r *GormSwapRepository) Query(ctx context.Context, filter entity.SwapFilter) ([]entity.SwapEvent, int64, error) {
	q := r.periodScope(ctx, filter.Period)
	if filter.Category != "" {
		q = q.Where("swap_category = ?", string(filter.Category))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	var models []SwapEvents
	err := q.Order("flight_date DESC, id DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}
	return swapEntities(models), total, nil
}

// ListInPeriod returns every swap dated inside the window
func (r *GormSwapRepository) ListInPeriod(ctx context.Context, window entity.TimeWindow) ([]entity.SwapEvent, error) {
	var models []SwapEvents
	if err := r.periodScope(ctx, window).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	return swapEntities(models), nil
}

func (r *GormSwapRepository) periodScope(ctx context.Context, window entity.TimeWindow) *gorm.DB {
	return r.db.WithContext(ctx).Model(&SwapEvents{}).
		Where("flight_date BETWEEN ? AND ?", entity.FormatDate(window.From), entity.FormatDate(window.To))
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultSwapPageSize
	}
	if size > maxSwapPageSize {
		size = maxSwapPageSize
	}
	return page, size
}

func swapEntities(models []SwapEvents) []entity.SwapEvent {
	events := make([]entity.SwapEvent, 0, len(models))
	for _, m := range models {
		events = append(events, m.toEntity())
	}
	return events
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
