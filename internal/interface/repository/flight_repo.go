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

// GormFlightRepository implements the FlightRepository interface
type GormFlightRepository struct {
	db *gorm.DB
}

// NewGormFlightRepository creates a new GORM flight repository
func NewGormFlightRepository(db *gorm.DB) repository.FlightRepository {
	return &GormFlightRepository{
		db: db,
	}
}

// FlightRecords GORM model for database mapping
type FlightRecords struct {
	ID              uint       `gorm:"primaryKey"`
	FlightDate      string     `gorm:"column:flight_date;size:10;uniqueIndex:idx_flight_key,priority:1;index"`
	FlightNumber    string     `gorm:"column:flight_number;size:16;uniqueIndex:idx_flight_key,priority:2"`
	Departure       string     `gorm:"column:departure;size:4;uniqueIndex:idx_flight_key,priority:3"`
	Carrier         string     `gorm:"column:carrier;size:4"`
	Arrival         string     `gorm:"column:arrival;size:4"`
	AircraftReg     string     `gorm:"column:aircraft_reg;size:16;index"`
	AircraftType    string     `gorm:"column:aircraft_type;size:16"`
	Status          string     `gorm:"column:status"`
	STD             *time.Time `gorm:"column:std"`
	STA             *time.Time `gorm:"column:sta"`
	ETD             *time.Time `gorm:"column:etd"`
	ETA             *time.Time `gorm:"column:eta"`
	ATD             *time.Time `gorm:"column:atd"`
	ATA             *time.Time `gorm:"column:ata"`
	BlockMinutes    int        `gorm:"column:block_minutes"`
	Pax             int        `gorm:"column:pax"`
	Source          string     `gorm:"column:source;size:8"`
	SourceUpdatedAt time.Time  `gorm:"column:updated_at"`
	CreatedAt       time.Time
}

// TableName overrides the default table name
func (FlightRecords) TableName() string {
	return "flight_records"
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func flightModel(f entity.FlightRecord) FlightRecords {
	return FlightRecords{
		FlightDate:      f.FlightDate,
		FlightNumber:    f.FlightNumber,
		Departure:       f.Departure,
		Carrier:         f.Carrier,
		Arrival:         f.Arrival,
		AircraftReg:     f.AircraftReg,
		AircraftType:    f.AircraftType,
		Status:          f.Status,
		STD:             utcPtr(f.STD),
		STA:             utcPtr(f.STA),
		ETD:             utcPtr(f.ETD),
		ETA:             utcPtr(f.ETA),
		ATD:             utcPtr(f.ATD),
		ATA:             utcPtr(f.ATA),
		BlockMinutes:    f.BlockMinutes,
		Pax:             f.Pax,
		Source:          string(f.Source),
		SourceUpdatedAt: f.UpdatedAt.UTC(),
	}
}

func (m FlightRecords) toEntity() entity.FlightRecord {
	return entity.FlightRecord{
		FlightKey: entity.FlightKey{
			FlightDate:   m.FlightDate,
			FlightNumber: m.FlightNumber,
			Departure:    m.Departure,
		},
		Carrier:      m.Carrier,
		Arrival:      m.Arrival,
		AircraftReg:  m.AircraftReg,
		AircraftType: m.AircraftType,
		Status:       m.Status,
		STD:          utcPtr(m.STD),
		STA:          utcPtr(m.STA),
		ETD:          utcPtr(m.ETD),
		ETA:          utcPtr(m.ETA),
		ATD:          utcPtr(m.ATD),
		ATA:          utcPtr(m.ATA),
		BlockMinutes: m.BlockMinutes,
		Pax:          m.Pax,
		Source:       entity.Source(m.Source),
		UpdatedAt:    m.SourceUpdatedAt.UTC(),
	}
}

// UpsertFlights merges flight legs keyed by (date, flight number, departure).
// The incoming leg replaces the stored one as a whole.
func (r *GormFlightRepository) UpsertFlights(ctx context.Context, flights []entity.FlightRecord) (entity.UpsertCounts, error) {
	var counts entity.UpsertCounts
	for _, chunk := range chunks(flights, upsertChunkSize) {
		var chunkCounts entity.UpsertCounts
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, f := range chunk {
				var existing FlightRecords
				err := tx.Where("flight_date = ? AND flight_number = ? AND departure = ?",
					f.FlightDate, f.FlightNumber, f.Departure).Take(&existing).Error
				found := err == nil
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}

				cur := existing.toEntity()
				action := decideWrite(found, f.Provenance(), cur.Provenance(), found && cur.SameContent(f))
				action.count(&chunkCounts)

				m := flightModel(f)
				switch action {
				case actionInsert:
					err = tx.Clauses(clause.OnConflict{
						Columns:   []clause.Column{{Name: "flight_date"}, {Name: "flight_number"}, {Name: "departure"}},
						UpdateAll: true,
					}).Create(&m).Error
				case actionReplace:
					m.ID = existing.ID
					m.CreatedAt = existing.CreatedAt
					err = tx.Save(&m).Error
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return counts, err
		}
		counts.Add(chunkCounts)
	}
	return counts, nil
}

// GetFlight finds a flight leg by its composite key
func (r *GormFlightRepository) GetFlight(ctx context.Context, key entity.FlightKey) (*entity.FlightRecord, error) {
	var m FlightRecords
	result := r.db.WithContext(ctx).
		Where("flight_date = ? AND flight_number = ? AND departure = ?", key.FlightDate, key.FlightNumber, key.Departure).
		Take(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, entity.ErrNotFound
		}
		return nil, result.Error
	}

	f := m.toEntity()
	return &f, nil
}

// ListFlights returns flight legs dated inside the window
func (r *GormFlightRepository) ListFlights(ctx context.Context, window entity.TimeWindow) ([]entity.FlightRecord, error) {
	var models []FlightRecords
	err := r.db.WithContext(ctx).
		Where("flight_date BETWEEN ? AND ?", entity.FormatDate(window.From), entity.FormatDate(window.To)).
		Order("flight_date, flight_number, departure").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	flights := make([]entity.FlightRecord, 0, len(models))
	for _, m := range models {
		flights = append(flights, m.toEntity())
	}
	return flights, nil
}

// CountFlights counts flight legs dated inside the window
func (r *GormFlightRepository) CountFlights(ctx context.Context, window entity.TimeWindow) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&FlightRecords{}).
		Where("flight_date BETWEEN ? AND ?", entity.FormatDate(window.From), entity.FormatDate(window.To)).
		Count(&n).Error
	return n, err
}
