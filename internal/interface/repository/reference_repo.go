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

// GormReferenceRepository implements the ReferenceRepository interface
type GormReferenceRepository struct {
	db *gorm.DB
}

// NewGormReferenceRepository creates a new GORM reference data repository
func NewGormReferenceRepository(db *gorm.DB) repository.ReferenceRepository {
	return &GormReferenceRepository{
		db: db,
	}
}

// AircraftList GORM model for database mapping
type AircraftList struct {
	ID           uint   `gorm:"primaryKey"`
	Registration string `gorm:"column:registration;uniqueIndex;size:16"`
	Type         string `gorm:"column:aircraft_type;size:16"`
	Country      string `gorm:"column:country"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName overrides the default table name
func (AircraftList) TableName() string {
	return "m_aircraft"
}

// AirportList GORM model for database mapping
type AirportList struct {
	ID               uint   `gorm:"primaryKey"`
	Code             string `gorm:"column:airport_code;uniqueIndex;size:4"`
	Name             string `gorm:"column:airport_name"`
	Country          string `gorm:"column:country"`
	TzName           string `gorm:"column:tzname"`
	UTCOffsetMinutes int    `gorm:"column:utc_offset_minutes"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName overrides the default table name
func (AirportList) TableName() string {
	return "m_airports"
}

// UpsertAircraft merges aircraft reference rows keyed by registration
func (r *GormReferenceRepository) UpsertAircraft(ctx context.Context, aircraft []entity.Aircraft) (entity.UpsertCounts, error) {
	var counts entity.UpsertCounts
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range aircraft {
			var existing AircraftList
			result := tx.Where("registration = ?", a.Registration).Limit(1).Find(&existing)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 && existing.Type == a.Type && existing.Country == a.Country {
				counts.Unchanged++
				continue
			}
			if result.RowsAffected > 0 {
				counts.Updated++
			} else {
				counts.Inserted++
			}

			m := AircraftList{Registration: a.Registration, Type: a.Type, Country: a.Country}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "registration"}},
				DoUpdates: clause.AssignmentColumns([]string{"aircraft_type", "country", "updated_at"}),
			}).Create(&m).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	return counts, err
}

// UpsertAirports merges airport reference rows keyed by IATA code
func (r *GormReferenceRepository) UpsertAirports(ctx context.Context, airports []entity.Airport) (entity.UpsertCounts, error) {
	var counts entity.UpsertCounts
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range airports {
			var existing AirportList
			result := tx.Where("airport_code = ?", a.Code).Limit(1).Find(&existing)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 && existing.Name == a.Name && existing.TzName == a.TzName &&
				existing.Country == a.Country && existing.UTCOffsetMinutes == a.UTCOffsetMinutes {
				counts.Unchanged++
				continue
			}
			if result.RowsAffected > 0 {
				counts.Updated++
			} else {
				counts.Inserted++
			}

			m := AirportList{
				Code:             a.Code,
				Name:             a.Name,
				Country:          a.Country,
				TzName:           a.TzName,
				UTCOffsetMinutes: a.UTCOffsetMinutes,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "airport_code"}},
				DoUpdates: clause.AssignmentColumns([]string{"airport_name", "country", "tzname", "utc_offset_minutes", "updated_at"}),
			}).Create(&m).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	return counts, err
}

// GetAircraft finds an aircraft by registration
func (r *GormReferenceRepository) GetAircraft(ctx context.Context, registration string) (*entity.Aircraft, error) {
	var m AircraftList
	result := r.db.WithContext(ctx).Where("registration = ?", registration).Take(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, entity.ErrNotFound
		}
		return nil, result.Error
	}

	// Convert GORM model to domain entity
	return &entity.Aircraft{
		Registration: m.Registration,
		Type:         m.Type,
		Country:      m.Country,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

// GetAirport finds an airport by IATA code
func (r *GormReferenceRepository) GetAirport(ctx context.Context, code string) (*entity.Airport, error) {
	var m AirportList
	result := r.db.WithContext(ctx).Where("airport_code = ?", code).Take(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, entity.ErrNotFound
		}
		return nil, result.Error
	}

	// Convert GORM model to domain entity
	return &entity.Airport{
		Code:             m.Code,
		Name:             m.Name,
		Country:          m.Country,
		TzName:           m.TzName,
		UTCOffsetMinutes: m.UTCOffsetMinutes,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}
