package repository

import (
	"context"
	"time"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormComplianceRepository implements the ComplianceRepository interface
type GormComplianceRepository struct {
	db *gorm.DB
}

// NewGormComplianceRepository creates a new GORM compliance repository
func NewGormComplianceRepository(db *gorm.DB) repository.ComplianceRepository {
	return &GormComplianceRepository{
		db: db,
	}
}

// ComplianceSnapshots GORM model for database mapping
type ComplianceSnapshots struct {
	ID              uint      `gorm:"primaryKey"`
	CrewID          string    `gorm:"column:crew_id;size:32;uniqueIndex:idx_compliance_key,priority:2"`
	CalculationDate string    `gorm:"column:calculation_date;size:10;uniqueIndex:idx_compliance_key,priority:1"`
	CrewName        string    `gorm:"column:crew_name"`
	Hours28Day      float64   `gorm:"column:hours_28_day"`
	Hours12Month    float64   `gorm:"column:hours_12_month"`
	WarningLevel    string    `gorm:"column:warning_level;size:16;index"`
	Source          string    `gorm:"column:source;size:8"`
	ComputedAt      time.Time `gorm:"column:computed_at"`
}

// TableName overrides the default table name
func (ComplianceSnapshots) TableName() string {
	return "compliance_snapshots"
}

func complianceModel(s entity.ComplianceSnapshot) ComplianceSnapshots {
	return ComplianceSnapshots{
		CrewID:          s.CrewID,
		CalculationDate: s.CalculationDate,
		CrewName:        s.CrewName,
		Hours28Day:      s.Hours28Day,
		Hours12Month:    s.Hours12Month,
		WarningLevel:    string(s.WarningLevel),
		Source:          string(s.Source),
		ComputedAt:      s.ComputedAt.UTC(),
	}
}

func (m ComplianceSnapshots) toEntity() entity.ComplianceSnapshot {
	return entity.ComplianceSnapshot{
		CrewID:          m.CrewID,
		CrewName:        m.CrewName,
		CalculationDate: m.CalculationDate,
		Hours28Day:      m.Hours28Day,
		Hours12Month:    m.Hours12Month,
		WarningLevel:    entity.WarningLevel(m.WarningLevel),
		Source:          entity.Source(m.Source),
		ComputedAt:      m.ComputedAt.UTC(),
	}
}

// ReplaceSnapshots deletes and rewrites every snapshot of the date in one transaction
func (r *GormComplianceRepository) ReplaceSnapshots(ctx context.Context, date string, snapshots []entity.ComplianceSnapshot) error {
	models := make([]ComplianceSnapshots, 0, len(snapshots))
	for _, s := range snapshots {
		models = append(models, complianceModel(s))
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("calculation_date = ?", date).Delete(&ComplianceSnapshots{}).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return tx.CreateInBatches(models, upsertChunkSize).Error
	})
}

// SaveReported stores exported crew-hour totals. Engine output for the same
// crew and date is never overwritten.
func (r *GormComplianceRepository) SaveReported(ctx context.Context, snapshots []entity.ComplianceSnapshot) (entity.UpsertCounts, error) {
	var counts entity.UpsertCounts
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range snapshots {
			var existing ComplianceSnapshots
			result := tx.Where("calculation_date = ? AND crew_id = ?", s.CalculationDate, s.CrewID).Limit(1).Find(&existing)
			if result.Error != nil {
				return result.Error
			}

			m := complianceModel(s)
			switch {
			case result.RowsAffected == 0:
				counts.Inserted++
			case existing.Source == string(entity.SourceEngine):
				counts.Skipped++
				continue
			default:
				counts.Updated++
			}

			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "calculation_date"}, {Name: "crew_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"crew_name", "hours_28_day", "hours_12_month", "warning_level", "source", "computed_at"}),
			}).Create(&m).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	return counts, err
}

// ListSnapshots returns the date's snapshots, highest 28-day hours first
func (r *GormComplianceRepository) ListSnapshots(ctx context.Context, date, crewID string) ([]entity.ComplianceSnapshot, error) {
	q := r.db.WithContext(ctx).Where("calculation_date = ?", date)
	if crewID != "" {
		q = q.Where("crew_id = ?", crewID)
	}

	var models []ComplianceSnapshots
	if err := q.Order("hours_28_day DESC, crew_id").Find(&models).Error; err != nil {
		return nil, err
	}

	snaps := make([]entity.ComplianceSnapshot, 0, len(models))
	for _, m := range models {
		snaps = append(snaps, m.toEntity())
	}
	return snaps, nil
}

// DenseDates returns dates passing the minimum crew density, newest first
func (r *GormComplianceRepository) DenseDates(ctx context.Context, from, to string, minCrew int) ([]string, error) {
	var dates []string
	err := r.db.WithContext(ctx).Model(&ComplianceSnapshots{}).
		Select("calculation_date").
		Where("calculation_date BETWEEN ? AND ? AND hours_28_day > 0", from, to).
		Group("calculation_date").
		Having("COUNT(*) >= ?", minCrew).
		Order("calculation_date DESC").
		Pluck("calculation_date", &dates).Error
	return dates, err
}

// CountNonZero counts crew with flown hours on the date
func (r *GormComplianceRepository) CountNonZero(ctx context.Context, date string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&ComplianceSnapshots{}).
		Where("calculation_date = ? AND hours_28_day > 0", date).
		Count(&n).Error
	return n, err
}
