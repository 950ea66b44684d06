package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCrewRepository implements the CrewRepository interface
type GormCrewRepository struct {
	db *gorm.DB
}

// NewGormCrewRepository creates a new GORM crew repository
func NewGormCrewRepository(db *gorm.DB) repository.CrewRepository {
	return &GormCrewRepository{
		db: db,
	}
}

// CrewMembers GORM model for database mapping
type CrewMembers struct {
	ID              uint      `gorm:"primaryKey"`
	CrewID          string    `gorm:"column:crew_id;uniqueIndex;size:32"`
	Name            string    `gorm:"column:name"`
	ShortName       string    `gorm:"column:short_name"`
	Base            string    `gorm:"column:base;size:8"`
	Gender          string    `gorm:"column:gender;size:1"`
	Email           string    `gorm:"column:email"`
	Qualifications  string    `gorm:"column:qualifications"`
	Source          string    `gorm:"column:source;size:8"`
	SourceUpdatedAt time.Time `gorm:"column:updated_at"`
	CreatedAt       time.Time
}

// TableName overrides the default table name
func (CrewMembers) TableName() string {
	return "crew_members"
}

func crewModel(c entity.CrewMember) CrewMembers {
	return CrewMembers{
		CrewID:          c.CrewID,
		Name:            c.Name,
		ShortName:       c.ShortName,
		Base:            c.Base,
		Gender:          c.Gender,
		Email:           c.Email,
		Qualifications:  strings.Join(c.Qualifications, ","),
		Source:          string(c.Source),
		SourceUpdatedAt: c.UpdatedAt.UTC(),
	}
}

func (m CrewMembers) toEntity() entity.CrewMember {
	var quals []string
	if m.Qualifications != "" {
		quals = strings.Split(m.Qualifications, ",")
	}
	return entity.CrewMember{
		CrewID:         m.CrewID,
		Name:           m.Name,
		ShortName:      m.ShortName,
		Base:           m.Base,
		Gender:         m.Gender,
		Email:          m.Email,
		Qualifications: quals,
		Source:         entity.Source(m.Source),
		UpdatedAt:      m.SourceUpdatedAt.UTC(),
	}
}

// UpsertCrew merges crew master records keyed by crew id
func (r *GormCrewRepository) UpsertCrew(ctx context.Context, crew []entity.CrewMember) (entity.UpsertCounts, error) {
	var counts entity.UpsertCounts
	for _, chunk := range chunks(crew, upsertChunkSize) {
		var chunkCounts entity.UpsertCounts
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, c := range chunk {
				var existing CrewMembers
				err := tx.Where("crew_id = ?", c.CrewID).Take(&existing).Error
				found := err == nil
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}

				cur := existing.toEntity()
				action := decideWrite(found, c.Provenance(), cur.Provenance(), found && cur.SameContent(c))
				action.count(&chunkCounts)

				m := crewModel(c)
				switch action {
				case actionInsert:
					err = tx.Clauses(clause.OnConflict{
						Columns:   []clause.Column{{Name: "crew_id"}},
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

// GetCrew finds a crew member by crew id
func (r *GormCrewRepository) GetCrew(ctx context.Context, crewID string) (*entity.CrewMember, error) {
	var m CrewMembers
	result := r.db.WithContext(ctx).Where("crew_id = ?", crewID).Take(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, entity.ErrNotFound
		}
		return nil, result.Error
	}

	c := m.toEntity()
	return &c, nil
}

// ListCrew returns every known crew member ordered by crew id
func (r *GormCrewRepository) ListCrew(ctx context.Context) ([]entity.CrewMember, error) {
	var models []CrewMembers
	if err := r.db.WithContext(ctx).Order("crew_id").Find(&models).Error; err != nil {
		return nil, err
	}

	crew := make([]entity.CrewMember, 0, len(models))
	for _, m := range models {
		crew = append(crew, m.toEntity())
	}
	return crew, nil
}

// CountCrew counts crew master records
func (r *GormCrewRepository) CountCrew(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&CrewMembers{}).Count(&n).Error
	return n, err
}
