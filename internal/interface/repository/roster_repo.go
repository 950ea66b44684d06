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

// GormRosterRepository implements the RosterRepository interface
type GormRosterRepository struct {
	db *gorm.DB
}

// NewGormRosterRepository creates a new GORM roster repository
func NewGormRosterRepository(db *gorm.DB) repository.RosterRepository {
	return &GormRosterRepository{
		db: db,
	}
}

// RosterActivities GORM model for database mapping
type RosterActivities struct {
	ID              uint      `gorm:"primaryKey"`
	CrewID          string    `gorm:"column:crew_id;size:32;uniqueIndex:idx_roster_key,priority:1;index"`
	ActivityDate    string    `gorm:"column:activity_date;size:10;uniqueIndex:idx_roster_key,priority:2;index"`
	DutyCode        string    `gorm:"column:duty_code;size:16;uniqueIndex:idx_roster_key,priority:3"`
	FlightNumber    string    `gorm:"column:flight_number;size:16;uniqueIndex:idx_roster_key,priority:4"`
	Departure       string    `gorm:"column:departure;size:4;uniqueIndex:idx_roster_key,priority:5"`
	ActivityType    string    `gorm:"column:activity_type;size:16;index"`
	StartAt         time.Time `gorm:"column:start_at"`
	EndAt           time.Time `gorm:"column:end_at"`
	BlockMinutes    int       `gorm:"column:block_minutes"`
	CrewKnown       bool      `gorm:"column:crew_known;index"`
	Source          string    `gorm:"column:source;size:8"`
	SourceUpdatedAt time.Time `gorm:"column:updated_at"`
	CreatedAt       time.Time
}

// TableName overrides the default table name
func (RosterActivities) TableName() string {
	return "roster_activities"
}

var rosterKeyColumns = []clause.Column{
	{Name: "crew_id"}, {Name: "activity_date"}, {Name: "duty_code"}, {Name: "flight_number"}, {Name: "departure"},
}

func rosterModel(a entity.RosterActivity) RosterActivities {
	return RosterActivities{
		CrewID:          a.CrewID,
		ActivityDate:    a.ActivityDate,
		DutyCode:        a.DutyCode,
		FlightNumber:    a.FlightNumber,
		Departure:       a.Departure,
		ActivityType:    string(a.ActivityType),
		StartAt:         a.StartAt.UTC(),
		EndAt:           a.EndAt.UTC(),
		BlockMinutes:    a.BlockMinutes,
		CrewKnown:       a.CrewKnown,
		Source:          string(a.Source),
		SourceUpdatedAt: a.UpdatedAt.UTC(),
	}
}

func (m RosterActivities) toEntity() entity.RosterActivity {
	return entity.RosterActivity{
		CrewID:       m.CrewID,
		ActivityDate: m.ActivityDate,
		DutyCode:     m.DutyCode,
		ActivityType: entity.ActivityType(m.ActivityType),
		FlightNumber: m.FlightNumber,
		Departure:    m.Departure,
		StartAt:      m.StartAt.UTC(),
		EndAt:        m.EndAt.UTC(),
		BlockMinutes: m.BlockMinutes,
		CrewKnown:    m.CrewKnown,
		Source:       entity.Source(m.Source),
		UpdatedAt:    m.SourceUpdatedAt.UTC(),
	}
}

// UpsertRoster merges roster activities. Activities of crew missing from the
// master data are kept with the orphan flag set.
func (r *GormRosterRepository) UpsertRoster(ctx context.Context, activities []entity.RosterActivity) (entity.UpsertCounts, error) {
	var counts entity.UpsertCounts
	for _, chunk := range chunks(activities, upsertChunkSize) {
		var chunkCounts entity.UpsertCounts
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			known, err := knownCrew(tx, chunk)
			if err != nil {
				return err
			}

			for _, a := range chunk {
				a.CrewKnown = known[a.CrewID]
				k := a.Key()

				var existing RosterActivities
				err := tx.Where("crew_id = ? AND activity_date = ? AND duty_code = ? AND flight_number = ? AND departure = ?",
					k.CrewID, k.ActivityDate, k.DutyCode, k.FlightNumber, k.Departure).Take(&existing).Error
				found := err == nil
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}

				cur := existing.toEntity()
				action := decideWrite(found, a.Provenance(), cur.Provenance(), found && cur.SameContent(a))
				action.count(&chunkCounts)

				m := rosterModel(a)
				switch action {
				case actionInsert:
					err = tx.Clauses(clause.OnConflict{Columns: rosterKeyColumns, UpdateAll: true}).Create(&m).Error
				case actionReplace:
					m.ID = existing.ID
					m.CreatedAt = existing.CreatedAt
					err = tx.Save(&m).Error
				case actionUnchanged:
					if existing.CrewKnown != a.CrewKnown {
						err = tx.Model(&existing).Update("crew_known", a.CrewKnown).Error
					}
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

func knownCrew(tx *gorm.DB, activities []entity.RosterActivity) (map[string]bool, error) {
	ids := make([]string, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.CrewID)
	}

	var found []string
	if err := tx.Model(&CrewMembers{}).Where("crew_id IN ?", ids).Pluck("crew_id", &found).Error; err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(found))
	for _, id := range found {
		known[id] = true
	}
	return known, nil
}

// ListFlyActivities returns fly activities dated inside the window
func (r *GormRosterRepository) ListFlyActivities(ctx context.Context, window entity.TimeWindow) ([]entity.RosterActivity, error) {
	var models []RosterActivities
	err := r.db.WithContext(ctx).
		Where("activity_type = ? AND activity_date BETWEEN ? AND ?",
			string(entity.ActivityFly), entity.FormatDate(window.From), entity.FormatDate(window.To)).
		Order("crew_id, activity_date, start_at").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	activities := make([]entity.RosterActivity, 0, len(models))
	for _, m := range models {
		activities = append(activities, m.toEntity())
	}
	return activities, nil
}

// RelinkOrphans clears the orphan flag of activities whose crew has since arrived
func (r *GormRosterRepository) RelinkOrphans(ctx context.Context) (int64, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&RosterActivities{}).
		Where("crew_known = ? AND crew_id IN (?)", false, db.Model(&CrewMembers{}).Select("crew_id")).
		Update("crew_known", true)
	return result.RowsAffected, result.Error
}

// CountOrphans counts activities whose crew is unknown
func (r *GormRosterRepository) CountOrphans(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&RosterActivities{}).Where("crew_known = ?", false).Count(&n).Error
	return n, err
}

// CountCrewWithoutActivity counts crew with no roster rows in the window
func (r *GormRosterRepository) CountCrewWithoutActivity(ctx context.Context, window entity.TimeWindow) (int64, error) {
	db := r.db.WithContext(ctx)
	active := db.Model(&RosterActivities{}).
		Select("crew_id").
		Where("activity_date BETWEEN ? AND ?", entity.FormatDate(window.From), entity.FormatDate(window.To))

	var n int64
	err := db.Model(&CrewMembers{}).Where("crew_id NOT IN (?)", active).Count(&n).Error
	return n, err
}

// Count counts every stored activity
func (r *GormRosterRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&RosterActivities{}).Count(&n).Error
	return n, err
}
