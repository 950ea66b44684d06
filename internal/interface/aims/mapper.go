package aims

import (
	"fmt"
	"strings"
	"time"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/pkg/utils"
)

var modifiedAtLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/06 15:04",
}

func parseErr(kind entity.EntityKind, index int, field, reason string) *entity.ParseError {
	return &entity.ParseError{Kind: kind, Index: index, Field: field, Reason: reason}
}

func trim(s string) string { return strings.TrimSpace(s) }

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// MapCrew converts one crew list item
func MapCrew(index int, item crewItem, fetchedAt time.Time) (entity.CrewMember, *entity.ParseError) {
	id := trim(item.ID)
	if id == "" || strings.HasPrefix(id, "*") {
		return entity.CrewMember{}, parseErr(entity.KindCrew, index, "Id", "missing crew id")
	}
	name := trim(item.CrewName)
	if name == "" {
		return entity.CrewMember{}, parseErr(entity.KindCrew, index, "CrewName", "missing crew name")
	}
	return entity.CrewMember{
		CrewID:         id,
		Name:           name,
		ShortName:      trim(item.ShortName),
		Base:           upper(item.Location),
		Gender:         upper(item.Sex),
		Email:          strings.ToLower(trim(item.Email)),
		Qualifications: entity.SplitQualifications(item.Qualifications),
		Source:         entity.SourceAIMS,
		UpdatedAt:      fetchedAt,
	}, nil
}

// MapRoster converts one roster detail line of crewID
func MapRoster(index int, crewID string, item rosterItem, fetchedAt time.Time) (entity.RosterActivity, *entity.ParseError) {
	date, err := utils.ComposeDate(item.RostDD, item.RostMM, item.RostYY)
	if err != nil {
		return entity.RosterActivity{}, parseErr(entity.KindRoster, index, "RostDD", err.Error())
	}
	code := upper(item.DutyCode)
	if code == "" {
		return entity.RosterActivity{}, parseErr(entity.KindRoster, index, "DutyCode", "missing duty code")
	}

	act := entity.RosterActivity{
		CrewID:       crewID,
		ActivityDate: entity.FormatDate(date),
		DutyCode:     code,
		ActivityType: entity.ClassifyDutyCode(code),
		FlightNumber: upper(item.FltNo),
		Departure:    upper(item.Dep),
		Source:       entity.SourceAIMS,
		UpdatedAt:    fetchedAt,
	}
	if act.ActivityType == entity.ActivityFly && act.FlightNumber == "" {
		act.FlightNumber = code
	}

	if !utils.IsBlank(item.StartTime) {
		start, err := utils.ComposeInstant(date, item.StartTime, time.UTC)
		if err != nil {
			return entity.RosterActivity{}, parseErr(entity.KindRoster, index, "StartTime", err.Error())
		}
		act.StartAt = start
	}
	if !utils.IsBlank(item.EndTime) {
		end, err := utils.ComposeInstant(date, item.EndTime, time.UTC)
		if err != nil {
			return entity.RosterActivity{}, parseErr(entity.KindRoster, index, "EndTime", err.Error())
		}
		if !act.StartAt.IsZero() && end.Before(act.StartAt) {
			end = end.Add(24 * time.Hour)
		}
		act.EndAt = end
	}
	block, err := utils.ParseDurationMinutes(item.BlockTime)
	if err != nil {
		return entity.RosterActivity{}, parseErr(entity.KindRoster, index, "BlkTime", err.Error())
	}
	act.BlockMinutes = block
	return act, nil
}

func flightDate(item flightItem) (time.Time, error) {
	if !utils.IsBlank(item.FlightDate) {
		return utils.ParseFlexibleDate(item.FlightDate)
	}
	return utils.ComposeDate(item.FlightDD, item.FlightMM, item.FlightYY)
}

// MapFlight converts one flight leg. Times are UTC; a time that would fall
// before departure is moved to the next day.
func MapFlight(index int, item flightItem, fetchedAt time.Time) (entity.FlightRecord, *entity.ParseError) {
	date, err := flightDate(item)
	if err != nil {
		return entity.FlightRecord{}, parseErr(entity.KindFlight, index, "FlightDate", err.Error())
	}
	number := upper(item.FlightNo)
	if number == "" {
		return entity.FlightRecord{}, parseErr(entity.KindFlight, index, "FlightNo", "missing flight number")
	}
	if leg := upper(item.FlightLegCD); leg != "" && leg != "0" {
		number += leg
	}
	dep := upper(item.FlightDep)
	if !utils.IsIATACode(dep) {
		return entity.FlightRecord{}, parseErr(entity.KindFlight, index, "FlightDep", fmt.Sprintf("invalid airport %q", item.FlightDep))
	}

	rec := entity.FlightRecord{
		FlightKey: entity.FlightKey{
			FlightDate:   entity.FormatDate(date),
			FlightNumber: number,
			Departure:    dep,
		},
		Carrier:      upper(item.FlightCarrier),
		Arrival:      upper(item.FlightArr),
		AircraftReg:  upper(item.FlightReg),
		AircraftType: upper(item.FlightAcType),
		Status:       trim(item.FlightStatus),
		Pax:          utils.ParseInt(item.FlightPax),
		Source:       entity.SourceAIMS,
		UpdatedAt:    fetchedAt,
	}

	clocks := []struct {
		field string
		value string
		dst   **time.Time
	}{
		{"FlightStd", item.FlightStd, &rec.STD},
		{"FlightEtd", item.FlightEtd, &rec.ETD},
		{"FlightAtd", item.FlightAtd, &rec.ATD},
		{"FlightSta", item.FlightSta, &rec.STA},
		{"FlightEta", item.FlightEta, &rec.ETA},
		{"FlightAta", item.FlightAta, &rec.ATA},
	}
	for _, c := range clocks {
		t, err := utils.OptionalInstant(date, c.value, time.UTC)
		if err != nil {
			return entity.FlightRecord{}, parseErr(entity.KindFlight, index, c.field, err.Error())
		}
		*c.dst = t
	}
	rollOver(&rec)

	block, err := utils.ParseDurationMinutes(item.FlightBlkTime)
	if err != nil {
		return entity.FlightRecord{}, parseErr(entity.KindFlight, index, "FlightBlkTime", err.Error())
	}
	rec.BlockMinutes = block
	return rec, nil
}

// rollOver shifts times that crossed midnight relative to STD
func rollOver(rec *entity.FlightRecord) {
	if rec.STD == nil {
		return
	}
	std := *rec.STD
	for _, t := range []*time.Time{rec.ETD, rec.ATD} {
		if t != nil && t.Before(std.Add(-12*time.Hour)) {
			*t = t.Add(24 * time.Hour)
		}
	}
	depart := std
	if rec.ATD != nil {
		depart = *rec.ATD
	} else if rec.ETD != nil {
		depart = *rec.ETD
	}
	for _, t := range []*time.Time{rec.STA, rec.ETA, rec.ATA} {
		if t == nil {
			continue
		}
		ref := depart
		if t == rec.STA {
			ref = std
		}
		if t.Before(ref) {
			*t = t.Add(24 * time.Hour)
		}
	}
}

// MapModLog converts one schedule modification log item
func MapModLog(index int, item modLogItem, fetchedAt time.Time) (entity.ModificationLogEntry, *entity.ParseError) {
	date, err := utils.ParseFlexibleDate(item.Day)
	if err != nil {
		return entity.ModificationLogEntry{}, parseErr(entity.KindModLog, index, "FltsSchedModLog_Day", err.Error())
	}
	number := upper(item.Flt)
	if number == "" {
		return entity.ModificationLogEntry{}, parseErr(entity.KindModLog, index, "FltsSchedModLog_Flt", "missing flight number")
	}
	if leg := upper(item.LegCd); leg != "" && leg != "0" {
		number += leg
	}

	entry := entity.ModificationLogEntry{
		FlightKey: entity.FlightKey{
			FlightDate:   entity.FormatDate(date),
			FlightNumber: number,
			Departure:    upper(item.Dep),
		},
		Arrival:          upper(item.Arr),
		Status:           trim(item.Status),
		ModificationType: entity.ClassifyModification(item.Status),
		FieldChanged:     trim(item.Field),
		OldValue:         trim(item.OldValue),
		NewValue:         trim(item.NewValue),
		ModifiedBy:       trim(item.ModifiedBy),
		FetchedAt:        fetchedAt,
	}
	if v := trim(item.ModifiedAt); v != "" {
		for _, layout := range modifiedAtLayouts {
			if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
				entry.ModifiedAt = t
				break
			}
		}
		if entry.ModifiedAt.IsZero() {
			return entity.ModificationLogEntry{}, parseErr(entity.KindModLog, index, "FltsSchedModLog_ModifiedAt", fmt.Sprintf("unrecognised timestamp %q", v))
		}
	}
	return entry, nil
}

// MapAircraft converts one aircraft reference item
func MapAircraft(index int, item aircraftItem, fetchedAt time.Time) (entity.Aircraft, *entity.ParseError) {
	reg := upper(item.Reg)
	if reg == "" {
		return entity.Aircraft{}, parseErr(entity.KindReference, index, "cACReg", "missing registration")
	}
	return entity.Aircraft{
		Registration: reg,
		Type:         upper(item.Type),
		Country:      upper(item.Country),
		UpdatedAt:    fetchedAt,
	}, nil
}

// MapAirport converts one airport reference item. The service carries no UTC
// offset, so a known offset table fills it in.
func MapAirport(index int, item airportItem, fetchedAt time.Time) (entity.Airport, *entity.ParseError) {
	code := upper(item.Code)
	if !utils.IsIATACode(code) {
		return entity.Airport{}, parseErr(entity.KindReference, index, "cAirportCode", fmt.Sprintf("invalid airport %q", item.Code))
	}
	return entity.Airport{
		Code:             code,
		Name:             trim(item.Name),
		Country:          upper(item.Country),
		TzName:           trim(item.TzName),
		UTCOffsetMinutes: UTCOffsetMinutes(code),
		UpdatedAt:        fetchedAt,
	}, nil
}
