package utils

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/pkg/logger"
)

const (
	headerScanRows   = 5
	maxStandbyDays   = 62
	nonOperatingMark = "*"
)

var (
	// ErrHeaderNotFound is returned when no header row matches the report contract
	ErrHeaderNotFound = errors.New("report header not found")
	// ErrUnknownReport is returned for an unsupported report type
	ErrUnknownReport = errors.New("unknown report type")
)

// ReportParser maps tabular exports to canonical records
type ReportParser struct {
	airports   repository.ReferenceRepository
	thresholds entity.Thresholds
	logger     logger.Logger

	mu        sync.Mutex
	locations map[string]*time.Location
}

// NewReportParser creates a parser. Airport reference data converts local export times to UTC.
func NewReportParser(airports repository.ReferenceRepository, thresholds entity.Thresholds, logger logger.Logger) *ReportParser {
	return &ReportParser{
		airports:   airports,
		thresholds: thresholds,
		logger:     logger,
		locations:  make(map[string]*time.Location),
	}
}

// row gives access to one record through the column names of the contract
type row struct {
	cells []string
	index map[string]int
}

func (r row) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

// Parse reads an export. Rows that fail validation are recorded on the batch and skipped.
func (p *ReportParser) Parse(ctx context.Context, upload entity.Upload) (*entity.Batch, error) {
	contract, ok := HeaderContracts[upload.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReport, upload.Type)
	}

	reader := csv.NewReader(bytes.NewReader(upload.Data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	exportedAt := upload.ExportedAt.UTC().Truncate(time.Second)
	batch := &entity.Batch{
		Kind:      upload.Type.Kind(),
		Source:    entity.SourceCSV,
		FetchedAt: exportedAt,
	}

	var index map[string]int
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			batch.Reject(&entity.ParseError{Index: line, Reason: err.Error()})
			continue
		}

		if index == nil {
			if line > headerScanRows {
				return nil, fmt.Errorf("%w in %s", ErrHeaderNotFound, upload.Filename)
			}
			index = matchHeader(record, contract)
			continue
		}
		if isEmptyRecord(record) {
			continue
		}

		r := row{cells: record, index: index}
		var perr *entity.ParseError
		switch upload.Type {
		case entity.ReportCrewHours:
			perr = p.crewHoursRow(r, upload, exportedAt, batch)
		case entity.ReportDayReport:
			perr = p.dayReportRow(ctx, r, exportedAt, batch)
		case entity.ReportRoster:
			perr = p.rosterRow(ctx, r, exportedAt, batch)
		case entity.ReportStandby:
			perr = p.standbyRow(r, exportedAt, batch)
		}
		if perr != nil {
			perr.Index = line
			batch.Reject(perr)
			p.logger.Warn("Skipping malformed export row",
				"file", upload.Filename,
				"line", line,
				"field", perr.Field,
				"reason", perr.Reason)
		}
	}

	if index == nil {
		return nil, fmt.Errorf("%w in %s", ErrHeaderNotFound, upload.Filename)
	}

	p.logger.Info("Parsed export",
		"file", upload.Filename,
		"type", upload.Type,
		"accepted", batch.Len(),
		"rejected", len(batch.Rejected))
	return batch, nil
}

// matchHeader returns the column index when the record satisfies the contract
func matchHeader(record []string, contract HeaderContract) map[string]int {
	index := make(map[string]int)
	for i, cell := range record {
		h := normalizeHeader(cell)
		for col, aliases := range contract.Aliases {
			if _, seen := index[col]; seen {
				continue
			}
			for _, alias := range aliases {
				if h == alias {
					index[col] = i
					break
				}
			}
		}
	}
	for _, col := range contract.Required {
		if _, ok := index[col]; !ok {
			return nil
		}
	}
	return index
}

func isEmptyRecord(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (p *ReportParser) crewHoursRow(r row, upload entity.Upload, exportedAt time.Time, batch *entity.Batch) *entity.ParseError {
	id := r.get(ColCrewID)
	if id == "" {
		return &entity.ParseError{Field: ColCrewID, Reason: "crew id is required"}
	}
	if strings.HasPrefix(id, nonOperatingMark) {
		return nil
	}

	h28, err := ParseHours(r.get(ColHours28))
	if err != nil {
		return &entity.ParseError{Field: ColHours28, Reason: err.Error()}
	}
	h12, err := ParseHours(r.get(ColHours12))
	if err != nil {
		return &entity.ParseError{Field: ColHours12, Reason: err.Error()}
	}

	date := upload.ReportDate
	if date == "" {
		date = entity.FormatDate(exportedAt)
	}

	name := r.get(ColCrewName)
	batch.Crew = append(batch.Crew, entity.CrewMember{
		CrewID:    id,
		Name:      name,
		Source:    entity.SourceCSV,
		UpdatedAt: exportedAt,
	})
	batch.Reported = append(batch.Reported, entity.ComplianceSnapshot{
		CrewID:          id,
		CrewName:        name,
		CalculationDate: date,
		Hours28Day:      entity.RoundHours(h28),
		Hours12Month:    entity.RoundHours(h12),
		WarningLevel:    p.thresholds.Classify(h28),
		Source:          entity.SourceCSV,
		ComputedAt:      exportedAt,
	})
	return nil
}

func (p *ReportParser) dayReportRow(ctx context.Context, r row, exportedAt time.Time, batch *entity.Batch) *entity.ParseError {
	date, err := ParseFlexibleDate(r.get(ColDate))
	if err != nil {
		return &entity.ParseError{Field: ColDate, Reason: err.Error()}
	}
	flightNo := strings.ToUpper(strings.ReplaceAll(r.get(ColFlightNo), " ", ""))
	if flightNo == "" {
		return &entity.ParseError{Field: ColFlightNo, Reason: "flight number is required"}
	}
	dep := strings.ToUpper(r.get(ColDeparture))
	if !IsIATACode(dep) {
		return &entity.ParseError{Field: ColDeparture, Reason: fmt.Sprintf("invalid airport code %q", dep)}
	}
	arr := strings.ToUpper(r.get(ColArrival))
	if arr != "" && !IsIATACode(arr) {
		return &entity.ParseError{Field: ColArrival, Reason: fmt.Sprintf("invalid airport code %q", arr)}
	}

	std, err := OptionalInstant(date, r.get(ColSTD), p.location(ctx, dep))
	if err != nil {
		return &entity.ParseError{Field: ColSTD, Reason: err.Error()}
	}
	sta, err := OptionalInstant(date, r.get(ColSTA), p.location(ctx, arr))
	if err != nil {
		return &entity.ParseError{Field: ColSTA, Reason: err.Error()}
	}
	if std != nil && sta != nil && sta.Before(*std) {
		next := sta.Add(24 * time.Hour)
		sta = &next
	}
	block, err := ParseDurationMinutes(r.get(ColBlock))
	if err != nil {
		return &entity.ParseError{Field: ColBlock, Reason: err.Error()}
	}

	batch.Flights = append(batch.Flights, entity.FlightRecord{
		FlightKey: entity.FlightKey{
			FlightDate:   entity.FormatDate(date),
			FlightNumber: flightNo,
			Departure:    dep,
		},
		Arrival:      arr,
		AircraftType: strings.ToUpper(r.get(ColAircraftType)),
		AircraftReg:  strings.ToUpper(r.get(ColAircraftReg)),
		Status:       r.get(ColStatus),
		STD:          std,
		STA:          sta,
		BlockMinutes: block,
		Source:       entity.SourceCSV,
		UpdatedAt:    exportedAt,
	})
	return nil
}

func (p *ReportParser) rosterRow(ctx context.Context, r row, exportedAt time.Time, batch *entity.Batch) *entity.ParseError {
	id := r.get(ColCrewID)
	if id == "" {
		return &entity.ParseError{Field: ColCrewID, Reason: "crew id is required"}
	}
	date, err := ParseFlexibleDate(r.get(ColDate))
	if err != nil {
		return &entity.ParseError{Field: ColDate, Reason: err.Error()}
	}

	flightNo := strings.ToUpper(strings.ReplaceAll(r.get(ColFlightNo), " ", ""))
	duty := strings.ToUpper(r.get(ColDuty))
	if duty == "" {
		duty = flightNo
	}
	if duty == "" {
		return &entity.ParseError{Field: ColDuty, Reason: "duty code or flight number is required"}
	}
	actType := entity.ClassifyDutyCode(duty)
	if flightNo != "" && actType == entity.ActivityOther {
		actType = entity.ActivityFly
	}

	dep := strings.ToUpper(r.get(ColDeparture))
	if dep != "" && !IsIATACode(dep) {
		return &entity.ParseError{Field: ColDeparture, Reason: fmt.Sprintf("invalid airport code %q", dep)}
	}

	loc := p.location(ctx, dep)
	start, end := date, date.Add(24*time.Hour-time.Minute)
	if v := r.get(ColStart); !IsBlank(v) {
		if start, err = ComposeInstant(date, v, loc); err != nil {
			return &entity.ParseError{Field: ColStart, Reason: err.Error()}
		}
	}
	if v := r.get(ColEnd); !IsBlank(v) {
		if end, err = ComposeInstant(date, v, loc); err != nil {
			return &entity.ParseError{Field: ColEnd, Reason: err.Error()}
		}
		if end.Before(start) {
			end = end.Add(24 * time.Hour)
		}
	}

	block, err := ParseDurationMinutes(r.get(ColBlock))
	if err != nil {
		return &entity.ParseError{Field: ColBlock, Reason: err.Error()}
	}
	if block == 0 && actType == entity.ActivityFly && !IsBlank(r.get(ColStart)) && !IsBlank(r.get(ColEnd)) {
		block = int(end.Sub(start).Minutes())
	}

	batch.Roster = append(batch.Roster, entity.RosterActivity{
		CrewID:       id,
		ActivityDate: entity.FormatDate(date),
		DutyCode:     duty,
		ActivityType: actType,
		FlightNumber: flightNo,
		Departure:    dep,
		StartAt:      start,
		EndAt:        end,
		BlockMinutes: block,
		Source:       entity.SourceCSV,
		UpdatedAt:    exportedAt,
	})
	return nil
}

func (p *ReportParser) standbyRow(r row, exportedAt time.Time, batch *entity.Batch) *entity.ParseError {
	id := r.get(ColCrewID)
	if id == "" {
		return &entity.ParseError{Field: ColCrewID, Reason: "crew id is required"}
	}
	from, err := ParseFlexibleDate(r.get(ColStartDate))
	if err != nil {
		return &entity.ParseError{Field: ColStartDate, Reason: err.Error()}
	}
	to := from
	if v := r.get(ColEndDate); !IsBlank(v) {
		if to, err = ParseFlexibleDate(v); err != nil {
			return &entity.ParseError{Field: ColEndDate, Reason: err.Error()}
		}
	}
	if to.Before(from) {
		return &entity.ParseError{Field: ColEndDate, Reason: "end date before start date"}
	}
	if to.Sub(from) > maxStandbyDays*24*time.Hour {
		return &entity.ParseError{Field: ColEndDate, Reason: "date range too long"}
	}

	duty := strings.ToUpper(r.get(ColStatus))
	if duty == "" {
		duty = "SBY"
	}
	actType := entity.ClassifyDutyCode(duty)
	if actType == entity.ActivityOther || actType == entity.ActivityFly {
		actType = entity.ActivityStandby
	}

	for _, day := range entity.NewTimeWindow(from, to).Days() {
		batch.Roster = append(batch.Roster, entity.RosterActivity{
			CrewID:       id,
			ActivityDate: entity.FormatDate(day),
			DutyCode:     duty,
			ActivityType: actType,
			StartAt:      day,
			EndAt:        day.Add(24*time.Hour - time.Minute),
			Source:       entity.SourceCSV,
			UpdatedAt:    exportedAt,
		})
	}
	return nil
}

// location resolves the timezone of an airport, UTC when unknown
func (p *ReportParser) location(ctx context.Context, code string) *time.Location {
	if code == "" || p.airports == nil {
		return time.UTC
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if loc, ok := p.locations[code]; ok {
		return loc
	}

	loc := time.UTC
	airport, err := p.airports.GetAirport(ctx, code)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			p.logger.Error("Error getting airport timezone", "airport", code, "error", err)
		}
	} else {
		loc = airport.Location()
	}
	p.locations[code] = loc
	return loc
}
