package utils

import "crewsync-service/internal/domain/entity"

// Column identifiers shared by the export header contracts
const (
	ColCrewID       = "crew_id"
	ColCrewName     = "crew_name"
	ColHours28      = "hours_28"
	ColHours12      = "hours_12"
	ColDate         = "date"
	ColFlightNo     = "flight_no"
	ColDeparture    = "dep"
	ColArrival      = "arr"
	ColSTD          = "std"
	ColSTA          = "sta"
	ColAircraftType = "ac_type"
	ColAircraftReg  = "ac_reg"
	ColStatus       = "status"
	ColBlock        = "block"
	ColDuty         = "duty"
	ColStart        = "start"
	ColEnd          = "end"
	ColStartDate    = "start_date"
	ColEndDate      = "end_date"
	ColBase         = "base"
)

// HeaderContract lists the accepted header aliases per column of one report type
type HeaderContract struct {
	Aliases  map[string][]string
	Required []string
}

// HeaderContracts is the fixed header contract per export type
var HeaderContracts = map[entity.ReportType]HeaderContract{
	entity.ReportCrewHours: {
		Aliases: map[string][]string{
			ColCrewID:   {"staff id", "staffid", "crew id", "id"},
			ColCrewName: {"name", "crew name", "full name"},
			ColHours28:  {"total 28 days", "28 days", "28-day", "28 day"},
			ColHours12:  {"total 12 months", "12 months", "12-month", "12 month"},
		},
		Required: []string{ColCrewID, ColHours28},
	},
	entity.ReportDayReport: {
		Aliases: map[string][]string{
			ColDate:         {"date", "flight date", "day"},
			ColFlightNo:     {"flight no", "flt", "flight", "flight number"},
			ColDeparture:    {"dep", "from", "departure"},
			ColArrival:      {"arr", "to", "arrival"},
			ColSTD:          {"std"},
			ColSTA:          {"sta"},
			ColAircraftType: {"ac type", "a/c type", "aircraft type", "type"},
			ColAircraftReg:  {"ac reg", "a/c reg", "reg", "registration"},
			ColStatus:       {"status"},
			ColBlock:        {"block", "block time", "blk"},
		},
		Required: []string{ColDate, ColFlightNo, ColDeparture},
	},
	entity.ReportRoster: {
		Aliases: map[string][]string{
			ColCrewID:    {"crew id", "staff id", "id"},
			ColDate:      {"date", "duty date"},
			ColDuty:      {"duty", "activity", "duty code"},
			ColFlightNo:  {"flight no", "flt", "flight"},
			ColDeparture: {"dep", "from"},
			ColStart:     {"start", "report", "std"},
			ColEnd:       {"end", "release", "sta"},
			ColBlock:     {"block", "block time", "blk"},
		},
		Required: []string{ColCrewID, ColDate},
	},
	entity.ReportStandby: {
		Aliases: map[string][]string{
			ColCrewID:    {"crew id", "staff id", "id"},
			ColCrewName:  {"crew name", "name"},
			ColStatus:    {"status", "duty"},
			ColStartDate: {"start date", "from date", "start"},
			ColEndDate:   {"end date", "to date", "end"},
			ColBase:      {"base"},
		},
		Required: []string{ColCrewID, ColStartDate},
	},
}
