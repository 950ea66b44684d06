package aims

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"crewsync-service/internal/domain/entity"
)

func TestMapRoster_TwoDigitYearAndOvernight(t *testing.T) {
	t.Parallel()

	act, perr := MapRoster(0, "C-1", rosterItem{
		RostDD: "31", RostMM: "12", RostYY: "24",
		DutyCode: "vn771", Dep: "han",
		StartTime: "22:00", EndTime: "03:15", BlockTime: "4:30",
	}, time.Now())
	require.Nil(t, perr)
	require.Equal(t, "2024-12-31", act.ActivityDate)
	require.Equal(t, entity.ActivityFly, act.ActivityType)
	require.Equal(t, "VN771", act.FlightNumber)
	require.Equal(t, "HAN", act.Departure)
	require.Equal(t, time.Date(2025, 1, 1, 3, 15, 0, 0, time.UTC), act.EndAt)
	require.Equal(t, 270, act.BlockMinutes)
}

func TestMapRoster_InvalidDate(t *testing.T) {
	t.Parallel()

	_, perr := MapRoster(4, "C-1", rosterItem{RostDD: "30", RostMM: "02", RostYY: "25", DutyCode: "OFF"}, time.Now())
	require.NotNil(t, perr)
	require.Equal(t, entity.KindRoster, perr.Kind)
	require.Equal(t, 4, perr.Index)
}

func TestMapFlight_LateDepartureAcrossMidnight(t *testing.T) {
	t.Parallel()

	rec, perr := MapFlight(0, flightItem{
		FlightDD: "10", FlightMM: "03", FlightYY: "2025",
		FlightNo: "VN1", FlightDep: "SGN", FlightArr: "HAN",
		FlightStd: "23:00", FlightAtd: "00:30", FlightAta: "02:35",
	}, time.Now())
	require.Nil(t, perr)
	require.Equal(t, time.Date(2025, 3, 11, 0, 30, 0, 0, time.UTC), *rec.ATD)
	require.Equal(t, time.Date(2025, 3, 11, 2, 35, 0, 0, time.UTC), *rec.ATA)
	require.Equal(t, 90, rec.DelayMinutes())
	require.Equal(t, 125, rec.ComputedBlockMinutes())
}

func TestMapModLog(t *testing.T) {
	t.Parallel()

	entry, perr := MapModLog(0, modLogItem{
		Flt: "VN123", Day: "10/03/2025", Dep: "SGN", Arr: "HAN",
		Status: "Modified", Field: "AC REG", OldValue: "VN-A888", NewValue: "VN-A899 AOG",
		ModifiedAt: "10/03/2025 06:12",
	}, time.Now())
	require.Nil(t, perr)
	require.Equal(t, entity.ModModified, entry.ModificationType)
	require.Equal(t, "Modified AC REG VN-A888 VN-A899 AOG", entry.Text())
	require.Equal(t, time.Date(2025, 3, 10, 6, 12, 0, 0, time.UTC), entry.ModifiedAt)

	_, perr = MapModLog(1, modLogItem{Flt: "VN1", Day: "10/03/2025", ModifiedAt: "yesterday"}, time.Now())
	require.NotNil(t, perr)
}

func TestUTCOffsetMinutes(t *testing.T) {
	t.Parallel()

	require.Equal(t, 420, UTCOffsetMinutes("SGN"))
	require.Equal(t, 630, UTCOffsetMinutes("ADL"))
	require.Equal(t, -480, UTCOffsetMinutes("LAX"))
	require.Equal(t, DefaultUTCOffsetMinutes, UTCOffsetMinutes("ZZZ"))
}
