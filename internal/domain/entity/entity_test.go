package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThresholds_ClassifyBoundaries(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()
	cases := []struct {
		hours float64
		want  WarningLevel
	}{
		{0, LevelNormal},
		{84.99, LevelNormal},
		{84.994, LevelNormal},
		{85.00, LevelWarning},
		{94.99, LevelWarning},
		{95.00, LevelCritical},
		{97.2, LevelCritical},
	}
	for _, c := range cases {
		require.Equal(t, c.want, th.Classify(c.hours), "%v hours", c.hours)
	}
}

func TestSupersedes(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 30, 8, 0, 0, 0, time.UTC)
	live := Provenance{Source: SourceAIMS, UpdatedAt: now}

	require.False(t, Supersedes(Provenance{Source: SourceCSV, UpdatedAt: now.Add(-time.Minute)}, live))
	require.False(t, Supersedes(Provenance{Source: SourceCSV, UpdatedAt: now}, live))
	require.True(t, Supersedes(Provenance{Source: SourceCSV, UpdatedAt: now.Add(time.Second)}, live))

	require.True(t, Supersedes(Provenance{Source: SourceAIMS, UpdatedAt: now}, live))
	require.False(t, Supersedes(Provenance{Source: SourceAIMS, UpdatedAt: now.Add(-time.Second)}, live))

	csv := Provenance{Source: SourceCSV, UpdatedAt: now}
	require.True(t, Supersedes(Provenance{Source: SourceAIMS, UpdatedAt: now}, csv))
}

func TestClassifyDutyCode(t *testing.T) {
	t.Parallel()

	cases := map[string]ActivityType{
		"SBY":     ActivityStandby,
		"stby":    ActivityStandby,
		"CSICK":   ActivitySick,
		"DO":      ActivityOff,
		"SIM":     ActivityTraining,
		"AL":      ActivityLeave,
		"123":     ActivityFly,
		"VN123":   ActivityFly,
		"VN123A":  ActivityFly,
		"FLY":     ActivityFly,
		"MEETING": ActivityOther,
		"":        ActivityOther,
	}
	for code, want := range cases {
		require.Equal(t, want, ClassifyDutyCode(code), code)
	}
}

func TestFlightRecord_DelayMinutes(t *testing.T) {
	t.Parallel()

	at := func(h, m int) *time.Time {
		v := time.Date(2026, 1, 30, h, m, 0, 0, time.UTC)
		return &v
	}

	require.Equal(t, 0, FlightRecord{}.DelayMinutes())
	require.Equal(t, 25, FlightRecord{STD: at(10, 0), ATD: at(10, 25)}.DelayMinutes())
	require.Equal(t, 40, FlightRecord{STD: at(10, 0), ETD: at(10, 40)}.DelayMinutes())
	require.Equal(t, 0, FlightRecord{STD: at(10, 0), ATD: at(9, 55)}.DelayMinutes())
	// departed after midnight, recorded against the same day
	require.Equal(t, 50, FlightRecord{STD: at(23, 30), ATD: at(0, 20)}.DelayMinutes())

	require.True(t, FlightRecord{Status: "Cancelled"}.IsCancelled())
	require.True(t, FlightRecord{Status: "Arrived"}.HasOperated())
	require.Equal(t, 130, FlightRecord{ATD: at(1, 0), ATA: at(3, 10)}.ComputedBlockMinutes())
}

func TestTimeWindow(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2026, 1, 30, 17, 0, 0, 0, time.UTC)
	w := NewTimeWindow(asOf.AddDate(0, 0, -27), asOf)
	require.Len(t, w.Days(), 28)
	require.True(t, w.Contains(time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)))
	require.False(t, w.Contains(time.Date(2026, 1, 2, 23, 59, 0, 0, time.UTC)))
	require.True(t, w.Contains(time.Date(2026, 1, 30, 23, 59, 0, 0, time.UTC)))
}

func TestSplitQualifications(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"A321", "B787", "CP"}, SplitQualifications("a321/B787, cp;A321"))
	require.Nil(t, SplitQualifications(" "))
}
