package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComposeDate(t *testing.T) {
	t.Parallel()

	d, err := ComposeDate("5", "3", "25")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), d)

	d, err = ComposeDate("29", "02", "2024")
	require.NoError(t, err)
	require.Equal(t, 29, d.Day())

	for _, c := range [][3]string{{"29", "02", "2025"}, {"1", "13", "25"}, {"", "1", "25"}, {"1", "1", "x"}} {
		_, err := ComposeDate(c[0], c[1], c[2])
		require.Error(t, err, c)
	}
}

func TestComposeInstant(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)
	ict := time.FixedZone("ICT", 7*3600)

	got, err := ComposeInstant(day, "06:30", ict)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 1, 29, 23, 30, 0, 0, time.UTC), got)

	got, err = ComposeInstant(day, "0630", nil)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 1, 30, 6, 30, 0, 0, time.UTC), got)

	none, err := OptionalInstant(day, " ", ict)
	require.NoError(t, err)
	require.Nil(t, none)

	_, err = ComposeInstant(day, "24:10", nil)
	require.Error(t, err)
}

func TestParseFlexibleDate(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)
	for _, v := range []string{"2026-01-30", "30/01/2026", "30-Jan-2026", "30Jan2026", "30/01/26", "2026-01-30 14:05:00"} {
		got, err := ParseFlexibleDate(v)
		require.NoError(t, err, v)
		require.Equal(t, want, got, v)
	}
	_, err := ParseFlexibleDate("soon")
	require.Error(t, err)
}

func TestParseHours(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{"97:12": 97.2, "85.00": 85, "": 0, "-": 0, "0:30": 0.5}
	for in, want := range cases {
		got, err := ParseHours(in)
		require.NoError(t, err, in)
		require.InDelta(t, want, got, 1e-9, in)
	}
	for _, in := range []string{"10:75", "abc", "-3"} {
		_, err := ParseHours(in)
		require.Error(t, err, in)
	}

	m, err := ParseDurationMinutes("02:10")
	require.NoError(t, err)
	require.Equal(t, 130, m)
}
