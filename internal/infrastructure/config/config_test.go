package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "host=localhost dbname=crewsync")
	t.Setenv("AIMS_ENDPOINT", "http://aims.local/wtouch/aimswebservice.exe/soap/IAIMSWebService")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 5*time.Minute, cfg.CrewSyncInterval)
	require.Equal(t, 15*time.Minute, cfg.FTLSyncInterval)
	require.Equal(t, 24*time.Hour, cfg.ReferenceSyncInterval)
	require.Equal(t, 4, cfg.MaxAttempts)
	require.Equal(t, 3, cfg.FailureThreshold)
	require.Equal(t, 85.0, cfg.FTLWarningHours)
	require.Equal(t, 95.0, cfg.FTLCriticalHours)
	require.Equal(t, 5, cfg.FTLMinCrewDensity)
	require.Equal(t, 15, cfg.SwapDelayThresholdMinutes)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "dsn")
	t.Setenv("LIVE_SYNC_ENABLED", "false")
	t.Setenv("SYNC_CREW_INTERVAL", "90s")
	t.Setenv("SYNC_TASK_TIMEOUT", "120")
	t.Setenv("FTL_WARNING_HOURS", "80.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.False(t, cfg.LiveSyncEnabled)
	require.Equal(t, 90*time.Second, cfg.CrewSyncInterval)
	require.Equal(t, 2*time.Minute, cfg.TaskTimeout)
	require.Equal(t, 80.5, cfg.FTLWarningHours)
}

func TestValidate(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("AIMS_ENDPOINT", "")
	t.Setenv("FTL_WARNING_HOURS", "96")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "POSTGRES_DSN")
	require.Contains(t, err.Error(), "AIMS_ENDPOINT")
	require.Contains(t, err.Error(), "FTL_WARNING_HOURS")
}
