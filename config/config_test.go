package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/config"
)

func TestLoadDefaults(t *testing.T) {
	c, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfig, c)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actus.yaml")
	body := "workers: 3\nlog_level: debug\ndegenerate_policy: error\ndefault_calendar: MF\namount_decimals: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("ACTUS_WORKERS", "5")

	c, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, c.Workers)
	require.Equal(t, "error", c.DegeneratePolicy)
	require.Equal(t, "debug", c.LogLevel)
	require.Equal(t, "MF", c.DefaultCalendar)
	require.EqualValues(t, 2, c.AmountDecimals)
}

func TestValidateRejectsUnknownPolicy(t *testing.T) {
	t.Parallel()

	c := config.DefaultConfig
	c.DegeneratePolicy = "ignore"
	err := c.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "DegeneratePolicy")
}

func TestSetConfig(t *testing.T) {
	orig := config.GetConfig()
	t.Cleanup(func() { config.SetConfig(orig) })

	c := config.DefaultConfig
	c.Workers = 2
	config.SetConfig(c)
	require.Equal(t, 2, config.GetConfig().Workers)
}

func TestLoadHolidayCalendars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actus.yaml")
	body := "holiday_calendars:\n  acme:\n    - \"2024-08-30\"\n    - \"2024-12-24\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, map[string][]string{"acme": {"2024-08-30", "2024-12-24"}}, c.HolidayCalendars)
}
