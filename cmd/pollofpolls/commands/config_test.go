package commands

import (
	"os"
	"path/filepath"
	"pollofpolls-backend/internal/alert"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	require.Equal(t, defaultLookbackMonths, cfg.lookbackMonths(0))
	require.Equal(t, 4, cfg.lookbackMonths(4))
	require.Equal(t, defaultSchedule, cfg.schedule())
	require.Equal(t, defaultPort, cfg.port(0))
	require.Nil(t, cfg.loadBaseline(""))
	require.IsType(t, alert.Noop{}, cfg.alerter())

	cfg = Config{
		Scraper:  ScraperConfig{LookbackMonths: 3},
		Schedule: "30 7 * * *",
		Http:     HttpConfig{Port: 9000},
	}
	require.Equal(t, 3, cfg.lookbackMonths(0))
	require.Equal(t, 1, cfg.lookbackMonths(1))
	require.Equal(t, "30 7 * * *", cfg.schedule())
	require.Equal(t, 9000, cfg.port(0))
	require.Equal(t, 9001, cfg.port(9001))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		scraper: { lookback_months: 3 },
		database: { file: ":memory:" },
		weights: { "BMG": 1.05 },
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		alerts: {
			smtp: { server: "localhost", port: 1025, email_address: "alerts@example.com" },
			recipients: ["ops@example.com"],
		},
	}`), 0600)
	require.NoError(t, err)

	previous := configPath
	configPath = filepath.Join(dir, "config.json5")
	t.Cleanup(func() { configPath = previous })

	cfg := loadConfig()
	require.Equal(t, 3, cfg.lookbackMonths(0))
	require.NotNil(t, cfg.Database)
	require.Equal(t, ":memory:", cfg.Database.File)
	require.Equal(t, 1.05, cfg.weightTable().Pollster("bmg"))
	require.IsType(t, alert.Mailer{}, cfg.alerter())

	st, closeStore := cfg.openStore()
	defer closeStore()
	_, err = st.Runs(t.Context(), 10)
	require.NoError(t, err)
}

func TestLoadConfigMissing(t *testing.T) {
	previous := configPath
	configPath = filepath.Join(t.TempDir(), "config.json5")
	t.Cleanup(func() { configPath = previous })

	cfg := loadConfig()
	require.Nil(t, cfg.Database)
	require.Equal(t, defaultSchedule, cfg.schedule())
}
