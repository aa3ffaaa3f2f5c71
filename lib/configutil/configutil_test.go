package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Url     string             `json:"url" validate:"required,url"`
	Months  int                `json:"months" validate:"min=1"`
	Weights map[string]float64 `json:"weights"`
}

func write(t testing.TB, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		url: "https://example.com/page",
		months: 2,
		weights: { yougov: 1.1 },
	}`)
	write(t, filepath.Join(dir, "config.local.json5"), `{ months: 3 }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://example.com/page", cfg.Url)
	require.Equal(t, 3, cfg.Months)
	require.Equal(t, 1.1, cfg.Weights["yougov"])
}

func TestReadConfigNotFound(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "config.json5"), `{ url: "not a url", months: 0 }`)

	_, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid config")
}
