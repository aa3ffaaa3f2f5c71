package commands

import (
	"errors"
	"log/slog"
	"os"
	"pollofpolls-backend/internal/alert"
	"pollofpolls-backend/internal/local"
	"pollofpolls-backend/internal/scraper/wikipedia"
	"pollofpolls-backend/internal/store"
	"pollofpolls-backend/internal/weights"
	"pollofpolls-backend/lib/configutil"
	configlibsql "pollofpolls-backend/lib/configutil/libsql"
	"pollofpolls-backend/lib/restyutil"
	"pollofpolls-backend/lib/serviceutil"
	"time"
)

const (
	defaultLookbackMonths = 2
	defaultSchedule       = "0 6 * * *"
	defaultPort           = 8080
	runTimeout            = time.Minute * 5
)

type ScraperConfig struct {
	SourceUrl      string `json:"source_url" validate:"omitempty,url"`
	LookbackMonths int    `json:"lookback_months" validate:"omitempty,gte=1"`
	TimeoutSeconds int    `json:"timeout_seconds" validate:"omitempty,gte=1"`
	UserAgent      string `json:"user_agent"`
	// where requests and responses are dumped in verbose mode
	DumpDir string `json:"dump_dir"`
}

type HttpConfig struct {
	Port int `json:"port" validate:"omitempty,gt=0,lt=65536"`
}

type AlertsConfig struct {
	Smtp       *alert.SmtpConfig `json:"smtp"`
	Recipients []string          `json:"recipients" validate:"dive,email"`
}

type Config struct {
	Scraper  ScraperConfig        `json:"scraper"`
	Database *configlibsql.Struct `json:"database"`
	// pollster quality overrides, merged over the built-in table
	Weights      map[string]float64 `json:"weights"`
	BaselineFile string             `json:"baseline_file"`
	Schedule     string             `json:"schedule"`
	Http         HttpConfig         `json:"http"`
	Alerts       AlertsConfig       `json:"alerts"`
}

// loadConfig reads the config file, a missing file means every default.
func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config](configPath)
	if os.IsNotExist(err) {
		slog.Warn("no config file found, using defaults", "path", configPath)
		return Config{}
	}
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

func (c Config) lookbackMonths(override int) int {
	if override > 0 {
		return override
	}
	if c.Scraper.LookbackMonths > 0 {
		return c.Scraper.LookbackMonths
	}
	return defaultLookbackMonths
}

func (c Config) schedule() string {
	if c.Schedule == "" {
		return defaultSchedule
	}
	return c.Schedule
}

func (c Config) port(override int) int {
	if override > 0 {
		return override
	}
	if c.Http.Port > 0 {
		return c.Http.Port
	}
	return defaultPort
}

func (c Config) weightTable() weights.Table {
	table, err := weights.NewTable(c.Weights)
	if err != nil {
		serviceutil.Fatal("invalid pollster weights", err)
	}
	return table
}

func (c Config) newScraper(table weights.Table) wikipedia.Client {
	opts := wikipedia.Options{
		SourceUrl: c.Scraper.SourceUrl,
		UserAgent: c.Scraper.UserAgent,
		Timeout:   time.Duration(c.Scraper.TimeoutSeconds) * time.Second,
		Pollsters: table.Pollsters(),
	}
	if verbose {
		dir := c.Scraper.DumpDir
		if dir == "" {
			dir = ".dev/resty/wikipedia"
		}
		output, err := restyutil.NewFilesystemOutput(dir)
		if err != nil {
			slog.Warn("request dumps disabled", "err", err)
		} else {
			opts.Output = output
		}
	}
	return wikipedia.NewClient(opts)
}

// openStore opens the configured database, the returned func closes it.
func (c Config) openStore() (store.Store, func()) {
	if c.Database == nil {
		serviceutil.Fatal("failed to open db", errors.New("no database configured"))
	}
	database, err := c.Database.OpenDB(store.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open db", err)
	}
	return store.NewStore(database), func() {
		err := database.Close()
		if err != nil {
			slog.Warn("failed to close db", "err", err)
		}
	}
}

// loadBaseline returns nil when no baseline file is configured.
func (c Config) loadBaseline(override string) *local.Baseline {
	path := c.BaselineFile
	if override != "" {
		path = override
	}
	if path == "" {
		return nil
	}
	baseline, err := local.LoadBaseline(path)
	if err != nil {
		serviceutil.Fatal("failed to load ward baseline", err)
	}
	slog.Info("loaded ward baseline", "path", path, "wards", len(baseline.Wards))
	return &baseline
}

func (c Config) alerter() alert.Alerter {
	if c.Alerts.Smtp == nil || len(c.Alerts.Recipients) == 0 {
		slog.Debug("smtp alerts not configured")
		return alert.Noop{}
	}
	return alert.NewMailer(*c.Alerts.Smtp, c.Alerts.Recipients)
}
