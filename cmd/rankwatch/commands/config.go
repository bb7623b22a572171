package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"rankwatch/internal/ranking"
	"rankwatch/lib/configutil"
	configlibsql "rankwatch/lib/configutil/libsql"
	"rankwatch/lib/fetcher"
	"rankwatch/lib/notify"
	otelsetup "rankwatch/lib/telemetry"
	"rankwatch/services/rankwatch"
)

const (
	SINK_SHEETS = "sheets"
	SINK_SQLITE = "sqlite"

	FETCHER_BROWSER = "browser"
	FETCHER_HTTP    = "http"
)

type SheetsConfig struct {
	SpreadsheetId string `json:"spreadsheet_id"`
	// ServiceAccount is the service account key itself, usually supplied
	// through GOOGLE_SERVICE_ACCOUNT.
	ServiceAccount     string `json:"service_account"`
	ServiceAccountFile string `json:"service_account_file"`
}

func (c SheetsConfig) credentials() ([]byte, error) {
	if c.ServiceAccount != "" {
		return []byte(c.ServiceAccount), nil
	}
	if c.ServiceAccountFile != "" {
		return os.ReadFile(c.ServiceAccountFile)
	}
	return nil, fmt.Errorf("no service account credentials, set GOOGLE_SERVICE_ACCOUNT")
}

type FetcherConfig struct {
	Kind      string            `json:"kind"`
	UserAgent string            `json:"user_agent"`
	Headers   map[string]string `json:"headers"`
	Cookies   []fetcher.Cookie  `json:"cookies"`
	AgeGate   string            `json:"age_gate"`
	// NoAgeGate fetches source urls directly.
	NoAgeGate                bool   `json:"no_age_gate"`
	ConsentSelector          string `json:"consent_selector"`
	WaitSelector             string `json:"wait_selector"`
	NavigationTimeoutSeconds int    `json:"navigation_timeout_seconds"`
	WaitTimeoutSeconds       int    `json:"wait_timeout_seconds"`
	DumpDir                  string `json:"dump_dir"`

	RemoteUrl      string `json:"remote_url"`
	ExecPath       string `json:"exec_path"`
	Headful        bool   `json:"headful"`
	ViewportWidth  int64  `json:"viewport_width"`
	ViewportHeight int64  `json:"viewport_height"`
}

func (c FetcherConfig) options() fetcher.Options {
	opts := fetcher.Options{
		UserAgent:         c.UserAgent,
		Headers:           c.Headers,
		Cookies:           c.Cookies,
		AgeGate:           c.AgeGate,
		ConsentSelector:   c.ConsentSelector,
		WaitSelector:      c.WaitSelector,
		NavigationTimeout: time.Duration(c.NavigationTimeoutSeconds) * time.Second,
		WaitTimeout:       time.Duration(c.WaitTimeoutSeconds) * time.Second,
		DumpDir:           c.DumpDir,
	}
	if c.NoAgeGate {
		opts.AgeGate = ""
	}
	return opts
}

func (c FetcherConfig) browserOptions() fetcher.BrowserOptions {
	return fetcher.BrowserOptions{
		Options:        c.options(),
		RemoteUrl:      c.RemoteUrl,
		ExecPath:       c.ExecPath,
		Headless:       !c.Headful,
		ViewportWidth:  c.ViewportWidth,
		ViewportHeight: c.ViewportHeight,
	}
}

type Config struct {
	TimeZone string `json:"time_zone"`
	// Schedule is the cron spec of the daemon, in TimeZone.
	Schedule string `json:"schedule"`

	Sink    string              `json:"sink"`
	Sheets  SheetsConfig        `json:"sheets"`
	Sqlite  configlibsql.Struct `json:"sqlite"`
	Fetcher FetcherConfig       `json:"fetcher"`

	Sources              []ranking.Source `json:"sources"`
	TargetRange          string           `json:"target_range"`
	OutputColumns        string           `json:"output_columns"`
	SourceTimeoutSeconds int              `json:"source_timeout_seconds"`
	NearMissThreshold    float64          `json:"near_miss_threshold"`
	Pipeline             ranking.Options  `json:"pipeline"`

	Smtp      notify.SmtpConfig `json:"smtp"`
	Telemetry otelsetup.Config  `json:"telemetry"`
}

func defaultConfig() Config {
	fetchOpts := fetcher.DefaultBrowserOptions()
	serviceOpts := rankwatch.DefaultOptions()

	return Config{
		TimeZone: "Asia/Tokyo",
		Schedule: "0 10 * * *",
		Sink:     SINK_SHEETS,
		Sqlite:   configlibsql.Struct{File: "<dev_state>/rankwatch.db"},
		Fetcher: FetcherConfig{
			Kind:                     FETCHER_BROWSER,
			UserAgent:                fetchOpts.UserAgent,
			Headers:                  fetchOpts.Headers,
			AgeGate:                  fetchOpts.AgeGate,
			ConsentSelector:          fetchOpts.ConsentSelector,
			WaitSelector:             fetchOpts.WaitSelector,
			NavigationTimeoutSeconds: int(fetchOpts.NavigationTimeout / time.Second),
			WaitTimeoutSeconds:       int(fetchOpts.WaitTimeout / time.Second),
			ViewportWidth:            fetchOpts.ViewportWidth,
			ViewportHeight:           fetchOpts.ViewportHeight,
		},
		Sources:              serviceOpts.Sources,
		TargetRange:          serviceOpts.TargetRange,
		OutputColumns:        serviceOpts.OutputColumns,
		SourceTimeoutSeconds: int(serviceOpts.SourceTimeout / time.Second),
		NearMissThreshold:    serviceOpts.NearMissThreshold,
		Pipeline:             serviceOpts.Pipeline,
		Smtp:                 notify.SmtpConfig{Port: 587},
	}
}

func (c Config) serviceOptions() rankwatch.Options {
	return rankwatch.Options{
		Sources:           c.Sources,
		TargetRange:       c.TargetRange,
		OutputColumns:     c.OutputColumns,
		SourceTimeout:     time.Duration(c.SourceTimeoutSeconds) * time.Second,
		NearMissThreshold: c.NearMissThreshold,
		Pipeline:          c.Pipeline,
	}
}

func (c Config) validate() error {
	switch c.Sink {
	case SINK_SHEETS, SINK_SQLITE:
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}
	switch c.Fetcher.Kind {
	case FETCHER_BROWSER, FETCHER_HTTP:
	default:
		return fmt.Errorf("unknown fetcher %q", c.Fetcher.Kind)
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("no sources configured")
	}
	for _, source := range c.Sources {
		if source.Label == "" || source.Url == "" {
			return fmt.Errorf("source %+v needs both a label and a url", source)
		}
	}
	return nil
}

// loadConfig reads the config file if there is one, applies environment
// overrides and fills everything left unset with defaults.
func loadConfig(path string) (Config, error) {
	config, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("no config file found, using defaults", "path", path)
	} else if err != nil {
		return Config{}, err
	}

	configutil.EnvOverrides(map[string]*string{
		"GOOGLE_SERVICE_ACCOUNT":   &config.Sheets.ServiceAccount,
		"RANKWATCH_SPREADSHEET_ID": &config.Sheets.SpreadsheetId,
		"RANKWATCH_SMTP_PASSWORD":  &config.Smtp.Password,
	})

	config, err = configutil.WithDefaults(config, defaultConfig())
	if err != nil {
		return Config{}, err
	}
	return config, config.validate()
}
