package common

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that decodes from TOML strings like "60s"
// or "1m30s". go-toml does not unmarshal duration strings into
// time.Duration directly; it does honor encoding.TextUnmarshaler.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Site        SiteConfig       `toml:"site"`
	Scraper     ScraperConfig    `toml:"scraper"`
	Retry       RetryConfig      `toml:"retry"`
	Extractor   ExtractorConfig  `toml:"extractor"`
	Storage     StorageConfig    `toml:"storage"`
	Aggregator  AggregatorConfig `toml:"aggregator"`
	Schedule    ScheduleConfig   `toml:"schedule"`
	Logging     LoggingConfig    `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

// SiteConfig describes the NMMS attendance report portal. The selector and
// column values mirror the live site and only change when the site does.
type SiteConfig struct {
	BaseURL      string `toml:"base_url" validate:"required,url"`
	Page         string `toml:"page"`        // report scope parameter, "D" for district
	StateShort   string `toml:"state_short"` // e.g. "UP"
	StateName    string `toml:"state_name"`
	StateCode    string `toml:"state_code"`
	DistrictName string `toml:"district_name" validate:"required"`
	DistrictCode string `toml:"district_code" validate:"required"`
	FinYear      string `toml:"fin_year" validate:"required"`
	Digest       string `toml:"digest"` // access token carried in the landing URL

	DateSelector    string `toml:"date_selector"`     // date dropdown element
	ReportSelector  string `toml:"report_selector"`   // results container element
	BlockLinkColumn int    `toml:"block_link_column"` // index-table cell holding the block link
}

// LandingURL builds the report landing URL for the given attendance date.
func (s *SiteConfig) LandingURL(date string) string {
	q := url.Values{}
	q.Set("page", s.Page)
	q.Set("short_name", s.StateShort)
	q.Set("state_name", s.StateName)
	q.Set("state_code", s.StateCode)
	q.Set("district_name", s.DistrictName)
	q.Set("district_code", s.DistrictCode)
	q.Set("fin_year", s.FinYear)
	q.Set("AttendanceDate", date)
	q.Set("source", "")
	q.Set("Digest", s.Digest)
	return s.BaseURL + "?" + q.Encode()
}

type ScraperConfig struct {
	UserAgent      string        `toml:"user_agent"`
	Headless       bool          `toml:"headless"`
	DisableGPU     bool          `toml:"disable_gpu"`
	NoSandbox      bool          `toml:"no_sandbox"`
	MaxSessions    int      `toml:"max_sessions" validate:"gte=1"` // concurrent detail-page sessions
	RequestTimeout Duration `toml:"request_timeout"`
	RenderWait     Duration `toml:"render_wait"` // settle time after selecting a date
	PageDelay      Duration `toml:"page_delay"`  // minimum delay between page visits
	RandomDelay    Duration `toml:"random_delay"`
}

type RetryConfig struct {
	MaxRetries int      `toml:"max_retries" validate:"gte=1"`
	BaseDelay  Duration `toml:"base_delay"`
	MaxJitter  Duration `toml:"max_jitter"`
}

type ExtractorConfig struct {
	DefaultDistrict string   `toml:"default_district"`
	ExpectedHeader  []string `toml:"expected_header"` // validated against the detail table header row
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

type AggregatorConfig struct {
	ChunkSize    int `toml:"chunk_size" validate:"gte=1"`     // summary insert batch size
	ReadPageSize int `toml:"read_page_size" validate:"gte=1"` // raw-store read window
}

type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"` // cron expression for the daily run
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Site selectors default to the live NMMS portal markup.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Site: SiteConfig{
			BaseURL:         "https://mnregaweb4.nic.in/nregaarch/View_NMMS_atten_date_new.aspx",
			Page:            "D",
			StateShort:      "UP",
			StateName:       "UTTAR PRADESH",
			StateCode:       "31",
			DistrictName:    "BASTI",
			DistrictCode:    "3153",
			FinYear:         "2024-2025",
			DateSelector:    "#ContentPlaceHolder1_ddl_attendance",
			ReportSelector:  "#RepPr1",
			BlockLinkColumn: 3,
		},
		Scraper: ScraperConfig{
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Headless:       true,
			DisableGPU:     true,
			NoSandbox:      true,
			MaxSessions:    2,
			RequestTimeout: Duration(60 * time.Second),
			RenderWait:     Duration(time.Second),
			PageDelay:      Duration(2 * time.Second),
			RandomDelay:    Duration(time.Second),
		},
		Retry: RetryConfig{
			MaxRetries: 3,
			BaseDelay:  Duration(2 * time.Second),
			MaxJitter:  Duration(time.Second),
		},
		Extractor: ExtractorConfig{
			DefaultDistrict: "BASTI",
			ExpectedHeader: []string{
				"S.No", "District", "Block", "Panchayat",
				"Work Code", "Muster Roll No", "Persondays",
			},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Aggregator: AggregatorConfig{
			ChunkSize:    500,
			ReadPageSize: 1000,
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "0 30 6 * * *", // 06:30 daily, after the portal publishes yesterday's data
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFiles loads configuration from defaults, then merges each config
// file in order (later files override earlier ones), then applies
// environment variable overrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration against struct validation tags.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variables on top of file config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NREGASCAN_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("NREGASCAN_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("NREGASCAN_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if path := os.Getenv("NREGASCAN_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if digest := os.Getenv("NREGASCAN_SITE_DIGEST"); digest != "" {
		config.Site.Digest = digest
	}
	if district := os.Getenv("NREGASCAN_DISTRICT"); district != "" {
		config.Site.DistrictName = district
		config.Extractor.DefaultDistrict = district
	}
	if level := os.Getenv("NREGASCAN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if cronExpr := os.Getenv("NREGASCAN_SCHEDULE_CRON"); cronExpr != "" {
		config.Schedule.Cron = cronExpr
		config.Schedule.Enabled = true
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
