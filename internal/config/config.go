package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "admscrape"

	// DefaultBaseURL is the root of the admissions-results site.
	DefaultBaseURL = "https://www.com.tw/"

	// DefaultUserAgent is a desktop Chrome user agent. The site serves a
	// challenge page to clients that do not look like a browser.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"

	// DefaultTimeout bounds a single direct GET.
	DefaultTimeout = 60 * time.Second

	// DefaultRetry is the number of attempts per fetch, counting the first one.
	DefaultRetry = 5

	// DefaultRetryDelay is the fixed pause between two attempts.
	DefaultRetryDelay = 5 * time.Second

	// DefaultSolverURL is the FlareSolverr endpoint started by its container image.
	DefaultSolverURL = "http://localhost:8191/v1"

	// DefaultSolverTimeout is the budget handed to FlareSolverr as maxTimeout.
	DefaultSolverTimeout = 60 * time.Second

	// DefaultPipelineDelay is the pause between two (method, year) crawls.
	DefaultPipelineDelay = 3 * time.Second

	// DefaultDatabaseDriver stores results in a local SQLite file.
	DefaultDatabaseDriver = DriverSQLite

	// DefaultDatabaseFile is the SQLite file name inside the data directory.
	DefaultDatabaseFile = "admscrape.db"

	// DefaultOCRCacheFile is the OCR cache file name inside the cache directory.
	DefaultOCRCacheFile = "ocr_cache.json"

	// DefaultOCRLanguage is the Tesseract language used for tickets and digits.
	DefaultOCRLanguage = "eng"

	// DefaultGlyphScale enlarges glyph images before recognition.
	DefaultGlyphScale = 3

	// DefaultLogLevel is the log level when neither the file nor -v sets one.
	DefaultLogLevel = "info"

	// DefaultLogFormat writes human-readable log lines.
	DefaultLogFormat = "text"

	// DefaultTelemetryExporter leaves tracing off.
	DefaultTelemetryExporter = ExporterNone
)

// Supported trace exporters.
const (
	// ExporterNone disables tracing.
	ExporterNone = "none"

	// ExporterOTLPHTTP sends spans to an OTLP/HTTP collector.
	ExporterOTLPHTTP = "otlp-http"

	// ExporterOTLPGRPC sends spans to an OTLP/gRPC collector.
	ExporterOTLPGRPC = "otlp-grpc"
)

// Supported database drivers.
const (
	// DriverSQLite opens a local file with modernc.org/sqlite.
	DriverSQLite = "sqlite"

	// DriverLibSQL connects to a remote libSQL (Turso) database by URL.
	DriverLibSQL = "libsql"
)

// Config holds all configuration options for admscrape.
// It mirrors the YAML file layout; NewConfig supplies the defaults that a
// file only partially overrides.
type Config struct {
	Fetcher   FetcherConfig   `yaml:"fetcher"`
	Solver    SolverConfig    `yaml:"flaresolverr"`
	Crawl     CrawlConfig     `yaml:"crawl"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	OCR       OCRConfig       `yaml:"ocr"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// FetcherConfig configures direct page requests.
type FetcherConfig struct {
	// BaseURL is the site root every crawl URL is resolved against.
	BaseURL string `yaml:"base_url"`

	// UserAgent is the initial User-Agent header. It is replaced by the
	// challenge solver's browser user agent after the first solve.
	UserAgent string `yaml:"user_agent"`

	// Timeout bounds one direct request.
	Timeout time.Duration `yaml:"timeout"`

	// Retry is the number of attempts per page, counting the first one.
	Retry int `yaml:"retry"`

	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration `yaml:"retry_delay"`

	// RateLimit caps direct requests per second. Zero means unlimited.
	RateLimit float64 `yaml:"rate_limit,omitempty"`

	// Cookie seeds the session cookies, in Cookie header format
	// ("name1=value1; name2=value2"). Useful to reuse a clearance cookie.
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra headers sent with every direct request.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// SolverConfig configures the FlareSolverr fallback.
type SolverConfig struct {
	// URL is the FlareSolverr v1 API endpoint.
	URL string `yaml:"url"`

	// MaxTimeout is the time FlareSolverr may spend solving a challenge.
	MaxTimeout time.Duration `yaml:"max_timeout"`
}

// CrawlConfig configures the orchestration loop.
type CrawlConfig struct {
	// PipelineDelay is the pause between the end of one (method, year) crawl
	// and the start of the next.
	PipelineDelay time.Duration `yaml:"pipeline_delay"`
}

// DatabaseConfig selects the relational store.
type DatabaseConfig struct {
	// Driver is "sqlite" or "libsql".
	Driver string `yaml:"driver"`

	// Path is the SQLite file path (sqlite driver).
	Path string `yaml:"path,omitempty"`

	// DSN is the database URL, e.g. "libsql://db.turso.io?authToken=..." (libsql driver).
	DSN string `yaml:"dsn,omitempty"`
}

// LogConfig configures process logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`

	// File, when set, receives a copy of every log line.
	File string `yaml:"file,omitempty"`
}

// OCRConfig configures glyph recognition.
type OCRConfig struct {
	// Language is the Tesseract language code.
	Language string `yaml:"language"`

	// TessdataPrefix overrides the directory holding the traineddata files.
	TessdataPrefix string `yaml:"tessdata_prefix,omitempty"`

	// CachePath is the JSON file holding previously decoded glyphs.
	CachePath string `yaml:"cache_path"`

	// GlyphScale is the enlargement factor applied to name and status glyphs.
	GlyphScale int `yaml:"glyph_scale"`

	// StatusIconWidth is the width in pixels of the icon that precedes the
	// waiting-list rank in status images. Zero disables cropping.
	StatusIconWidth int `yaml:"status_icon_width"`
}

// TelemetryConfig configures OpenTelemetry tracing of fetches and crawls.
type TelemetryConfig struct {
	// Exporter is "none", "otlp-http" or "otlp-grpc".
	Exporter string `yaml:"exporter"`

	// Endpoint is the collector URL, e.g. "http://localhost:4318/v1/traces".
	// Empty uses the exporter default and the OTEL_EXPORTER_OTLP_* variables.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Headers are sent with every export, e.g. an authorization token.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			BaseURL:    DefaultBaseURL,
			UserAgent:  DefaultUserAgent,
			Timeout:    DefaultTimeout,
			Retry:      DefaultRetry,
			RetryDelay: DefaultRetryDelay,
		},
		Solver: SolverConfig{
			URL:        DefaultSolverURL,
			MaxTimeout: DefaultSolverTimeout,
		},
		Crawl: CrawlConfig{
			PipelineDelay: DefaultPipelineDelay,
		},
		Database: DatabaseConfig{
			Driver: DefaultDatabaseDriver,
			Path:   filepath.Join(XDGDataDir(), DefaultDatabaseFile),
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		OCR: OCRConfig{
			Language:   DefaultOCRLanguage,
			CachePath:  filepath.Join(XDGCacheDir(), DefaultOCRCacheFile),
			GlyphScale: DefaultGlyphScale,
		},
		Telemetry: TelemetryConfig{
			Exporter: DefaultTelemetryExporter,
		},
	}
}

// XDGDataDir returns the XDG data directory for admscrape.
// On Linux: ~/.local/share/admscrape
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for admscrape.
// On Linux: ~/.config/admscrape
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for admscrape.
// On Linux: ~/.cache/admscrape
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors in errors.go.
func (c *Config) Validate() error {
	if c.Fetcher.BaseURL == "" {
		return ErrEmptyBaseURL
	}
	if c.Fetcher.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Fetcher.Retry < 1 {
		return ErrInvalidRetry
	}
	if c.Fetcher.RetryDelay < 0 {
		return ErrInvalidRetryDelay
	}
	if c.Fetcher.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if c.Solver.URL == "" {
		return ErrEmptySolverURL
	}
	if c.Solver.MaxTimeout <= 0 {
		return ErrInvalidSolverTimeout
	}

	if c.Crawl.PipelineDelay < 0 {
		return ErrInvalidPipelineDelay
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return ErrEmptyDatabasePath
		}
	case DriverLibSQL:
		if c.Database.DSN == "" {
			return ErrEmptyDatabaseDSN
		}
	default:
		return ErrUnknownDatabaseDriver
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}

	if c.OCR.GlyphScale < 1 {
		return ErrInvalidGlyphScale
	}
	if c.OCR.StatusIconWidth < 0 {
		return ErrInvalidIconWidth
	}

	switch c.Telemetry.Exporter {
	case ExporterNone, ExporterOTLPHTTP, ExporterOTLPGRPC:
	default:
		return ErrInvalidTelemetryExporter
	}

	return nil
}
