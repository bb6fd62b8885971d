package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use errors.Is().
var (
	// ErrEmptyBaseURL is returned when fetcher.base_url is empty.
	ErrEmptyBaseURL = errors.New("invalid base url: must not be empty")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetry is returned when fewer than one attempt is configured.
	ErrInvalidRetry = errors.New("invalid retry count: must be at least 1")

	// ErrInvalidRetryDelay is returned when the retry delay is negative.
	ErrInvalidRetryDelay = errors.New("invalid retry delay: must be non-negative")

	// ErrInvalidRateLimit is returned when fetcher.rate_limit is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrEmptySolverURL is returned when flaresolverr.url is empty.
	ErrEmptySolverURL = errors.New("invalid flaresolverr url: must not be empty")

	// ErrInvalidSolverTimeout is returned when flaresolverr.max_timeout is not positive.
	ErrInvalidSolverTimeout = errors.New("invalid flaresolverr max timeout: must be positive")

	// ErrInvalidPipelineDelay is returned when the pacing delay is negative.
	ErrInvalidPipelineDelay = errors.New("invalid pipeline delay: must be non-negative")

	// ErrUnknownDatabaseDriver is returned for drivers other than sqlite and libsql.
	ErrUnknownDatabaseDriver = errors.New("unknown database driver: use sqlite or libsql")

	// ErrEmptyDatabasePath is returned when the sqlite driver has no file path.
	ErrEmptyDatabasePath = errors.New("invalid database path: must not be empty for sqlite")

	// ErrEmptyDatabaseDSN is returned when the libsql driver has no DSN.
	ErrEmptyDatabaseDSN = errors.New("invalid database dsn: must not be empty for libsql")

	// ErrInvalidLogLevel is returned for levels other than debug, info, warn and error.
	ErrInvalidLogLevel = errors.New("invalid log level: use debug, info, warn or error")

	// ErrInvalidLogFormat is returned for formats other than text and json.
	ErrInvalidLogFormat = errors.New("invalid log format: use text or json")

	// ErrInvalidGlyphScale is returned when the glyph scale is below 1.
	ErrInvalidGlyphScale = errors.New("invalid glyph scale: must be at least 1")

	// ErrInvalidIconWidth is returned when the status icon width is negative.
	ErrInvalidIconWidth = errors.New("invalid status icon width: must be non-negative")

	// ErrInvalidTelemetryExporter is returned for exporters other than none, otlp-http and otlp-grpc.
	ErrInvalidTelemetryExporter = errors.New("invalid telemetry exporter: use none, otlp-http or otlp-grpc")
)
