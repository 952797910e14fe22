// Package config provides centralized configuration management for sapclean.
// It loads configuration from environment variables with sensible defaults,
// layers an optional YAML report profile on top, and validates all settings
// on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Report  ReportConfig
	Export  ExportConfig
	Server  ServerConfig
	Logging LoggingConfig
}

// ReportConfig holds the layout settings used to clean a report.
type ReportConfig struct {
	// AnchorLabel is the header text marking the first data column (default: material)
	AnchorLabel string `env:"REPORT_ANCHOR_LABEL" default:"material"`

	// FallbackRow and FallbackColumn locate the header when AnchorLabel is not found
	FallbackRow    int `env:"REPORT_FALLBACK_ROW" default:"3"`
	FallbackColumn int `env:"REPORT_FALLBACK_COLUMN" default:"2"`

	// MarkerOffset is how far left of the anchor the summary marker sits (default: 1)
	MarkerOffset int `env:"REPORT_MARKER_OFFSET" default:"1"`

	// Markers is a comma-separated list of summary markers (default: *,**)
	Markers []string `env:"REPORT_MARKERS" default:"*,**"`

	// Encoding is the input character set (default: utf-8)
	Encoding string `env:"REPORT_ENCODING" default:"utf-8"`

	// ProfilePath is an optional YAML profile overriding schema and layout
	ProfilePath string `env:"REPORT_PROFILE"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	// Format is the default output format: xlsx or csv (default: xlsx)
	Format string `env:"EXPORT_FORMAT" default:"xlsx"`

	// DownloadsDir overrides the downloads folder used by the downloads command
	DownloadsDir string `env:"REPORT_DOWNLOADS_DIR" envAlt:"DOWNLOADS_DIR"`

	// Spreadsheet enables workbook output; when false every workbook falls back to CSV (default: true)
	Spreadsheet bool `env:"EXPORT_SPREADSHEET" default:"true"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxUploadSize is the maximum accepted report size in bytes (default: 50MB)
	MaxUploadSize int64 `env:"SERVER_MAX_UPLOAD_SIZE" default:"52428800"`

	// MaxConcurrent is the maximum number of reports cleaned in parallel (default: 4)
	MaxConcurrent int `env:"SERVER_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for a free slot (default: 10s)
	MaxWaitTime time.Duration `env:"SERVER_MAX_WAIT_TIME" default:"10s"`

	// APIKeys is a comma-separated list of accepted X-API-Key values; empty disables the check
	APIKeys []string `env:"SERVER_API_KEYS"`

	// TrustedProxies lists proxy CIDRs whose X-Real-IP and X-Forwarded-For headers are honoured
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
