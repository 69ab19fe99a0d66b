package configs

import "time"

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	Log     LogConfig     `mapstructure:"log" validate:"required"`
	Capture CaptureConfig `mapstructure:"capture" validate:"required"`
	Stats   StatsConfig   `mapstructure:"stats" validate:"required"`
	Devices DevicesConfig `mapstructure:"devices" validate:"required"`
	Render  RenderConfig  `mapstructure:"render" validate:"required"`
}

// ServerConfig holds the optional status endpoint configuration.
type ServerConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	Port              int  `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadHeaderTimeout int  `mapstructure:"read_header_timeout" validate:"required,min=1"` // seconds
	ReadTimeout       int  `mapstructure:"read_timeout" validate:"required,min=1"`        // seconds (headers+body)
	WriteTimeout      int  `mapstructure:"write_timeout" validate:"required,min=1"`       // seconds (response)
	IdleTimeout       int  `mapstructure:"idle_timeout" validate:"required,min=1"`        // seconds (keep-alive)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,loglevel"`
}

// CaptureConfig holds usbmon capture configuration.
type CaptureConfig struct {
	Buses              []int  `mapstructure:"buses" validate:"dive,min=1,max=65535"` // empty means discover
	PreferBinaryFormat bool   `mapstructure:"prefer_binary_format"`
	BinaryRoot         string `mapstructure:"binary_root" validate:"required"`
	TextRoot           string `mapstructure:"text_root" validate:"required"`
	ReadBufferBytes    int    `mapstructure:"read_buffer_bytes" validate:"required,min=4096"`
	MalformedThreshold int    `mapstructure:"malformed_threshold" validate:"required,min=1"`
}

// StatsConfig holds bandwidth aggregation and tick configuration.
type StatsConfig struct {
	HistoryWindowSeconds int `mapstructure:"history_window_seconds" validate:"required,min=1"`
	SampleBucketSeconds  int `mapstructure:"sample_bucket_seconds" validate:"required,min=1,ltefield=HistoryWindowSeconds"`
	StaleGraceSeconds    int `mapstructure:"stale_grace_seconds" validate:"required,min=1"`
	StaleEvictFactor     int `mapstructure:"stale_evict_factor" validate:"required,min=1"`
	TickIntervalMs       int `mapstructure:"tick_interval_ms" validate:"required,min=10"`
	EventQueueSize       int `mapstructure:"event_queue_size" validate:"required,min=1"`
	DrainTimeoutMs       int `mapstructure:"drain_timeout_ms" validate:"required,min=1"`
}

// DevicesConfig holds the sysfs device manager configuration.
type DevicesConfig struct {
	SysfsRoot       string `mapstructure:"sysfs_root" validate:"required"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds" validate:"required,min=1"`
}

// RenderConfig selects the console renderer.
type RenderConfig struct {
	Mode string `mapstructure:"mode" validate:"required,oneof=table log none"`
}

func (c StatsConfig) HistoryWindow() time.Duration {
	return time.Duration(c.HistoryWindowSeconds) * time.Second
}

func (c StatsConfig) SampleBucket() time.Duration {
	return time.Duration(c.SampleBucketSeconds) * time.Second
}

func (c StatsConfig) StaleGrace() time.Duration {
	return time.Duration(c.StaleGraceSeconds) * time.Second
}

func (c StatsConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

func (c StatsConfig) DrainTimeout() time.Duration {
	return time.Duration(c.DrainTimeoutMs) * time.Millisecond
}
