package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"usbtop/internal/shared/validators"

	"github.com/spf13/viper"
)

// setDefaults registers the value of every option so a partial file, or no file at all, is usable.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("capture.buses", []int{})
	v.SetDefault("capture.prefer_binary_format", true)
	v.SetDefault("capture.binary_root", "/dev")
	v.SetDefault("capture.text_root", "/sys/kernel/debug/usb/usbmon")
	v.SetDefault("capture.read_buffer_bytes", 64*1024)
	v.SetDefault("capture.malformed_threshold", 50)

	v.SetDefault("stats.history_window_seconds", 60)
	v.SetDefault("stats.sample_bucket_seconds", 1)
	v.SetDefault("stats.stale_grace_seconds", 5)
	v.SetDefault("stats.stale_evict_factor", 10)
	v.SetDefault("stats.tick_interval_ms", 1000)
	v.SetDefault("stats.event_queue_size", 1024)
	v.SetDefault("stats.drain_timeout_ms", 2000)

	v.SetDefault("devices.sysfs_root", "/sys/bus/usb/devices")
	v.SetDefault("devices.cache_ttl_seconds", 5)

	v.SetDefault("render.mode", "table")

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 9109)
	v.SetDefault("server.read_header_timeout", 5)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 60)
}

// LoadConfig reads configuration from file and validates it.
// A missing file is not an error when allowMissing is set; defaults apply.
var LoadConfig = func(configPath string, allowMissing bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read from file
	if err := v.ReadInConfig(); err != nil {
		if !allowMissing || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %q: %w", configPath, err)
		}
	}

	// Unmarshal into Config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validators.New()
	if err := validate.Struct(cfg); err != nil {
		var validationErrors []string
		if ve, ok := err.(validators.ValidationErrors); ok {
			for _, e := range ve {
				validationErrors = append(validationErrors, formatValidationError(e))
			}
		}
		return fmt.Errorf("config validation failed: %s", strings.Join(validationErrors, ", "))
	}
	return nil
}

// formatValidationError formats a single validation error into a readable string.
func formatValidationError(e validators.FieldError) string {
	field := e.Field()
	tag := e.Tag()

	// Build field path (e.g., "stats.samplebucketseconds")
	if e.StructNamespace() != "" {
		parts := strings.Split(e.StructNamespace(), ".")
		if len(parts) >= 2 {
			// Skip "Config" prefix, convert to lowercase with dots
			field = strings.ToLower(strings.Join(parts[1:], "."))
		}
	}

	var msg string
	switch tag {
	case "required":
		msg = fmt.Sprintf("%s (required)", field)
	case "min":
		msg = fmt.Sprintf("%s (min=%s)", field, e.Param())
	case "max":
		msg = fmt.Sprintf("%s (max=%s)", field, e.Param())
	case "oneof":
		msg = fmt.Sprintf("%s (oneof=%s)", field, e.Param())
	case "ltefield":
		msg = fmt.Sprintf("%s (must not exceed %s)", field, strings.ToLower(e.Param()))
	default:
		msg = fmt.Sprintf("%s (%s)", field, tag)
	}

	return msg
}
