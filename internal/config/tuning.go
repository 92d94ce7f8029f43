package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/touchd/internal/device"
	"github.com/banshee-data/touchd/internal/publish"
	"github.com/banshee-data/touchd/internal/touch/l2heatmap"
	"github.com/banshee-data/touchd/internal/touch/l6stability"
	"github.com/banshee-data/touchd/internal/touch/pipeline"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// maxFileSize bounds configuration files.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// Band is a closed interval, used for hysteresis thresholds and limits.
type Band = l6stability.Band

// TuningConfig represents the root configuration of the daemon. Every field
// is optional; the Get* methods supply the default of an omitted field.
type TuningConfig struct {
	// Detector params
	Normalize             *bool    `json:"normalize,omitempty" yaml:"normalize,omitempty"`
	NeutralMode           *string  `json:"neutral_mode,omitempty" yaml:"neutral_mode,omitempty"` // mode, average or constant
	NeutralOffset         *float64 `json:"neutral_offset,omitempty" yaml:"neutral_offset,omitempty"`
	NeutralBackoff        *int     `json:"neutral_backoff,omitempty" yaml:"neutral_backoff,omitempty"`
	ActivationThreshold   *float64 `json:"activation_threshold,omitempty" yaml:"activation_threshold,omitempty"`
	DeactivationThreshold *float64 `json:"deactivation_threshold,omitempty" yaml:"deactivation_threshold,omitempty"`

	// Tracker params
	MaxDistance *float64 `json:"max_distance,omitempty" yaml:"max_distance,omitempty"`

	// Stabilizer params
	TemporalWindow         *int  `json:"temporal_window,omitempty" yaml:"temporal_window,omitempty"`
	CheckTemporalStability *bool `json:"check_temporal_stability,omitempty" yaml:"check_temporal_stability,omitempty"`
	SizeThreshold          *Band `json:"size_threshold,omitempty" yaml:"size_threshold,omitempty"`
	PositionThreshold      *Band `json:"position_threshold,omitempty" yaml:"position_threshold,omitempty"`
	OrientationThreshold   *Band `json:"orientation_threshold,omitempty" yaml:"orientation_threshold,omitempty"`

	// Validator params
	TrackValidity *bool `json:"track_validity,omitempty" yaml:"track_validity,omitempty"`
	SizeLimits    *Band `json:"size_limits,omitempty" yaml:"size_limits,omitempty"`
	AspectLimits  *Band `json:"aspect_limits,omitempty" yaml:"aspect_limits,omitempty"`

	// Output params
	InvertX *bool `json:"invert_x,omitempty" yaml:"invert_x,omitempty"`
	InvertY *bool `json:"invert_y,omitempty" yaml:"invert_y,omitempty"`

	// Device params
	Source            *string `json:"source,omitempty" yaml:"source,omitempty"`
	Device            *string `json:"device,omitempty" yaml:"device,omitempty"`
	BaudRate          *int    `json:"baud_rate,omitempty" yaml:"baud_rate,omitempty"`
	Parity            *string `json:"parity,omitempty" yaml:"parity,omitempty"`
	PcapBus           *int    `json:"pcap_bus,omitempty" yaml:"pcap_bus,omitempty"`
	PcapDevice        *int    `json:"pcap_device,omitempty" yaml:"pcap_device,omitempty"`
	SyntheticInterval *string `json:"synthetic_interval,omitempty" yaml:"synthetic_interval,omitempty"` // duration string like "16ms"
	RetryDelay        *string `json:"retry_delay,omitempty" yaml:"retry_delay,omitempty"`
	MaxRetryDelay     *string `json:"max_retry_delay,omitempty" yaml:"max_retry_delay,omitempty"`

	// Publisher params
	MQTTBroker      *string `json:"mqtt_broker,omitempty" yaml:"mqtt_broker,omitempty"`
	MQTTClientID    *string `json:"mqtt_client_id,omitempty" yaml:"mqtt_client_id,omitempty"`
	MQTTTopicPrefix *string `json:"mqtt_topic_prefix,omitempty" yaml:"mqtt_topic_prefix,omitempty"`
	MQTTFormat      *string `json:"mqtt_format,omitempty" yaml:"mqtt_format,omitempty"` // json or binary
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a .json, .yaml or .yml file
// under the max file size. Fields omitted from the file fall back to their
// defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/touch/pipeline/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid. Constraints
// spanning several fields are checked on the merged values.
func (c *TuningConfig) Validate() error {
	if c.NeutralMode != nil {
		if _, err := l2heatmap.ParseNeutralAlgorithm(*c.NeutralMode); err != nil {
			return fmt.Errorf("neutral_mode: %w", err)
		}
	}
	if c.NeutralBackoff != nil && *c.NeutralBackoff < 0 {
		return fmt.Errorf("neutral_backoff must be non-negative, got %d", *c.NeutralBackoff)
	}
	if c.GetDeactivationThreshold() > c.GetActivationThreshold() {
		return fmt.Errorf("deactivation_threshold %g exceeds activation_threshold %g",
			c.GetDeactivationThreshold(), c.GetActivationThreshold())
	}
	if c.MaxDistance != nil && *c.MaxDistance < 0 {
		return fmt.Errorf("max_distance must be non-negative, got %f", *c.MaxDistance)
	}
	if c.TemporalWindow != nil && *c.TemporalWindow < 0 {
		return fmt.Errorf("temporal_window must be non-negative, got %d", *c.TemporalWindow)
	}

	bands := []struct {
		name string
		band *Band
	}{
		{"size_threshold", c.SizeThreshold},
		{"position_threshold", c.PositionThreshold},
		{"orientation_threshold", c.OrientationThreshold},
		{"size_limits", c.SizeLimits},
		{"aspect_limits", c.AspectLimits},
	}
	for _, b := range bands {
		if b.band == nil {
			continue
		}
		if err := b.band.Validate(); err != nil {
			return fmt.Errorf("%s: %w", b.name, err)
		}
	}

	if c.Source != nil {
		if _, err := device.ParseKind(*c.Source); err != nil {
			return fmt.Errorf("source: %w", err)
		}
	}
	if _, err := (device.PortOptions{Parity: c.GetParity()}).Normalise(); err != nil {
		return fmt.Errorf("parity: %w", err)
	}

	durations := []struct {
		name  string
		value *string
	}{
		{"synthetic_interval", c.SyntheticInterval},
		{"retry_delay", c.RetryDelay},
		{"max_retry_delay", c.MaxRetryDelay},
	}
	for _, d := range durations {
		if d.value == nil || *d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(*d.value); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", d.name, *d.value, err)
		}
	}

	if c.MQTTFormat != nil {
		if _, err := publish.ParseFormat(*c.MQTTFormat); err != nil {
			return fmt.Errorf("mqtt_format: %w", err)
		}
	}
	return nil
}

func getBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func getInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func getFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func getString(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// getBand returns a copy of p, or of def when p is nil.
func getBand(p *Band, def *Band) *Band {
	if p == nil {
		p = def
	}
	if p == nil {
		return nil
	}
	b := *p
	return &b
}

func getDuration(p *string, def time.Duration) time.Duration {
	if p == nil || *p == "" {
		return def
	}
	d, err := time.ParseDuration(*p)
	if err != nil {
		return def // default on parse error
	}
	return d
}

// GetNormalize returns the normalize value or the default.
func (c *TuningConfig) GetNormalize() bool { return getBool(c.Normalize, true) }

// GetNeutralMode returns the neutral_mode value or the default.
func (c *TuningConfig) GetNeutralMode() string { return getString(c.NeutralMode, "mode") }

// GetNeutralOffset returns the neutral_offset value or the default.
func (c *TuningConfig) GetNeutralOffset() float64 { return getFloat(c.NeutralOffset, 0) }

// GetNeutralBackoff returns the neutral_backoff value or the default.
func (c *TuningConfig) GetNeutralBackoff() int { return getInt(c.NeutralBackoff, 1) }

// GetActivationThreshold returns the activation_threshold value or the default.
func (c *TuningConfig) GetActivationThreshold() float64 {
	return getFloat(c.ActivationThreshold, 0.1)
}

// GetDeactivationThreshold returns the deactivation_threshold value or the default.
func (c *TuningConfig) GetDeactivationThreshold() float64 {
	return getFloat(c.DeactivationThreshold, 0.08)
}

// GetMaxDistance returns the max_distance value or the default.
func (c *TuningConfig) GetMaxDistance() float64 { return getFloat(c.MaxDistance, 0.2) }

// GetTemporalWindow returns the temporal_window value or the default.
func (c *TuningConfig) GetTemporalWindow() int { return getInt(c.TemporalWindow, 3) }

// GetCheckTemporalStability returns the check_temporal_stability value or the default.
func (c *TuningConfig) GetCheckTemporalStability() bool {
	return getBool(c.CheckTemporalStability, true)
}

// GetSizeThreshold returns the size_threshold band or the default.
func (c *TuningConfig) GetSizeThreshold() *Band {
	return getBand(c.SizeThreshold, &Band{Lower: 0.005, Upper: 0.05})
}

// GetPositionThreshold returns the position_threshold band or the default.
func (c *TuningConfig) GetPositionThreshold() *Band {
	return getBand(c.PositionThreshold, &Band{Lower: 0.002, Upper: 0.1})
}

// GetOrientationThreshold returns the orientation_threshold band or the default.
func (c *TuningConfig) GetOrientationThreshold() *Band {
	return getBand(c.OrientationThreshold, &Band{Lower: 0.02, Upper: 0.2})
}

// GetTrackValidity returns the track_validity value or the default.
func (c *TuningConfig) GetTrackValidity() bool { return getBool(c.TrackValidity, true) }

// GetSizeLimits returns the size_limits band or the default.
func (c *TuningConfig) GetSizeLimits() *Band {
	return getBand(c.SizeLimits, &Band{Lower: 0, Upper: 0.2})
}

// GetAspectLimits returns the aspect_limits band or the default.
func (c *TuningConfig) GetAspectLimits() *Band {
	return getBand(c.AspectLimits, &Band{Lower: 1, Upper: 2.5})
}

// GetInvertX returns the invert_x value or the default.
func (c *TuningConfig) GetInvertX() bool { return getBool(c.InvertX, false) }

// GetInvertY returns the invert_y value or the default.
func (c *TuningConfig) GetInvertY() bool { return getBool(c.InvertY, false) }

// GetSource returns the source value or the default.
func (c *TuningConfig) GetSource() string { return getString(c.Source, string(device.KindHidraw)) }

// GetDevice returns the device path or the default.
func (c *TuningConfig) GetDevice() string { return getString(c.Device, "/dev/hidraw0") }

// GetBaudRate returns the baud_rate value or the default.
func (c *TuningConfig) GetBaudRate() int { return getInt(c.BaudRate, device.DefaultBaudRate) }

// GetParity returns the parity value or the default.
func (c *TuningConfig) GetParity() string { return getString(c.Parity, "N") }

// GetSyntheticInterval returns the synthetic_interval value or the default.
func (c *TuningConfig) GetSyntheticInterval() time.Duration {
	return getDuration(c.SyntheticInterval, 16*time.Millisecond)
}

// GetRetryDelay returns the retry_delay value or the default.
func (c *TuningConfig) GetRetryDelay() time.Duration {
	return getDuration(c.RetryDelay, pipeline.DefaultRetryDelay)
}

// GetMaxRetryDelay returns the max_retry_delay value or the default.
func (c *TuningConfig) GetMaxRetryDelay() time.Duration {
	return getDuration(c.MaxRetryDelay, pipeline.DefaultMaxRetryDelay)
}

// GetMQTTBroker returns the mqtt_broker value. Empty disables publishing.
func (c *TuningConfig) GetMQTTBroker() string { return getString(c.MQTTBroker, "") }

// GetMQTTClientID returns the mqtt_client_id value or the default.
func (c *TuningConfig) GetMQTTClientID() string { return getString(c.MQTTClientID, "touchd") }

// GetMQTTTopicPrefix returns the mqtt_topic_prefix value or the default.
func (c *TuningConfig) GetMQTTTopicPrefix() string {
	return getString(c.MQTTTopicPrefix, "touchd")
}

// GetMQTTFormat returns the mqtt_format value or the default.
func (c *TuningConfig) GetMQTTFormat() string { return getString(c.MQTTFormat, "json") }
