package config

import (
	"fmt"

	"github.com/banshee-data/touchd/internal/device"
	"github.com/banshee-data/touchd/internal/publish"
	"github.com/banshee-data/touchd/internal/touch/l2heatmap"
	"github.com/banshee-data/touchd/internal/touch/l4blobs"
	"github.com/banshee-data/touchd/internal/touch/l5tracks"
	"github.com/banshee-data/touchd/internal/touch/l6stability"
	"github.com/banshee-data/touchd/internal/touch/pipeline"
)

// DetectorConfig builds the blob detector configuration.
func (c *TuningConfig) DetectorConfig() (l4blobs.Config, error) {
	mode, err := l2heatmap.ParseNeutralAlgorithm(c.GetNeutralMode())
	if err != nil {
		return l4blobs.Config{}, err
	}
	return l4blobs.Config{
		Normalize:             c.GetNormalize(),
		NeutralAlgorithm:      mode,
		NeutralOffset:         c.GetNeutralOffset(),
		NeutralBackoff:        c.GetNeutralBackoff(),
		ActivationThreshold:   c.GetActivationThreshold(),
		DeactivationThreshold: c.GetDeactivationThreshold(),
	}, nil
}

// TrackerConfig builds the tracker configuration.
func (c *TuningConfig) TrackerConfig() l5tracks.Config {
	return l5tracks.Config{MaxDistance: c.GetMaxDistance()}
}

// StabilizerConfig builds the stabilizer configuration.
func (c *TuningConfig) StabilizerConfig() l6stability.StabilizerConfig {
	return l6stability.StabilizerConfig{
		TemporalWindow:         c.GetTemporalWindow(),
		CheckTemporalStability: c.GetCheckTemporalStability(),
		SizeThreshold:          c.GetSizeThreshold(),
		PositionThreshold:      c.GetPositionThreshold(),
		OrientationThreshold:   c.GetOrientationThreshold(),
	}
}

// ValidatorConfig builds the validator configuration.
func (c *TuningConfig) ValidatorConfig() l6stability.ValidatorConfig {
	return l6stability.ValidatorConfig{
		TrackValidity: c.GetTrackValidity(),
		SizeLimits:    c.GetSizeLimits(),
		AspectLimits:  c.GetAspectLimits(),
	}
}

// ApplicationConfig builds the configuration of the processing pipeline.
func (c *TuningConfig) ApplicationConfig() (pipeline.Config, error) {
	detector, err := c.DetectorConfig()
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("detector: %w", err)
	}
	return pipeline.Config{
		Finder: pipeline.FinderConfig{
			Detector:   detector,
			Tracker:    c.TrackerConfig(),
			Stabilizer: c.StabilizerConfig(),
			Validator:  c.ValidatorConfig(),
		},
		InvertX: c.GetInvertX(),
		InvertY: c.GetInvertY(),
	}, nil
}

// DeviceConfig builds the options of the configured device source.
func (c *TuningConfig) DeviceConfig() (device.Options, error) {
	kind, err := device.ParseKind(c.GetSource())
	if err != nil {
		return device.Options{}, err
	}
	return device.Options{
		Kind: kind,
		Path: c.GetDevice(),
		Serial: device.PortOptions{
			BaudRate: c.GetBaudRate(),
			Parity:   c.GetParity(),
		},
		Pcap: device.PcapFilter{
			Bus:    getInt(c.PcapBus, 0),
			Device: getInt(c.PcapDevice, 0),
		},
		Interval: c.GetSyntheticInterval(),
	}, nil
}

// PublisherConfig builds the MQTT publisher configuration.
func (c *TuningConfig) PublisherConfig() (publish.Config, error) {
	format, err := publish.ParseFormat(c.GetMQTTFormat())
	if err != nil {
		return publish.Config{}, err
	}
	return publish.Config{
		Broker:      c.GetMQTTBroker(),
		ClientID:    c.GetMQTTClientID(),
		TopicPrefix: c.GetMQTTTopicPrefix(),
		Format:      format,
	}, nil
}
