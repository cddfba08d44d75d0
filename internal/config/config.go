// Package config provides a JSON-overlayable configuration for the frame
// timeline engine: a struct of optional pointer fields so partial JSON
// documents only override what they mention, with Get* accessors
// supplying defaults.
package config

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
)

// DefaultConfigPath is the path to the canonical compiled-in defaults file.
const DefaultConfigPath = "timeline.defaults.json"

//go:embed timeline.defaults.json
var defaultsFS embed.FS

// TimelineConfig overlays the runtime-tunable parts of jank.Thresholds
// and the display frame deque's max_display_frames bound. The token
// retention window is deliberately absent here: it is a compile-time
// constant (token.MaxRetentionTime), not a runtime knob.
type TimelineConfig struct {
	PresentThresholdNs *int64 `json:"present_threshold_ns,omitempty"`
	DeadlineThresholdNs *int64 `json:"deadline_threshold_ns,omitempty"`
	StartThresholdNs *int64 `json:"start_threshold_ns,omitempty"`
	MaxDisplayFrames *int `json:"max_display_frames,omitempty"`
}

// EmptyTimelineConfig returns a TimelineConfig with all fields nil.
func EmptyTimelineConfig() *TimelineConfig {
	return &TimelineConfig{}
}

// LoadTimelineConfig parses a TimelineConfig from raw JSON bytes. Fields
// omitted from the document retain their default values via the Get*
// accessors, so partial overlays are safe.
func LoadTimelineConfig(data []byte) (*TimelineConfig, error) {
	cfg := EmptyTimelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse timeline config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timeline config: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the compiled-in defaults. Panics if the
// embedded file is somehow missing or malformed — that would be a build
// defect, not a runtime condition.
func MustLoadDefaultConfig() *TimelineConfig {
	data, err := defaultsFS.ReadFile(DefaultConfigPath)
	if err != nil {
		panic("cannot read embedded " + DefaultConfigPath + ": " + err.Error())
	}
	cfg, err := LoadTimelineConfig(data)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks that set fields are sane.
func (c *TimelineConfig) Validate() error {
	if c.PresentThresholdNs != nil && *c.PresentThresholdNs < 0 {
		return fmt.Errorf("present_threshold_ns must be non-negative, got %d", *c.PresentThresholdNs)
	}
	if c.DeadlineThresholdNs != nil && *c.DeadlineThresholdNs < 0 {
		return fmt.Errorf("deadline_threshold_ns must be non-negative, got %d", *c.DeadlineThresholdNs)
	}
	if c.StartThresholdNs != nil && *c.StartThresholdNs < 0 {
		return fmt.Errorf("start_threshold_ns must be non-negative, got %d", *c.StartThresholdNs)
	}
	if c.MaxDisplayFrames != nil && *c.MaxDisplayFrames <= 0 {
		return fmt.Errorf("max_display_frames must be positive, got %d", *c.MaxDisplayFrames)
	}
	return nil
}

// GetThresholds materialises a jank.Thresholds from the overlay, defaulting
// any unset field to jank.DefaultThresholds().
func (c *TimelineConfig) GetThresholds() jank.Thresholds {
	d := jank.DefaultThresholds()
	t := d
	if c.PresentThresholdNs != nil {
		t.PresentNs = *c.PresentThresholdNs
	}
	if c.DeadlineThresholdNs != nil {
		t.DeadlineNs = *c.DeadlineThresholdNs
	}
	if c.StartThresholdNs != nil {
		t.StartNs = *c.StartThresholdNs
	}
	return t
}

// DefaultMaxDisplayFrames is default deque bound.
const DefaultMaxDisplayFrames = 64

// GetMaxDisplayFrames returns the configured bound or the default (64).
func (c *TimelineConfig) GetMaxDisplayFrames() int {
	if c.MaxDisplayFrames == nil {
		return DefaultMaxDisplayFrames
	}
	return *c.MaxDisplayFrames
}

// ptrInt64 / ptrInt are pointer-construction helpers, used by Override to
// build a config overlay in memory rather than from JSON.
func ptrInt64(v int64) *int64 { return &v }
func ptrInt(v int) *int { return &v }

// Override returns a copy of TimelineConfig with individual fields replaced
// — a convenience for tests and cmd/ flag wiring that doesn't want to
// round-trip through JSON.
func (c TimelineConfig) Override(presentNs, deadlineNs, startNs *int64, maxFrames *int) TimelineConfig {
	out := c
	if presentNs != nil {
		out.PresentThresholdNs = ptrInt64(*presentNs)
	}
	if deadlineNs != nil {
		out.DeadlineThresholdNs = ptrInt64(*deadlineNs)
	}
	if startNs != nil {
		out.StartThresholdNs = ptrInt64(*startNs)
	}
	if maxFrames != nil {
		out.MaxDisplayFrames = ptrInt(*maxFrames)
	}
	return out
}
