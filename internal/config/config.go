// Package config loads signalhand settings from YAML, a .env file and
// SIGNALHAND_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/signalhand/internal/gesture"
	"github.com/ayusman/signalhand/internal/timing"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SIGNALHAND_"

// ErrInvalid is returned by Validate for impossible settings.
var ErrInvalid = errors.New("invalid configuration")

// Config is the top-level configuration.
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Gesture  GestureConfig  `yaml:"gesture"`
	Loop     LoopConfig     `yaml:"loop"`
	Timing   TimingConfig   `yaml:"timing"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Tray     bool           `yaml:"tray"`
}

// SerialConfig selects the controller port. An empty port runs without a device.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type CameraConfig struct {
	Device int `yaml:"device"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

type DetectorConfig struct {
	Script        string  `yaml:"script"`
	MaxHands      int     `yaml:"max_hands"`
	MinConfidence float64 `yaml:"min_confidence"`
	Mock          bool    `yaml:"mock"`
}

type GestureConfig struct {
	Variant    string `yaml:"variant"`
	CooldownMs int    `yaml:"cooldown_ms"`
}

type LoopConfig struct {
	TickHz          int `yaml:"tick_hz"`
	ResendDelayMs   int `yaml:"resend_delay_ms"`
	MaxLinesPerTick int `yaml:"max_lines_per_tick"`
}

// TimingConfig holds the durations used until the store has its own.
type TimingConfig struct {
	Red    int `yaml:"red"`
	Yellow int `yaml:"yellow"`
	Green  int `yaml:"green"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type StoreConfig struct {
	Path           string `yaml:"path"`
	RetentionHours int    `yaml:"retention_hours"`
}

// MQTTConfig configures event telemetry.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	QoS         byte   `yaml:"qos"`
	Retain      bool   `yaml:"retain"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Serial: SerialConfig{Baud: 9600},
		Camera: CameraConfig{Width: 640, Height: 480, FPS: 15},
		Detector: DetectorConfig{
			MaxHands:      2,
			MinConfidence: 0.5,
		},
		Gesture: GestureConfig{
			Variant:    string(gesture.VariantPoses),
			CooldownMs: int(gesture.DefaultCooldown / time.Millisecond),
		},
		Loop: LoopConfig{
			TickHz:          60,
			ResendDelayMs:   100,
			MaxLinesPerTick: 10,
		},
		Timing: TimingConfig{
			Red:    timing.DefaultRed,
			Yellow: timing.DefaultYellow,
			Green:  timing.DefaultGreen,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		Store: StoreConfig{
			Path:           filepath.Join(home, ".signalhand", "signalhand.db"),
			RetentionHours: 7 * 24,
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "signalhand",
			QoS:         1,
			TopicPrefix: "signalhand",
		},
		Tray: true,
	}
}

// Load reads filename over the defaults. An empty filename skips the file.
// A .env file in the working directory is loaded if present, then
// SIGNALHAND_* variables are applied.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SIGNALHAND_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"SERIAL_PORT":     &c.Serial.Port,
		"DETECTOR_SCRIPT": &c.Detector.Script,
		"GESTURE_VARIANT": &c.Gesture.Variant,
		"SERVER_ADDR":     &c.Server.Addr,
		"STATIC_DIR":      &c.Server.StaticDir,
		"STORE_PATH":      &c.Store.Path,
		"MQTT_BROKER":     &c.MQTT.Broker,
		"MQTT_CLIENT_ID":  &c.MQTT.ClientID,
		"MQTT_USERNAME":   &c.MQTT.Username,
		"MQTT_PASSWORD":   &c.MQTT.Password,
		"MQTT_TOPIC":      &c.MQTT.TopicPrefix,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SERIAL_BAUD":   &c.Serial.Baud,
		"CAMERA_DEVICE": &c.Camera.Device,
		"COOLDOWN_MS":   &c.Gesture.CooldownMs,
		"TICK_HZ":       &c.Loop.TickHz,
		"RED_MS":        &c.Timing.Red,
		"YELLOW_MS":     &c.Timing.Yellow,
		"GREEN_MS":      &c.Timing.Green,
	}
	for key, dst := range ints {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not a number", ErrInvalid, EnvPrefix, key, v)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"MQTT_ENABLED":  &c.MQTT.Enabled,
		"DETECTOR_MOCK": &c.Detector.Mock,
		"TRAY":          &c.Tray,
	}
	for key, dst := range bools {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not a boolean", ErrInvalid, EnvPrefix, key, v)
		}
		*dst = b
	}
	return nil
}

// Validate rejects settings the controller cannot run with. Timing values
// outside the hardware range are not rejected; they are clamped on use.
func (c *Config) Validate() error {
	if _, err := gesture.LookupTable(gesture.Variant(c.Gesture.Variant)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Loop.TickHz <= 0 || c.Loop.TickHz > 1000 {
		return fmt.Errorf("%w: loop.tick_hz must be in 1..1000, got %d", ErrInvalid, c.Loop.TickHz)
	}
	if c.Gesture.CooldownMs < 0 {
		return fmt.Errorf("%w: gesture.cooldown_ms must not be negative", ErrInvalid)
	}
	if c.Loop.ResendDelayMs < 0 {
		return fmt.Errorf("%w: loop.resend_delay_ms must not be negative", ErrInvalid)
	}
	if c.Serial.Port != "" && c.Serial.Baud <= 0 {
		return fmt.Errorf("%w: serial.baud must be positive", ErrInvalid)
	}
	if c.Detector.MaxHands < 1 {
		return fmt.Errorf("%w: detector.max_hands must be at least 1", ErrInvalid)
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("%w: detector.min_confidence must be in [0,1]", ErrInvalid)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("%w: mqtt.broker is required when mqtt is enabled", ErrInvalid)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt.qos must be 0, 1 or 2", ErrInvalid)
	}
	return nil
}

// Params returns the configured durations.
func (t TimingConfig) Params() timing.Params {
	return timing.Params{Red: t.Red, Yellow: t.Yellow, Green: t.Green}
}

// Cooldown returns the debounce window.
func (g GestureConfig) Cooldown() time.Duration {
	return time.Duration(g.CooldownMs) * time.Millisecond
}

// ResendDelay returns the gap between the two Normal presses.
func (l LoopConfig) ResendDelay() time.Duration {
	return time.Duration(l.ResendDelayMs) * time.Millisecond
}

// Retention returns how long history is kept.
func (s StoreConfig) Retention() time.Duration {
	return time.Duration(s.RetentionHours) * time.Hour
}
