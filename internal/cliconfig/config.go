package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/fileship/internal/domain"
)

// DefaultListenAddr is the receiver's default bind address.
const DefaultListenAddr = "0.0.0.0:5001"

// SendConfig holds CLI configuration for `fileship send`.
type SendConfig struct {
	WatchDir     string
	Destinations []string

	ReconnectInterval time.Duration
	ReconnectMax      time.Duration
	ReconnectTimeout  time.Duration
	DialTimeout       time.Duration

	SettleDelay   time.Duration
	DispatchDelay time.Duration
	QueueSize     int
	Ignore        []string

	LogLevel string
}

// ReceiveConfig holds CLI configuration for `fileship receive`.
type ReceiveConfig struct {
	Listen    string
	DestDir   string
	ChunkSize int

	LogLevel string
}

// DefaultSendConfig returns a SendConfig with default values.
func DefaultSendConfig() SendConfig {
	return SendConfig{
		ReconnectInterval: 500 * time.Millisecond,
		ReconnectMax:      500 * time.Millisecond,
		DialTimeout:       5 * time.Second,
		SettleDelay:       50 * time.Millisecond,
		DispatchDelay:     time.Millisecond,
		QueueSize:         1024,
		Ignore:            []string{"*.part"},
		LogLevel:          "info",
	}
}

// DefaultReceiveConfig returns a ReceiveConfig with default values.
func DefaultReceiveConfig() ReceiveConfig {
	return ReceiveConfig{
		Listen:    DefaultListenAddr,
		ChunkSize: 1 << 20, // 1MB
		LogLevel:  "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *SendConfig) Validate() error {
	if c.WatchDir == "" {
		return fmt.Errorf("watch-dir is required")
	}
	if len(c.Destinations) == 0 {
		return fmt.Errorf("at least one dest is required")
	}
	for _, d := range c.Destinations {
		if _, err := domain.ParseDestination(d); err != nil {
			return err
		}
	}

	if c.ReconnectInterval <= 0 {
		return fmt.Errorf("reconnect interval must be positive")
	}
	if c.ReconnectMax < c.ReconnectInterval {
		c.ReconnectMax = c.ReconnectInterval
	}
	if c.ReconnectTimeout < 0 {
		return fmt.Errorf("reconnect timeout must not be negative")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive")
	}
	if c.SettleDelay <= 0 {
		return fmt.Errorf("settle delay must be positive")
	}
	if c.DispatchDelay < 0 {
		return fmt.Errorf("dispatch delay must not be negative")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue size must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *ReceiveConfig) Validate() error {
	if c.DestDir == "" {
		return fmt.Errorf("dest-dir is required")
	}
	if c.Listen == "" {
		c.Listen = DefaultListenAddr
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel parses a log level name. An empty name means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log-level: %w", err)
	}
	return lvl, nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings replaces a list value if non-empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setStringsFromString splits a comma-separated list and sets the destination.
// Used for environment variables that come as strings.
func (s *configSetter) setStringsFromString(flag, value string, dst *[]string) {
	if value == "" || s.changed[flag] {
		return
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	s.setStrings(flag, out, dst)
}
