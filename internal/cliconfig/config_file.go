package cliconfig

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig is the TOML config file. Each subcommand reads its own table.
type FileConfig struct {
	Send    SendFileConfig    `toml:"send"`
	Receive ReceiveFileConfig `toml:"receive"`
}

// SendFileConfig mirrors SendConfig but uses strings for durations to make TOML friendly.
type SendFileConfig struct {
	WatchDir          string   `toml:"watch_dir"`
	Destinations      []string `toml:"destinations"`
	ReconnectInterval string   `toml:"reconnect_interval"`
	ReconnectMax      string   `toml:"reconnect_max"`
	ReconnectTimeout  string   `toml:"reconnect_timeout"`
	DialTimeout       string   `toml:"dial_timeout"`
	SettleDelay       string   `toml:"settle_delay"`
	DispatchDelay     string   `toml:"dispatch_delay"`
	QueueSize         int      `toml:"queue_size"`
	Ignore            []string `toml:"ignore"`
	LogLevel          string   `toml:"log_level"`
}

// ReceiveFileConfig mirrors ReceiveConfig.
type ReceiveFileConfig struct {
	Listen    string `toml:"listen"`
	DestDir   string `toml:"dest_dir"`
	ChunkSize int    `toml:"chunk_size"`
	LogLevel  string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.fileship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".fileship", "config.toml")
	}
	return ""
}

// ApplySendFileConfig applies the [send] table to cfg.
// It respects flags that have been explicitly set (changed map).
func ApplySendFileConfig(cfg *SendConfig, fc SendFileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("watch-dir", fc.WatchDir, &cfg.WatchDir)
	s.setStrings("dest", fc.Destinations, &cfg.Destinations)
	s.setStrings("ignore", fc.Ignore, &cfg.Ignore)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setInt("queue-size", fc.QueueSize, &cfg.QueueSize)

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"reconnect-interval", fc.ReconnectInterval, &cfg.ReconnectInterval},
		{"reconnect-max", fc.ReconnectMax, &cfg.ReconnectMax},
		{"reconnect-timeout", fc.ReconnectTimeout, &cfg.ReconnectTimeout},
		{"dial-timeout", fc.DialTimeout, &cfg.DialTimeout},
		{"settle-delay", fc.SettleDelay, &cfg.SettleDelay},
		{"dispatch-delay", fc.DispatchDelay, &cfg.DispatchDelay},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}
	return nil
}

// ApplyReceiveFileConfig applies the [receive] table to cfg.
// It respects flags that have been explicitly set (changed map).
func ApplyReceiveFileConfig(cfg *ReceiveConfig, fc ReceiveFileConfig, changed map[string]bool) {
	s := newConfigSetter(changed)

	s.setString("listen", fc.Listen, &cfg.Listen)
	s.setString("dest-dir", fc.DestDir, &cfg.DestDir)
	s.setInt("chunk-size", fc.ChunkSize, &cfg.ChunkSize)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
