package cliconfig

import (
	"os"
	"time"
)

// ApplySendEnvConfig applies configuration from environment variables (FILESHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplySendEnvConfig(cfg *SendConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("watch-dir", os.Getenv("FILESHIP_WATCH_DIR"), &cfg.WatchDir)
	s.setStringsFromString("dest", os.Getenv("FILESHIP_DESTINATIONS"), &cfg.Destinations)
	s.setStringsFromString("ignore", os.Getenv("FILESHIP_IGNORE"), &cfg.Ignore)
	s.setString("log-level", os.Getenv("FILESHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setIntFromString("queue-size", os.Getenv("FILESHIP_QUEUE_SIZE"), &cfg.QueueSize); err != nil {
		return err
	}

	durations := []struct {
		flag string
		env  string
		dst  *time.Duration
	}{
		{"reconnect-interval", "FILESHIP_RECONNECT_INTERVAL", &cfg.ReconnectInterval},
		{"reconnect-max", "FILESHIP_RECONNECT_MAX", &cfg.ReconnectMax},
		{"reconnect-timeout", "FILESHIP_RECONNECT_TIMEOUT", &cfg.ReconnectTimeout},
		{"dial-timeout", "FILESHIP_DIAL_TIMEOUT", &cfg.DialTimeout},
		{"settle-delay", "FILESHIP_SETTLE_DELAY", &cfg.SettleDelay},
		{"dispatch-delay", "FILESHIP_DISPATCH_DELAY", &cfg.DispatchDelay},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, os.Getenv(d.env), d.dst); err != nil {
			return err
		}
	}
	return nil
}

// ApplyReceiveEnvConfig applies configuration from environment variables (FILESHIP_*).
// It respects flags that have been explicitly set (changed map).
func ApplyReceiveEnvConfig(cfg *ReceiveConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", os.Getenv("FILESHIP_LISTEN"), &cfg.Listen)
	s.setString("dest-dir", os.Getenv("FILESHIP_DEST_DIR"), &cfg.DestDir)
	s.setString("log-level", os.Getenv("FILESHIP_LOG_LEVEL"), &cfg.LogLevel)

	return s.setIntFromString("chunk-size", os.Getenv("FILESHIP_CHUNK_SIZE"), &cfg.ChunkSize)
}
