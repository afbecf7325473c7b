package cliconfig

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestDefaultSendConfig(t *testing.T) {
	cfg := DefaultSendConfig()

	want := SendConfig{
		ReconnectInterval: 500 * time.Millisecond,
		ReconnectMax:      500 * time.Millisecond,
		DialTimeout:       5 * time.Second,
		SettleDelay:       50 * time.Millisecond,
		DispatchDelay:     time.Millisecond,
		QueueSize:         1024,
		Ignore:            []string{"*.part"},
		LogLevel:          "info",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("DefaultSendConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultReceiveConfig(t *testing.T) {
	cfg := DefaultReceiveConfig()

	if cfg.Listen != DefaultListenAddr {
		t.Errorf("Listen = %v, want %v", cfg.Listen, DefaultListenAddr)
	}
	if cfg.ChunkSize != 1<<20 {
		t.Errorf("ChunkSize = %v, want 1MB", cfg.ChunkSize)
	}
}

func validSendConfig() SendConfig {
	cfg := DefaultSendConfig()
	cfg.WatchDir = "/tmp/src"
	cfg.Destinations = []string{"10.0.0.2:5001", "10.0.0.3:5001"}
	return cfg
}

func TestSendConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SendConfig)
		wantErr bool
	}{
		{"valid", func(*SendConfig) {}, false},
		{"missing watch dir", func(c *SendConfig) { c.WatchDir = "" }, true},
		{"no destinations", func(c *SendConfig) { c.Destinations = nil }, true},
		{"bad destination", func(c *SendConfig) { c.Destinations = []string{"10.0.0.2"} }, true},
		{"bad port", func(c *SendConfig) { c.Destinations = []string{"host:99999"} }, true},
		{"zero reconnect interval", func(c *SendConfig) { c.ReconnectInterval = 0 }, true},
		{"negative reconnect timeout", func(c *SendConfig) { c.ReconnectTimeout = -time.Second }, true},
		{"zero dial timeout", func(c *SendConfig) { c.DialTimeout = 0 }, true},
		{"zero settle delay", func(c *SendConfig) { c.SettleDelay = 0 }, true},
		{"zero dispatch delay is allowed", func(c *SendConfig) { c.DispatchDelay = 0 }, false},
		{"zero queue size", func(c *SendConfig) { c.QueueSize = 0 }, true},
		{"unknown log level", func(c *SendConfig) { c.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validSendConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSendConfig_Validate_RaisesReconnectMax(t *testing.T) {
	cfg := validSendConfig()
	cfg.ReconnectInterval = 2 * time.Second
	cfg.ReconnectMax = time.Second

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.ReconnectMax != 2*time.Second {
		t.Errorf("ReconnectMax = %v, want 2s", cfg.ReconnectMax)
	}
}

func TestReceiveConfig_Validate(t *testing.T) {
	tests := []struct {
		name       string
		config     ReceiveConfig
		wantErr    bool
		wantListen string
	}{
		{
			name:       "valid",
			config:     ReceiveConfig{Listen: "127.0.0.1:6000", DestDir: "/tmp/dst", ChunkSize: 4096},
			wantListen: "127.0.0.1:6000",
		},
		{
			name:       "listen defaults when omitted",
			config:     ReceiveConfig{DestDir: "/tmp/dst", ChunkSize: 4096},
			wantListen: DefaultListenAddr,
		},
		{
			name:    "missing dest dir",
			config:  ReceiveConfig{Listen: DefaultListenAddr, ChunkSize: 4096},
			wantErr: true,
		},
		{
			name:    "zero chunk size",
			config:  ReceiveConfig{DestDir: "/tmp/dst"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.config.Listen != tt.wantListen {
				t.Errorf("Listen = %v, want %v", tt.config.Listen, tt.wantListen)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"loud", zerolog.NoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfigSetter_StringsFromString(t *testing.T) {
	s := newConfigSetter(map[string]bool{"ignore": true})

	var dests []string
	s.setStringsFromString("dest", " a:1, b:2 ,,c:3", &dests)
	if diff := cmp.Diff([]string{"a:1", "b:2", "c:3"}, dests); diff != "" {
		t.Errorf("dest mismatch (-want +got):\n%s", diff)
	}

	ignore := []string{"*.part"}
	s.setStringsFromString("ignore", "*.tmp", &ignore)
	if diff := cmp.Diff([]string{"*.part"}, ignore); diff != "" {
		t.Errorf("changed flag was overridden (-want +got):\n%s", diff)
	}
}
