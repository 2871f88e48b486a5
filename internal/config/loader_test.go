package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "voicechat.yaml")

	cfg, used, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if used != path {
		t.Fatalf("unexpected path %q", used)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:3001" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if len(cfg.Channels) != 4 || cfg.Channels[0] != "genel" {
		t.Fatalf("unexpected channels %v", cfg.Channels)
	}
	if cfg.NegotiationTimeout != 30*time.Second || !cfg.VoiceDataRelay {
		t.Fatalf("unexpected voice defaults: %+v", cfg)
	}
	if len(cfg.ICEServers) != 1 || cfg.ICEServers[0].URLs[0] != DefaultSTUN {
		t.Fatalf("unexpected ice servers: %+v", cfg.ICEServers)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voicechat.yaml")
	content := []byte(`port: 4000
channels: [lobby, games]
negotiation_timeout: 5s
voice_data_relay: false
ice_servers:
  - urls: ["turn:turn.example.com:3478"]
    username: u
    credential: p
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VOICECHAT_HOST", "127.0.0.1")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:4000" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if len(cfg.Channels) != 2 || cfg.Channels[1] != "games" {
		t.Fatalf("unexpected channels %v", cfg.Channels)
	}
	if cfg.NegotiationTimeout != 5*time.Second || cfg.VoiceDataRelay {
		t.Fatalf("unexpected voice settings: %+v", cfg)
	}
	if len(cfg.ICEServers) != 1 || cfg.ICEServers[0].Username != "u" {
		t.Fatalf("unexpected ice servers: %+v", cfg.ICEServers)
	}
}

func TestUpdateFromKeepsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Port: 9000, LogLevel: "debug"})

	if cfg.Port != 9000 || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Host != "0.0.0.0" || cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("zero values must not override: %+v", cfg)
	}
}
