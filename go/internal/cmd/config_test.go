package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: "9090"
  allowed_origins: ["https://poker.example.com"]
room:
  reap_interval: 2m
  locale: de
  lookup_concurrency: 3
gateway:
  nats_url: nats://nats:4222
  node_id: node-a
  query_timeout: 2s
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	config, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if config.Server.Port != "9090" {
		t.Errorf("port = %s, want 9090", config.Server.Port)
	}
	if diff := cmp.Diff([]string{"https://poker.example.com"}, config.Server.AllowedOrigins); diff != "" {
		t.Errorf("allowed origins (-want +got):\n%s", diff)
	}
	if config.Room.ReapInterval != 2*time.Minute {
		t.Errorf("reap interval = %s, want 2m", config.Room.ReapInterval)
	}
	if config.Room.Locale != "de" || config.Room.LookupConcurrency != 3 {
		t.Errorf("room = %+v", config.Room)
	}
	if config.Room.OpTimeout != 10*time.Second {
		t.Errorf("op timeout default lost: %s", config.Room.OpTimeout)
	}
	if config.Gateway.NATSURL != "nats://nats:4222" || config.Gateway.NodeID != "node-a" || config.Gateway.Subject != "rooms.events" {
		t.Errorf("gateway = %+v", config.Gateway)
	}
	if config.Gateway.MembersSubject != "rooms.members" || config.Gateway.QueryTimeout != 2*time.Second {
		t.Errorf("occupancy query settings = %s %s", config.Gateway.MembersSubject, config.Gateway.QueryTimeout)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("REAP_INTERVAL", "15s")
	t.Setenv("LOOKUP_CONCURRENCY", "not-a-number")
	t.Setenv("NODE_ID", "node-b")

	config, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if config.Server.Port != "7070" {
		t.Errorf("port = %s, want 7070", config.Server.Port)
	}
	if config.Room.ReapInterval != 15*time.Second {
		t.Errorf("reap interval = %s, want 15s", config.Room.ReapInterval)
	}
	if config.Room.LookupConcurrency != 8 {
		t.Errorf("lookup concurrency = %d, want default 8", config.Room.LookupConcurrency)
	}
	if config.Gateway.NodeID != "node-b" {
		t.Errorf("node id = %s, want node-b", config.Gateway.NodeID)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("REAP_INTERVAL", "-1s")
	if _, err := loadConfig(""); err == nil {
		t.Fatal("expected an error for a negative reap interval")
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
