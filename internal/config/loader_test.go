package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	logger := zerolog.New(nil)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(&logger, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected resolved path %s, got %s", path, resolved)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("expected default config to be written: %v", statErr)
	}

	def := Default()
	if cfg.Addr != def.Addr || cfg.Timezone != def.Timezone || cfg.Footer != def.Footer {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ShutdownTimeout != def.ShutdownTimeout {
		t.Fatalf("expected shutdown timeout %s, got %s", def.ShutdownTimeout, cfg.ShutdownTimeout)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "addr: \":9000\"\ntimezone: UTC\nreject_room_overwrite: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TOOLBOXTALK_ADDR", ":9100")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9100" {
		t.Fatalf("expected env addr :9100, got %s", cfg.Addr)
	}
	if cfg.Timezone != "UTC" {
		t.Fatalf("expected timezone from file, got %s", cfg.Timezone)
	}
	if !cfg.RejectRoomOverwrite {
		t.Fatalf("expected reject_room_overwrite from file")
	}
	if cfg.DefaultMembers != Default().DefaultMembers {
		t.Fatalf("expected default members to survive, got %q", cfg.DefaultMembers)
	}
}

func TestUpdateFromKeepsZeroFields(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":7000", SessionTTL: time.Hour})

	if cfg.Addr != ":7000" || cfg.SessionTTL != time.Hour {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Timezone != "Asia/Seoul" {
		t.Fatalf("zero override should keep timezone, got %s", cfg.Timezone)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := Config{Timezone: "Not/AZone"}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC fallback")
	}
	if _, err := cfg.LoadLocation(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		want     string
	}{
		{name: "empty is utc", timezone: "", want: "UTC"},
		{name: "utc", timezone: "UTC", want: "UTC"},
		{name: "seoul", timezone: "Asia/Seoul", want: "Asia/Seoul"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Timezone: tt.timezone}
			loc, err := cfg.LoadLocation()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if loc.String() != tt.want {
				t.Fatalf("location = %s, want %s", loc, tt.want)
			}
		})
	}
}
