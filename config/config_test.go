package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRETA", "s3cret")
	t.Setenv("STORAGE_CONNECTION_STRING", "UseDevelopmentStorage=true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 4000 {
		t.Fatalf("unexpected port %d", cfg.Port)
	}
	if cfg.ListenAddr() != ":4000" {
		t.Fatalf("unexpected listen addr %q", cfg.ListenAddr())
	}
	if cfg.TokenTTL != 4*time.Hour {
		t.Fatalf("unexpected token ttl %v", cfg.TokenTTL)
	}
	if cfg.UsersTable != "users" || cfg.ProjectsTable != "projects" || cfg.TasksTable != "tasks" {
		t.Fatalf("unexpected tables %+v", cfg)
	}
	if cfg.EventsQueue != "" || cfg.RedisConnectionString != "" {
		t.Fatalf("optional integrations must default to disabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SECRETA", "s3cret")
	t.Setenv("STORAGE_CONNECTION_STRING", "UseDevelopmentStorage=true")
	t.Setenv("PORT", "8081")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("EVENTS_QUEUE", "events")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8081 || cfg.TokenTTL != 30*time.Minute || cfg.EventsQueue != "events" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("SECRETA", "")
	t.Setenv("STORAGE_CONNECTION_STRING", "")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "SECRETA") || !strings.Contains(err.Error(), "STORAGE_CONNECTION_STRING") {
		t.Fatalf("expected both settings reported, got %v", err)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("SECRETA", "s3cret")
	t.Setenv("STORAGE_CONNECTION_STRING", "x")
	t.Setenv("PORT", "70000")

	if _, err := Load(); err == nil {
		t.Fatalf("expected invalid port error")
	}
}

func TestLoadStorageWithoutSecret(t *testing.T) {
	t.Setenv("SECRETA", "")
	t.Setenv("STORAGE_CONNECTION_STRING", "UseDevelopmentStorage=true")
	t.Setenv("TASKS_TABLE", "tareas")

	cfg, err := LoadStorage()
	if err != nil {
		t.Fatalf("load storage: %v", err)
	}
	got := strings.Join(cfg.Tables(), ",")
	if got != "users,projects,tareas" {
		t.Fatalf("unexpected tables %q", got)
	}
}
