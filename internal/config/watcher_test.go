package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	dir, err := os.MkdirTemp("", "watcher-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	configPath := filepath.Join(dir, "test.json")
	initialConfig := `{"name": "smoke"}`
	if err := os.WriteFile(configPath, []byte(initialConfig), 0644); err != nil {
		t.Fatalf("failed to write initial config: %v", err)
	}

	loader := NewLoader(dir)
	watcher, err := NewWatcher(loader, dir)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer watcher.Stop()

	cfg, ok := watcher.GetConfig("smoke")
	if !ok {
		t.Fatal("initial config not loaded")
	}
	if cfg.Name != "smoke" {
		t.Errorf("expected name 'smoke', got %q", cfg.Name)
	}

	updatedConfig := `{"name": "smoke", "description": "updated"}`
	if err := os.WriteFile(configPath, []byte(updatedConfig), 0644); err != nil {
		t.Fatalf("failed to write updated config: %v", err)
	}

	select {
	case event := <-watcher.Events():
		if event.Error != nil {
			t.Errorf("unexpected error: %v", event.Error)
		}
		if event.Config == nil {
			t.Error("expected config in event")
		} else if event.Config.Description != "updated" {
			t.Errorf("expected description 'updated', got %q", event.Config.Description)
		}
		if event.Generation != 2 {
			t.Errorf("expected generation 2 for the first reload, got %d", event.Generation)
		}
	case <-time.After(2 * time.Second):
		t.Error("timed out waiting for config event")
	}
}

func TestWatcherNewFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "watcher-newfile-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	loader := NewLoader(dir)
	watcher, err := NewWatcher(loader, dir)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer watcher.Stop()

	configPath := filepath.Join(dir, "new.yaml")
	newConfig := "name: fresh\n"
	if err := os.WriteFile(configPath, []byte(newConfig), 0644); err != nil {
		t.Fatalf("failed to write new config: %v", err)
	}

	select {
	case event := <-watcher.Events():
		if event.Error != nil {
			t.Errorf("unexpected error: %v", event.Error)
		}
		if event.Config == nil {
			t.Error("expected config in event")
		} else if event.Config.Name != "fresh" {
			t.Errorf("expected name 'fresh', got %q", event.Config.Name)
		}
	case <-time.After(2 * time.Second):
		t.Error("timed out waiting for new config event")
	}

	cfg, ok := watcher.GetConfig("fresh")
	if !ok {
		t.Fatal("new config not found in watcher")
	}
	if cfg.Name != "fresh" {
		t.Errorf("expected name 'fresh', got %q", cfg.Name)
	}
}

func TestWatcherGetAllConfigs(t *testing.T) {
	dir, err := os.MkdirTemp("", "watcher-getall-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"name": "config-a"}`), 0644); err != nil {
		t.Fatalf("failed to write config a: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{"name": "config-b"}`), 0644); err != nil {
		t.Fatalf("failed to write config b: %v", err)
	}

	loader := NewLoader(dir)
	watcher, err := NewWatcher(loader, dir)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer watcher.Stop()

	configs := watcher.GetAllConfigs()
	if len(configs) != 2 {
		t.Errorf("expected 2 configs, got %d", len(configs))
	}
	if _, ok := configs["config-a"]; !ok {
		t.Error("config-a not found")
	}
	if _, ok := configs["config-b"]; !ok {
		t.Error("config-b not found")
	}
}
