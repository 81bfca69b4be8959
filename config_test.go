package zapcard

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.CheckoutURL == "" {
		t.Error("default checkout URL is empty")
	}
	if cfg.WidgetFrameURL == "" {
		t.Error("default widget frame URL is empty")
	}
	if !cfg.Headless {
		t.Error("default config should run headless")
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("default retry budget = %d, expected 3", cfg.Retry.MaxRetries)
	}
	if cfg.Queue.MaxConcurrency != 2 {
		t.Errorf("default concurrency = %d, expected 2", cfg.Queue.MaxConcurrency)
	}
	if cfg.Selectors.DepositAddress == "" {
		t.Error("deposit address selector is empty")
	}
	if cfg.Humanize.TypingSpeed != SpeedMedium {
		t.Errorf("default typing speed = %q, expected %q", cfg.Humanize.TypingSpeed, SpeedMedium)
	}
}

func TestLoadConfigWritesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if cfg.CheckoutURL != DefaultConfig().CheckoutURL {
		t.Errorf("first load did not return defaults: %q", cfg.CheckoutURL)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file was not written: %v", err)
	}
}

func TestConfigSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := DefaultConfig()
	original.CheckoutURL = "https://staging.example/buy"
	original.BrowserProfilePath = filepath.Join(dir, "profile")
	original.Country = "DE"
	original.Retry.MaxRetries = 7
	original.Queue.MaxConcurrency = 4
	original.Humanize.TypingSpeed = SpeedSlow
	original.Selectors.DepositAddress = "#custom-address"

	if err := original.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.CheckoutURL != original.CheckoutURL {
		t.Errorf("checkout URL = %q, expected %q", loaded.CheckoutURL, original.CheckoutURL)
	}
	if loaded.Country != "DE" {
		t.Errorf("country = %q, expected DE", loaded.Country)
	}
	if loaded.Retry.MaxRetries != 7 {
		t.Errorf("retry budget = %d, expected 7", loaded.Retry.MaxRetries)
	}
	if loaded.Queue.MaxConcurrency != 4 {
		t.Errorf("concurrency = %d, expected 4", loaded.Queue.MaxConcurrency)
	}
	if loaded.Humanize.TypingSpeed != SpeedSlow {
		t.Errorf("typing speed = %q, expected %q", loaded.Humanize.TypingSpeed, SpeedSlow)
	}
	if loaded.Selectors.DepositAddress != "#custom-address" {
		t.Errorf("selector = %q", loaded.Selectors.DepositAddress)
	}
}

func TestLoadConfigCreatesProfileDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	profile := filepath.Join(dir, "profile")

	cfg := DefaultConfig()
	cfg.BrowserProfilePath = profile
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	info, err := os.Stat(profile)
	if err != nil {
		t.Fatalf("profile dir was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("profile path is not a directory")
	}
}
