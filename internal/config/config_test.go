package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENCODE_STORAGE_PATH", "")
	t.Setenv("OPENCODE_USAGE_POLL_INTERVAL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StoragePath == "" {
		t.Error("Expected non-empty default storage path")
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("Expected 2s default poll interval, got %v", cfg.PollInterval)
	}
	if cfg.PruneMaxAge != 90*24*time.Hour {
		t.Errorf("Expected 90d default prune age, got %v", cfg.PruneMaxAge)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OPENCODE_STORAGE_PATH", "/tmp/store")
	t.Setenv("OPENCODE_USAGE_POLL_INTERVAL", "5s")
	t.Setenv("OPENCODE_USAGE_PRUNE_MAX_AGE", "30") // bare seconds

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StoragePath != "/tmp/store" {
		t.Errorf("Expected env storage path, got %q", cfg.StoragePath)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("Expected 5s poll interval, got %v", cfg.PollInterval)
	}
	if cfg.PruneMaxAge != 30*time.Second {
		t.Errorf("Expected unit-less seconds parse, got %v", cfg.PruneMaxAge)
	}
}

func TestLoadBudgets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgets.yaml")
	content := `
budgets:
  anthropic:
    monthlyTokens: 1000000
    monthlyCost: 200
  openai:
    monthlyCost: 50
limits:
  anthropic:
    tokens5h: 50000
    costDaily: 10
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	budgets, limits := LoadBudgets(path)
	if budgets["anthropic"].MonthlyTokens != 1000000 {
		t.Errorf("Expected anthropic token budget, got %+v", budgets["anthropic"])
	}
	if budgets["openai"].MonthlyCost != 50 {
		t.Errorf("Expected openai cost budget, got %+v", budgets["openai"])
	}
	if budgets["openai"].MonthlyTokens != 0 {
		t.Error("Expected unset token budget to stay zero")
	}
	if limits["anthropic"].Tokens5h != 50000 || limits["anthropic"].CostDaily != 10 {
		t.Errorf("Expected anthropic limits, got %+v", limits["anthropic"])
	}
}

func TestLoadBudgets_MissingFileDegrades(t *testing.T) {
	budgets, limits := LoadBudgets(filepath.Join(t.TempDir(), "absent.yaml"))
	if budgets == nil || limits == nil {
		t.Fatal("Expected empty mappings, got nil")
	}
	if len(budgets) != 0 || len(limits) != 0 {
		t.Errorf("Expected empty mappings, got %v / %v", budgets, limits)
	}
}

func TestLoadBudgets_MalformedFileDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgets.yaml")
	if err := os.WriteFile(path, []byte("budgets: ["), 0o600); err != nil {
		t.Fatal(err)
	}

	budgets, _ := LoadBudgets(path)
	if len(budgets) != 0 {
		t.Errorf("Expected empty budgets for malformed file, got %v", budgets)
	}
}
