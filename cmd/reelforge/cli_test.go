package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"reelforge/internal/run"
)

func TestConfigInit(t *testing.T) {
	env := setupCLITestEnv(t)

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// A second init without --overwrite must refuse.
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.configPath); err == nil {
		t.Fatal("expected error on existing config")
	}
}

func TestConfigShowUsesConfigFlag(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.storageDir)
	requireContains(t, out, "Watermark position")
	requireContains(t, out, "bottom_right")
}

func TestConfigValidateReportsPath(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, env.configPath)
	requireContains(t, out, "Configuration valid")
}

func TestRunsCommandEmptyHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "No runs recorded yet")
}

func TestRunsCommandListsHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	store, err := run.OpenStore(env.storageDir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	r := run.NewRun(7, "lighthouse", "A haunted lighthouse story")
	r.Provider = "kling"
	r.Succeed()
	if err := store.Record(context.Background(), r); err != nil {
		t.Fatalf("record run: %v", err)
	}
	store.Close()

	out, _, err := runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "lighthouse")
	requireContains(t, out, "SUCCESS")
}

func TestHealthCommandReportsMissingKeys(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"health"}, env.configPath)
	if err == nil {
		t.Fatal("expected readiness failure without API keys")
	}
	requireContains(t, out, "API key missing")
	requireContains(t, out, "no video provider configured")
}

func TestBatchCommandRejectsMissingCSV(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"batch", filepath.Join(env.baseDir, "absent.csv")}, env.configPath); err == nil {
		t.Fatal("expected error for missing ideas file")
	}
}
