package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	storageDir string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	// Credentials resolve from the environment; blank them so checks are
	// deterministic regardless of the host shell.
	for _, key := range []string{
		"OPENAI_API_KEY", "ELEVENLABS_API_KEY",
		"KLING_ACCESS_KEY", "KLING_SECRET_KEY",
		"RUNWAY_API_KEY", "SYNC_API_KEY",
	} {
		t.Setenv(key, "")
	}

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		storageDir: filepath.Join(base, "storage"),
	}

	content := fmt.Sprintf(`[paths]
storage_dir = %q
inputs_dir = %q
schemas_dir = %q
log_dir = %q
`,
		env.storageDir,
		filepath.Join(base, "inputs"),
		filepath.Join(base, "schemas"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !bytes.Contains([]byte(haystack), []byte(needle)) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
