package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/effectlens/effectdetect/internal/config"
)

// execute runs the root command with args, capturing combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		configPath = ""
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestDoctor_MissingCredential(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")

	out, err := execute(t, "doctor")
	if err == nil {
		t.Fatal("expected doctor to fail without a credential")
	}
	if !strings.Contains(out, "[fail] credential") {
		t.Errorf("output missing credential failure, got:\n%s", out)
	}
	if strings.Contains(out, "[fail] variant") {
		t.Errorf("variant probes should be skipped without a credential, got:\n%s", out)
	}
}

func TestDoctor_ReadsConfigFile(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvPort, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: 9100\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, _ := execute(t, "doctor", "--config", path)
	if !strings.Contains(out, "port=9100") {
		t.Errorf("config file port not reported, got:\n%s", out)
	}
}
