package cdxs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	t.Setenv("CDXS_ENCODING", "windows-1252")
	t.Setenv("CDXS_WORKERS", "8")
	t.Setenv("CDXS_COLOR", "Never")

	env, err := LoadEnv()
	if err != nil {
		t.Fatal(err)
	}
	if env.Encoding != "windows-1252" || env.Workers != 8 || env.Color != "never" {
		t.Errorf("unexpected env %+v", env)
	}
}

func TestLoadEnvDefaults(t *testing.T) {
	for _, key := range []string{"CDXS_ENCODING", "CDXS_WORKERS", "CDXS_COLOR"} {
		// Setenv first so the original value is restored afterwards
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	env, err := LoadEnv()
	if err != nil {
		t.Fatal(err)
	}
	if env.Workers != 4 || env.Color != "auto" {
		t.Errorf("unexpected defaults %+v", env)
	}
}

func TestLoadEnvRejects(t *testing.T) {
	t.Setenv("CDXS_COLOR", "sometimes")
	if _, err := LoadEnv(); err == nil {
		t.Error("expected an invalid colour mode to be rejected")
	}

	t.Setenv("CDXS_COLOR", "auto")
	t.Setenv("CDXS_WORKERS", "many")
	if _, err := LoadEnv(); err == nil {
		t.Error("expected a non-numeric worker count to be rejected")
	}
}

func TestUseColor(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	for mode, expected := range map[string]bool{"always": true, "never": false, "auto": false} {
		if got := (Env{Color: mode}).UseColor(f); got != expected {
			t.Errorf("%s: expected %v, got %v", mode, expected, got)
		}
	}
}

func TestStorageClientForLocalPaths(t *testing.T) {
	client, err := StorageClientFor(context.Background(), "/data/run1.cdxs", "relative/dir")
	if err != nil {
		t.Fatal(err)
	}
	if client != nil {
		t.Error("expected no client for local paths")
	}
}
