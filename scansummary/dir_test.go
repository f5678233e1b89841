package scansummary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func plateDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	defaultFixture("A1", "A2").write(t, dir, "b_run.cdxs")
	defaultFixture("B1").write(t, dir, "a_run.CDXS")
	defaultFixture("C1", "C2", "C3").write(t, dir, "c_run.cdxs")
	writeFile(t, dir, "c_run_scan_key.csv", "C2,ProteinX\n")
	writeFile(t, dir, "notes.txt", "not a scan")

	sub := filepath.Join(dir, "archive")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	defaultFixture("D1").write(t, sub, "old.cdxs")

	return dir
}

func names(docs []*Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Name)
	}
	return out
}

func TestReadDir(t *testing.T) {
	dir := plateDir(t)

	docs, err := ReadDir(dir, Options{Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"a_run", "b_run", "c_run"}, names(docs)); diff != "" {
		t.Errorf("documents (-want +got):\n%s", diff)
	}
	if got := docs[2].WellsWithAnalyte("ProteinX"); len(got) != 1 || got[0].Name() != "C2" {
		t.Errorf("expected c_run's key to be applied, got %v", got)
	}
}

func TestReadDirConcurrent(t *testing.T) {
	dir := plateDir(t)

	for _, workers := range []int{0, 1, 2, 8} {
		docs, err := ReadDirConcurrent(context.Background(), dir, workers, Options{Logger: quiet})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"a_run", "b_run", "c_run"}, names(docs)); diff != "" {
			t.Errorf("%d workers: documents (-want +got):\n%s", workers, diff)
		}
	}
}

func TestReadDirFailure(t *testing.T) {
	dir := plateDir(t)
	writeFile(t, dir, "broken.cdxs", "Some other instrument\n")

	_, err := ReadDir(dir, Options{Logger: quiet})
	var fe *FormatError
	if !errors.As(err, &fe) || fe.File != "broken.cdxs" {
		t.Fatalf("expected a FormatError for broken.cdxs, got %v", err)
	}

	_, err = ReadDirConcurrent(context.Background(), dir, 4, Options{Logger: quiet})
	if !errors.As(err, &fe) || fe.File != "broken.cdxs" {
		t.Fatalf("expected a FormatError for broken.cdxs, got %v", err)
	}
}

func TestReadDirMissing(t *testing.T) {
	if _, err := ReadDir(filepath.Join(t.TempDir(), "absent"), Options{}); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func TestReadDirEmpty(t *testing.T) {
	docs, err := ReadDir(t.TempDir(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}

func TestLoad(t *testing.T) {
	dir := plateDir(t)
	single := defaultFixture("E1").write(t, t.TempDir(), "single.cdxs")

	docs, err := Load(context.Background(), []string{single, dir}, 2, Options{Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"single", "a_run", "b_run", "c_run"}, names(docs)); diff != "" {
		t.Errorf("documents (-want +got):\n%s", diff)
	}

	if _, err := Load(context.Background(), []string{filepath.Join(dir, "absent.cdxs")}, 2, Options{}); err == nil {
		t.Error("expected an error for a missing path")
	}
}
