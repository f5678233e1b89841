package cdxs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJoinSplitPath(t *testing.T) {
	for _, v := range []struct {
		Dir  string
		File string
		Path string
	}{
		{"/data/plates", "run1.cdxs", "/data/plates/run1.cdxs"},
		{"gs://bucket/plates", "run1.cdxs", "gs://bucket/plates/run1.cdxs"},
		{"gs://bucket/plates/", "run1.cdxs", "gs://bucket/plates/run1.cdxs"},
	} {
		if got := JoinPath(v.Dir, v.File); got != v.Path {
			t.Errorf("JoinPath(%q, %q): expected %q, got %q", v.Dir, v.File, v.Path, got)
		}

		dir, file := SplitPath(v.Path)
		if file != v.File || dir != strings.TrimSuffix(v.Dir, "/") {
			t.Errorf("SplitPath(%q): got %q, %q", v.Path, dir, file)
		}
	}
}

func TestSplitGoogleStoragePath(t *testing.T) {
	bucket, object, err := SplitGoogleStoragePath("gs://bucket/some/run1.cdxs")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "bucket" || object != "some/run1.cdxs" {
		t.Errorf("unexpected split %q, %q", bucket, object)
	}

	if _, _, err := SplitGoogleStoragePath("gs://bucket"); err == nil {
		t.Error("expected an error for a path without an object")
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.cdxs", "a.CDXS", "c.csv", "d.cdxs.bak"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.cdxs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested.cdxs", "e.cdxs"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ListFiles(dir, ".cdxs", nil)
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{filepath.Join(dir, "a.CDXS"), filepath.Join(dir, "b.cdxs")}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}

	if _, err := ListFiles(filepath.Join(dir, "b.cdxs"), ".cdxs", nil); err == nil {
		t.Error("expected an error when listing a file")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present.csv")
	if err := os.WriteFile(path, []byte("A1,X\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, v := range []struct {
		Path     string
		Expected bool
	}{
		{path, true},
		{filepath.Join(dir, "absent.csv"), false},
		{dir, false},
	} {
		got, err := Exists(v.Path, nil)
		if err != nil {
			t.Fatal(err)
		}
		if got != v.Expected {
			t.Errorf("%s: expected %v, got %v", v.Path, v.Expected, got)
		}
	}
}
