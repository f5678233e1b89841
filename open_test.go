package cdxs

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = "Hinds Instruments CD Reader\nline two\n"

func writeCompressed(t *testing.T, path string, wrap func(io.Writer) io.WriteCloser) {
	t.Helper()
	var buf bytes.Buffer
	w := wrap(&buf)
	if _, err := io.WriteString(w, sample); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

type zipOne struct {
	zw *zip.Writer
	io.Writer
}

func (z *zipOne) Close() error { return z.zw.Close() }

func TestOpenTextCompressed(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "plain.cdxs")
	if err := os.WriteFile(plain, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	gz := filepath.Join(dir, "gz.cdxs")
	writeCompressed(t, gz, func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) })

	zl := filepath.Join(dir, "zlib.cdxs")
	writeCompressed(t, zl, func(w io.Writer) io.WriteCloser { return zlib.NewWriter(w) })

	zp := filepath.Join(dir, "zip.cdxs")
	writeCompressed(t, zp, func(w io.Writer) io.WriteCloser {
		zw := zip.NewWriter(w)
		member, err := zw.Create("scan.cdxs")
		if err != nil {
			t.Fatal(err)
		}
		return &zipOne{zw: zw, Writer: member}
	})

	for _, v := range []struct {
		Path     string
		DataType DataType
	}{
		{plain, DataTypeNoCompression},
		{gz, DataTypeGzip},
		{zl, DataTypeZ},
		{zp, DataTypeZip},
	} {
		f, err := os.Open(v.Path)
		if err != nil {
			t.Fatal(err)
		}
		dt, err := DetectDataType(f)
		f.Close()
		if err != nil {
			t.Fatal(err)
		}
		if dt != v.DataType {
			t.Errorf("%s: expected %s, got %s", v.Path, v.DataType, dt)
		}

		rc, err := OpenText(v.Path, nil, "")
		if err != nil {
			t.Fatalf("%s: %v", v.Path, err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("%s: %v", v.Path, err)
		}
		if string(got) != sample {
			t.Errorf("%s: expected %q, got %q", v.Path, sample, got)
		}
	}
}

func TestDetectDataTypeShort(t *testing.T) {
	for _, input := range []string{"", "A1"} {
		dt, err := DetectDataType(strings.NewReader(input))
		if err != nil {
			t.Fatal(err)
		}
		if dt != DataTypeNoCompression {
			t.Errorf("%q: expected uncompressed, got %s", input, dt)
		}
	}
}

func TestOpenTextEncoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "latin.csv")

	// "Prot\xe9ine" is "Protéine" in windows-1252
	if err := os.WriteFile(path, []byte("A1,Prot\xe9ine\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rc, err := OpenText(path, nil, "windows-1252")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "A1,Protéine\n" {
		t.Errorf("unexpected decoding %q", got)
	}

	if _, err := OpenText(path, nil, "no-such-charset"); err == nil {
		t.Error("expected an unknown encoding to be rejected")
	}
}

func TestOpenTextDirectory(t *testing.T) {
	if _, err := OpenText(t.TempDir(), nil, ""); err == nil {
		t.Fatal("expected an error opening a directory")
	}
}

func TestDetermineDelimiter(t *testing.T) {
	for _, v := range []struct {
		Input    string
		Expected rune
	}{
		{"A1,ProteinX\nA2,ProteinY\nA3,ProteinZ\n", ','},
		{"A1\tProtein X\nA2\tProtein Y\n", '\t'},
		{"A1;ProteinX\nA2;ProteinY\n", ';'},
		{"A1,Protein\tX\nA2,Protein\tY\n", ','},
		{"A1\tProtein;X\nA2\tProtein;Y\n", '\t'},
		{"", ','},
	} {
		if got := DetermineDelimiter(strings.NewReader(v.Input)); got != v.Expected {
			t.Errorf("%q: expected %q, got %q", v.Input, v.Expected, got)
		}
	}
}
