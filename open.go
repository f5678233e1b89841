// Package cdxs holds the file plumbing shared by the scan-summary tools:
// opening local or gs:// files, sniffing compression and delimiters, and
// listing directories.
package cdxs

import (
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"golang.org/x/net/html/charset"
)

// OpenText opens a local or gs:// text file, transparently decompressing it if
// it carries a known compression signature, and decoding it from the named
// character encoding into UTF-8. An empty encoding (or "utf-8") leaves the
// bytes untouched.
func OpenText(path string, client *storage.Client, encoding string) (io.ReadCloser, error) {
	f, _, err := MaybeOpenSeekerFromGoogleStorage(path, client)
	if err != nil {
		return nil, pfx.Err(err)
	}

	rc, err := MaybeDecompressReadCloser(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return rc, nil
	}

	decoded, err := charset.NewReaderLabel(encoding, rc)
	if err != nil {
		rc.Close()
		return nil, pfx.Err(err)
	}

	return &decodedReadCloser{Reader: decoded, Closer: rc}, nil
}

type decodedReadCloser struct {
	io.Reader
	io.Closer
}
