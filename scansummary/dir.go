package scansummary

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/cdreader/cdxs"
	"golang.org/x/sync/errgroup"
)

// ReadDir parses every .cdxs file directly inside dir (not its
// subdirectories), in name order. The first file that fails to parse aborts
// the scan.
func ReadDir(dir string, opts Options) ([]*Document, error) {
	paths, err := cdxs.ListFiles(dir, Extension, opts.Storage)
	if err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(paths))
	for _, path := range paths {
		doc, err := OpenWithOptions(path, opts)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// ReadDirConcurrent is ReadDir with up to workers files parsed at once. The
// result is still in name order. Documents share no state, so each is parsed
// entirely within one goroutine.
func ReadDirConcurrent(ctx context.Context, dir string, workers int, opts Options) ([]*Document, error) {
	paths, err := cdxs.ListFiles(dir, Extension, opts.Storage)
	if err != nil {
		return nil, err
	}

	if workers < 1 {
		workers = 1
	}

	docs := make([]*Document, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := OpenWithOptions(path, opts)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return docs, nil
}

// Load reads every path given, which may be scan files or directories of scan
// files, with up to workers files parsed at once. Documents are returned in
// argument order, each directory's files in name order.
func Load(ctx context.Context, paths []string, workers int, opts Options) ([]*Document, error) {
	var out []*Document
	for _, path := range paths {
		isDir, err := isDirectory(path, opts)
		if err != nil {
			return nil, err
		}

		if !isDir {
			doc, err := OpenWithOptions(path, opts)
			if err != nil {
				return nil, err
			}
			out = append(out, doc)
			continue
		}

		docs, err := ReadDirConcurrent(ctx, path, workers, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, docs...)
	}

	return out, nil
}

// isDirectory treats a gs:// path as a directory unless it names a scan file.
func isDirectory(path string, opts Options) (bool, error) {
	if opts.Storage != nil && cdxs.IsGoogleStoragePath(path) {
		return !strings.EqualFold(filepath.Ext(path), Extension), nil
	}

	st, err := os.Stat(path)
	if err != nil {
		return false, pfx.Err(err)
	}
	return st.IsDir(), nil
}
