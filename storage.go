package cdxs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"
)

// Exists reports whether a regular file exists at p, which may be a local path
// or (when client is non-nil) a gs:// object.
func Exists(p string, client *storage.Client) (bool, error) {
	if client != nil && IsGoogleStoragePath(p) {
		bucketName, object, err := SplitGoogleStoragePath(p)
		if err != nil {
			return false, pfx.Err(err)
		}
		_, err = client.Bucket(bucketName).Object(object).Attrs(context.Background())
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		} else if err != nil {
			return false, pfx.Err(err)
		}
		return true, nil
	}

	st, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, pfx.Err(err)
	}

	return st.Mode().IsRegular(), nil
}

// JoinPath joins a directory and a file name, keeping gs:// paths intact.
func JoinPath(dir, name string) string {
	if IsGoogleStoragePath(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}

	return filepath.Join(dir, name)
}

// SplitPath is filepath.Split that also understands gs:// paths.
func SplitPath(p string) (dir, file string) {
	if IsGoogleStoragePath(p) {
		dir, file = path.Split(p)
		return strings.TrimSuffix(dir, "/"), file
	}

	dir, file = filepath.Split(p)
	return filepath.Clean(dir), file
}

// ListFiles returns the full paths of all regular files directly inside dir
// (non-recursive) whose extension matches ext case-insensitively, sorted by
// name.
func ListFiles(dir, ext string, client *storage.Client) ([]string, error) {
	var out []string

	if client != nil && IsGoogleStoragePath(dir) {
		bucketName, prefix, err := SplitGoogleStoragePath(strings.TrimSuffix(dir, "/") + "/")
		if err != nil {
			return nil, pfx.Err(err)
		}

		it := client.Bucket(bucketName).Objects(context.Background(), &storage.Query{
			Prefix:    prefix,
			Delimiter: "/",
		})
		for {
			attrs, err := it.Next()
			if err == iterator.Done {
				break
			} else if err != nil {
				return nil, pfx.Err(err)
			}

			// Synthetic "directory" entries only carry a Prefix
			if attrs.Name == "" {
				continue
			}
			if strings.EqualFold(path.Ext(attrs.Name), ext) {
				out = append(out, "gs://"+bucketName+"/"+attrs.Name)
			}
		}
	} else {
		st, err := os.Stat(dir)
		if err != nil {
			return nil, pfx.Err(err)
		}
		if !st.IsDir() {
			return nil, pfx.Err(errors.New(dir + " is not a directory"))
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, pfx.Err(err)
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
				out = append(out, filepath.Join(dir, entry.Name()))
			}
		}
	}

	sort.Strings(out)

	return out, nil
}
