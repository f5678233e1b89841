package cdxs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

type ReadSeekCloser interface {
	io.Reader
	io.Seeker
	io.Closer
}

// Decorates a Google Storage object handle with io.Reader, io.Seeker and
// io.Closer. Derived from
// https://github.com/googleapis/google-cloud-go/issues/1124#issuecomment-419070541
type GSReadSeekCloser struct {
	*storage.ObjectHandle
	Context context.Context
	r       *storage.Reader
	offset  int64 // initial offset
	pos     int64 // current position (like 'seen' in storage.Reader)
}

func (s *GSReadSeekCloser) Read(buf []byte) (int, error) {
	var err error
	if s.r == nil {
		s.r, err = s.NewRangeReader(s.Context, s.offset, -1)
		if err != nil {
			return 0, err
		}
	}
	n, err := s.r.Read(buf)
	s.pos += int64(n)

	return n, err
}

// Seek only supports rewinding to an absolute offset. As a proxy for seeking,
// we close the current connection and reopen at the new offset on next Read.
func (s *GSReadSeekCloser) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekStart {
		return 0, fmt.Errorf("io.Seeker 'whence' value %d is not implemented", whence)
	}

	if s.r != nil {
		s.r.Close()
		s.r = nil
	}

	s.offset = offset
	s.pos = 0

	return s.offset, nil
}

func (s *GSReadSeekCloser) Close() error {
	if s.r == nil {
		return nil
	}
	err := s.r.Close()
	s.r = nil

	return err
}

// IsGoogleStoragePath reports whether path should be resolved against Google
// Storage rather than the local filesystem.
func IsGoogleStoragePath(path string) bool {
	return strings.HasPrefix(path, "gs://")
}

// SplitGoogleStoragePath splits gs://bucket/some/object into its bucket and
// object name.
func SplitGoogleStoragePath(path string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// MaybeOpenSeekerFromGoogleStorage opens path from Google Storage when a client
// is provided and the path begins with gs://, and from the local filesystem
// otherwise. The size of the object is returned alongside.
func MaybeOpenSeekerFromGoogleStorage(path string, client *storage.Client) (ReadSeekCloser, int64, error) {
	if client != nil && IsGoogleStoragePath(path) {
		bucketName, pathName, err := SplitGoogleStoragePath(path)
		if err != nil {
			return nil, 0, pfx.Err(err)
		}

		handle := client.Bucket(bucketName).Object(pathName)

		wrappedHandle := &GSReadSeekCloser{
			ObjectHandle: handle,
			Context:      context.Background(),
		}

		// Make a hard call to get the filesize
		attrs, err := wrappedHandle.ObjectHandle.Attrs(wrappedHandle.Context)
		if err != nil {
			return nil, 0, pfx.Err(fmt.Errorf("%s: %s", path, err))
		}

		return wrappedHandle, attrs.Size, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	fstat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if fstat.IsDir() {
		f.Close()
		return nil, 0, fmt.Errorf("%s is a directory, not a file", path)
	}

	return f, fstat.Size(), nil
}
