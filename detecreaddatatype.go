package cdxs

import (
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

func (d DataType) String() string {
	switch d {
	case DataTypeNoCompression:
		return "uncompressed"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZ:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	}

	return "invalid"
}

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:     {0x1f, 0x9d},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// DetectDataType attempts to detect the data type of a stream by checking
// against a set of known data types. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataType(r io.Reader) (DataType, error) {
	buff := make([]byte, 6)
	n, err := io.ReadFull(r, buff)
	if err == io.ErrUnexpectedEOF || (err == io.EOF && n == 0) {
		// Short files cannot carry any of the signatures; treat them as text
		// and let the parser decide whether they are valid.
		return DataTypeNoCompression, nil
	} else if err != nil {
		return DataTypeInvalid, err
	}

	// Match known signatures
Outer:
	for dt, sig := range byteCodeSigs {
		for position := range sig {
			if buff[position] != sig[position] {
				continue Outer
			}
		}
		return dt, nil
	}

	return DataTypeNoCompression, nil
}

// MaybeDecompressReadCloser sniffs the first bytes of f and, if they match a
// known compression signature, returns a reader over the decompressed stream.
// Uncompressed input is returned as-is. f is rewound before returning.
func MaybeDecompressReadCloser(f ReadSeekCloser) (io.ReadCloser, error) {
	dt, err := DetectDataType(f)
	if err != nil {
		return nil, pfx.Err(err)
	}

	// Reset your original reader
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, pfx.Err(err)
	}

	switch dt {
	case DataTypeGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, pfx.Err(err)
		}
		return &chainedCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
	case DataTypeZip:
		// Only the first member of an archive is read
		zr := zipstream.NewReader(f)
		if _, err := zr.Next(); err != nil {
			return nil, pfx.Err(err)
		}
		return &chainedCloser{Reader: zr, closers: []io.Closer{f}}, nil
	case DataTypeBZip2:
		return &chainedCloser{Reader: bzip2.NewReader(f), closers: []io.Closer{f}}, nil
	case DataTypeXZ:
		reader, err := xz.NewReader(f, 0)
		if err != nil {
			return nil, pfx.Err(err)
		}
		return &chainedCloser{Reader: reader, closers: []io.Closer{f}}, nil
	case DataTypeZ:
		zr, err := zlib.NewReader(f)
		if err != nil {
			return nil, pfx.Err(err)
		}
		return &chainedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	}

	// No data type detected. For now, we assume this is uncompressed.
	return f, nil
}

// chainedCloser closes the decompressor and then the underlying file.
type chainedCloser struct {
	io.Reader
	closers []io.Closer
}

func (c *chainedCloser) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}
