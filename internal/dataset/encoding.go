package dataset

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// ResultsEncodings lists the recognized file names of the results
// artifact, compressed encodings first. The first one present wins.
var ResultsEncodings = []string{
	"results.csv.zip",
	"results.csv.zst",
	"results.csv.gz",
	"results.csv",
}

// LoadResults loads the results table stored in dir. It returns the file
// it read from. When no encoding is present the error wraps fs.ErrNotExist.
func LoadResults(dir string) (*Table, string, error) {
	for _, name := range ResultsEncodings {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, p, fmt.Errorf("results: stat %s: %w", p, err)
		}

		t, err := LoadFile(p)
		return t, p, err
	}
	return nil, "", fmt.Errorf("results: no results artifact in %s: %w", dir, fs.ErrNotExist)
}

// LoadFile reads a CSV file, decompressing it according to its suffix.
func LoadFile(p string) (*Table, error) {
	rc, err := Open(p)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	t, err := ReadCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return t, nil
}

// Open returns a reader over the decompressed content of p.
// Zip archives must contain exactly one regular file.
func Open(p string) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(p, ".zip"):
		return openZip(p)
	case strings.HasSuffix(p, ".zst"):
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close() //nolint:errcheck
			return nil, fmt.Errorf("zstd: %s: %w", p, err)
		}
		rc := dec.IOReadCloser()
		return &stackedCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil
	case strings.HasSuffix(p, ".gz"):
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close() //nolint:errcheck
			return nil, fmt.Errorf("gzip: %s: %w", p, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	default:
		return os.Open(p)
	}
}

func openZip(p string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("zip: %s: %w", p, err)
	}

	var member *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if member != nil {
			zr.Close() //nolint:errcheck
			return nil, fmt.Errorf("zip: %s holds more than one file", p)
		}
		member = f
	}
	if member == nil {
		zr.Close() //nolint:errcheck
		return nil, fmt.Errorf("zip: %s is empty", p)
	}

	rc, err := member.Open()
	if err != nil {
		zr.Close() //nolint:errcheck
		return nil, fmt.Errorf("zip: %s: %w", p, err)
	}
	return &stackedCloser{Reader: rc, closers: []io.Closer{rc, zr}}, nil
}

// NewWriter wraps w with the compression implied by the suffix of name.
// Unknown suffixes write through unchanged. Close flushes the compressor
// but never closes w.
func NewWriter(w io.Writer, name string) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(name, ".zip"):
		zw := zip.NewWriter(w)
		member := strings.TrimSuffix(path.Base(filepath.ToSlash(name)), ".zip")
		fw, err := zw.Create(member)
		if err != nil {
			return nil, fmt.Errorf("zip: %w", err)
		}
		return &writeStack{Writer: fw, closers: []io.Closer{zw}}, nil
	case strings.HasSuffix(name, ".zst"):
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return enc, nil
	case strings.HasSuffix(name, ".gz"):
		return gzip.NewWriter(w), nil
	default:
		return &writeStack{Writer: w}, nil
	}
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type writeStack struct {
	io.Writer
	closers []io.Closer
}

func (s *writeStack) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
