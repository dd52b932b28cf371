package geojsonstream

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/exp/mmap"
)

// StdinName selects standard input in Open.
const StdinName = "-"

// Open opens a GeoJSON input for streaming. Regular files are memory mapped,
// names ending in .gz or .zst are decompressed on the fly. With progress
// set, a byte progress bar over the raw input is drawn on stderr.
func Open(name string, progress bool) (io.ReadCloser, error) {
	var (
		raw     io.Reader
		size    int64
		closers closeStack
	)

	if name == "" || name == StdinName {
		raw = os.Stdin
	} else {
		file, err := mmap.Open(name)
		if err != nil {
			return nil, fmt.Errorf("can`t open input: %w", err)
		}
		closers = append(closers, file)
		size = int64(file.Len())
		raw = io.NewSectionReader(file, 0, size)
	}

	if progress {
		pr := newProgressReader(raw, size, displayName(name))
		closers = append(closers, pr)
		raw = pr
	}

	switch {
	case strings.HasSuffix(name, ".zst"):
		dec, err := zstd.NewReader(raw)
		if err != nil {
			closers.Close()
			return nil, fmt.Errorf("can`t create zstd reader: %w", err)
		}
		rc := dec.IOReadCloser()
		closers = append(closers, rc)
		return &readCloser{Reader: rc, closers: closers}, nil

	case strings.HasSuffix(name, ".gz"):
		dec, err := gzip.NewReader(raw)
		if err != nil {
			closers.Close()
			return nil, fmt.Errorf("can`t create gzip reader: %w", err)
		}
		closers = append(closers, dec)
		return &readCloser{Reader: dec, closers: closers}, nil
	}

	return &readCloser{Reader: raw, closers: closers}, nil
}

func displayName(name string) string {
	if name == "" || name == StdinName {
		return "stdin"
	}
	return name
}

type readCloser struct {
	io.Reader
	closers closeStack
}

func (r *readCloser) Close() error {
	return r.closers.Close()
}

// closeStack closes in reverse order of opening.
type closeStack []io.Closer

func (s closeStack) Close() error {
	var errs []error
	for i := len(s) - 1; i >= 0; i-- {
		if err := s[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
