package edgelist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const readAhead = 4 << 20

type fileReader struct {
	io.Reader
	closers []io.Closer
}

func (f *fileReader) Close() error {
	var first error
	for i := len(f.closers) - 1; i >= 0; i-- {
		if err := f.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open returns a buffered reader over path. Files ending in .gz are
// decompressed on the fly.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}

	br := bufio.NewReaderSize(f, readAhead)
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return &fileReader{Reader: br, closers: []io.Closer{f}}, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open gzip stream %s: %w", path, err)
	}
	return &fileReader{Reader: zr, closers: []io.Closer{f, zr}}, nil
}

// SizeHint returns the on-disk size of path, or 0 when unknown. Loaders use it
// to pre-size buffers.
func SizeHint(path string) int64 {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return 0
	}
	return info.Size()
}
