package snapshot

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/GriffinCanCode/galaxy/internal/domain/registry"
)

// Compression selects the snapshot file encoding
type Compression string

const (
	CompressionZstd Compression = "zstd"
	CompressionGzip Compression = "gzip"
)

// compressionFor picks gzip for *.gz files and zstd for everything else
func compressionFor(path string) Compression {
	if strings.EqualFold(filepath.Ext(path), ".gz") {
		return CompressionGzip
	}
	return CompressionZstd
}

// Encode writes state as compressed JSON
func Encode(w io.Writer, state registry.State, compression Compression) error {
	data, err := sonic.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	var zw io.WriteCloser
	switch compression {
	case CompressionGzip:
		zw = gzip.NewWriter(w)
	case CompressionZstd:
		if zw, err = zstd.NewWriter(w); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown compression %q", compression)
	}

	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Decode reads a snapshot written by Encode
func Decode(r io.Reader, compression Compression) (registry.State, error) {
	var (
		state registry.State
		data  []byte
		err   error
	)

	switch compression {
	case CompressionGzip:
		gr, gerr := gzip.NewReader(r)
		if gerr != nil {
			return state, fmt.Errorf("gzip failed: %w", gerr)
		}
		defer gr.Close()
		data, err = io.ReadAll(gr)
	case CompressionZstd:
		zr, zerr := zstd.NewReader(r)
		if zerr != nil {
			return state, fmt.Errorf("zstd failed: %w", zerr)
		}
		defer zr.Close()
		data, err = io.ReadAll(zr)
	default:
		return state, fmt.Errorf("unknown compression %q", compression)
	}
	if err != nil {
		return state, fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	if err := sonic.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return state, nil
}
