// Package codec handles the optional compression of map and resource map
// files read and written by the command line tool.
//
// Compressed inputs are recognized by their frame magic, so a map may be
// given as "bloodgulch.map", "bloodgulch.map.zst" or "bloodgulch.map.lz4"
// without further configuration.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/meigma/combustion/internal/sizing"
)

// ErrTooLarge is returned when decompressed data exceeds the size limit.
var ErrTooLarge = errors.New("codec: decompressed data exceeds size limit")

// Compression identifies a file compression format.
type Compression uint8

const (
	// CompressionNone stores data as is.
	CompressionNone Compression = iota

	// CompressionZstd is a zstd frame.
	CompressionZstd

	// CompressionLZ4 is an LZ4 frame.
	CompressionLZ4
)

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// String returns the name of the compression format.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Ext returns the file extension conventionally used for c, including the dot.
func (c Compression) Ext() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// ParseCompression parses a name as returned by String.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// Detect returns the compression format of data from its leading magic.
func Detect(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(data, lz4Magic):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// Decode decompresses data if it is a zstd or LZ4 frame and returns it
// unchanged otherwise. Output larger than maxSize is rejected.
func Decode(data []byte, maxSize uint64) ([]byte, error) {
	switch Detect(data) {
	case CompressionZstd:
		dec, err := zstd.NewReader(bytes.NewReader(data), zstd.WithDecoderMaxMemory(maxSize), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		return readAll(dec, maxSize, "zstd")
	case CompressionLZ4:
		return readAll(lz4.NewReader(bytes.NewReader(data)), maxSize, "lz4")
	default:
		if uint64(len(data)) > maxSize {
			return nil, ErrTooLarge
		}
		return data, nil
	}
}

func readAll(r io.Reader, maxSize uint64, name string) ([]byte, error) {
	out, err := sizing.ReadAllWithLimit(r, maxSize, ErrTooLarge)
	if err != nil {
		if errors.Is(err, ErrTooLarge) || errors.Is(err, zstd.ErrDecoderSizeExceeded) {
			return nil, ErrTooLarge
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Encode compresses data with c.
func Encode(data []byte, c Compression) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		w = enc
	case CompressionLZ4:
		w = lz4.NewWriter(&buf)
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%s: %w", c, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", c, err)
	}
	return buf.Bytes(), nil
}
