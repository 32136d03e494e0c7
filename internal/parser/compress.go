package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Supported payload encodings.
const (
	EncodingGzip = "gzip"
	EncodingZstd = "zstd"
)

// SplitEncoding strips a .gz or .zst suffix from name and reports the encoding it implies.
func SplitEncoding(name string) (inner, encoding string) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		return name[:len(name)-len(".gz")], EncodingGzip
	case strings.HasSuffix(lower, ".zst"):
		return name[:len(name)-len(".zst")], EncodingZstd
	}
	return name, ""
}

// ErrTooLarge reports a payload that decodes past the allowed size.
var ErrTooLarge = errors.New("decoded payload exceeds size limit")

// Streaming zstd writers advertise an 8 MiB window whatever the content size,
// so the decoder memory cap never drops below it.
const zstdMinMemory = 8 << 20

// Decompress decodes data with the named encoding ("gzip" or "zstd"). An empty
// encoding returns data unchanged.
func Decompress(encoding string, data []byte) ([]byte, error) {
	return DecompressLimit(encoding, data, 0)
}

// DecompressLimit is Decompress with a cap on the decoded size. A limit of 0
// or less means unlimited; exceeding it returns ErrTooLarge.
func DecompressLimit(encoding string, data []byte, limit int64) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		if limit > 0 && int64(len(data)) > limit {
			return nil, ErrTooLarge
		}
		return data, nil
	case EncodingGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer zr.Close()
		out, err := readLimited(zr, limit)
		if err != nil {
			return nil, fmt.Errorf("read gzip: %w", err)
		}
		return out, nil
	case EncodingZstd:
		var opts []zstd.DOption
		if limit > 0 {
			opts = append(opts, zstd.WithDecoderMaxMemory(uint64(max(limit, zstdMinMemory))))
		}
		zr, err := zstd.NewReader(bytes.NewReader(data), opts...)
		if err != nil {
			return nil, fmt.Errorf("open zstd: %w", err)
		}
		defer zr.Close()
		out, err := readLimited(zr, limit)
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			err = ErrTooLarge
		}
		if err != nil {
			return nil, fmt.Errorf("read zstd: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("content encoding %q: %w", encoding, ErrUnsupported)
	}
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, ErrTooLarge
	}
	return out, nil
}
