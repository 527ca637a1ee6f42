// Package codec implements the compression formats staged addon artifacts
// are published in. gzip is the default and matches the ".node.gz" files
// the build pipeline bundles; zstd and lz4 are accepted for distributions
// that ship those instead.
package codec

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// maxZstdWindow bounds decoder memory for zstd frames.
const maxZstdWindow = 128 << 20

// Codec decodes (and, for producing fixtures and bundles, encodes) one
// compression format.
type Codec interface {
	// Name is the canonical configuration name, e.g. "gzip".
	Name() string
	// Ext is the file extension including the dot, e.g. ".gz".
	Ext() string
	NewReader(r io.Reader) (io.ReadCloser, error)
	NewWriter(w io.Writer) (io.WriteCloser, error)
}

var (
	// Gzip is the default artifact codec.
	Gzip Codec = gzipCodec{}
	// Zstd decodes zstandard frames.
	Zstd Codec = zstdCodec{}
	// LZ4 decodes lz4 frames (not raw blocks).
	LZ4 Codec = lz4Codec{}
)

// All lists the supported codecs, default first.
var All = []Codec{Gzip, Zstd, LZ4}

// Parse resolves a codec from its name or file extension, with or without
// the leading dot. An empty name selects Gzip.
func Parse(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "", "gz", "gzip":
		return Gzip, nil
	case "zst", "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return nil, fmt.Errorf("unknown compression %q (supported: gzip, zstd, lz4)", name)
	}
}

type gzipCodec struct{}

func (gzipCodec) Name() string { return "gzip" }
func (gzipCodec) Ext() string  { return ".gz" }

func (gzipCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("gzip header: %w", err)
	}
	return zr, nil
}

func (gzipCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, gzip.BestCompression)
}

type zstdCodec struct{}

func (zstdCodec) Name() string { return "zstd" }
func (zstdCodec) Ext() string  { return ".zst" }

func (zstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxWindow(maxZstdWindow),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	return dec.IOReadCloser(), nil
}

func (zstdCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
}

type lz4Codec struct{}

func (lz4Codec) Name() string { return "lz4" }
func (lz4Codec) Ext() string  { return ".lz4" }

func (lz4Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

func (lz4Codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}
