// Package compress handles at-rest compression of raw audit reports.
//
// Reports are multi-kilobyte text and compress to a fraction of their size.
// Stored blobs carry a one-byte algorithm tag so the storage default can
// change without invalidating existing rows.
//
// Supported algorithms:
//   - ZSTD (Zstandard): best balance of speed and ratio, the default
//   - Gzip: for environments that want stdlib-only decompression elsewhere
package compress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// AlgorithmZSTD is the Zstandard compression algorithm.
	AlgorithmZSTD Algorithm = "zstd"

	// AlgorithmGzip is the gzip compression algorithm.
	AlgorithmGzip Algorithm = "gzip"

	// AlgorithmNone stores the payload uncompressed.
	AlgorithmNone Algorithm = "none"
)

// Blob tag bytes, one per algorithm.
const (
	tagZSTD = 'z'
	tagGzip = 'g'
	tagNone = 'n'
)

// Level represents compression level.
type Level int

const (
	// LevelFastest prioritizes speed over ratio.
	LevelFastest Level = 1

	// LevelDefault is a good balance for report text.
	LevelDefault Level = 3

	// LevelBest provides maximum compression (slowest).
	LevelBest Level = 9
)

// Compressor compresses and decompresses report blobs.
type Compressor struct {
	algorithm Algorithm
	level     Level

	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
}

// NewCompressor creates a compressor with the given algorithm and level.
func NewCompressor(algorithm Algorithm, level Level) *Compressor {
	c := &Compressor{
		algorithm: algorithm,
		level:     level,
	}

	c.zstdEncoderPool = sync.Pool{
		New: func() any {
			enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(int(level))))
			return enc
		},
	}
	c.zstdDecoderPool = sync.Pool{
		New: func() any {
			dec, _ := zstd.NewReader(nil)
			return dec
		},
	}

	return c
}

// Algorithm returns the configured algorithm.
func (c *Compressor) Algorithm() Algorithm {
	return c.algorithm
}

// Encode compresses data and prepends the algorithm tag byte.
func (c *Compressor) Encode(data []byte) ([]byte, error) {
	switch c.algorithm {
	case AlgorithmZSTD:
		compressed, err := c.compressZSTD(data)
		if err != nil {
			return nil, err
		}
		return append([]byte{tagZSTD}, compressed...), nil
	case AlgorithmGzip:
		compressed, err := c.compressGzip(data)
		if err != nil {
			return nil, err
		}
		return append([]byte{tagGzip}, compressed...), nil
	case AlgorithmNone:
		return append([]byte{tagNone}, data...), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", c.algorithm)
	}
}

// Decode decompresses a tagged blob, regardless of which algorithm wrote it.
func (c *Compressor) Decode(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, nil
	}

	tag, data := blob[0], blob[1:]
	switch tag {
	case tagZSTD:
		return c.decompressZSTD(data)
	case tagGzip:
		return decompressGzip(data)
	case tagNone:
		return data, nil
	default:
		return nil, fmt.Errorf("unknown blob tag 0x%02x", tag)
	}
}

func (c *Compressor) compressZSTD(data []byte) ([]byte, error) {
	enc := c.zstdEncoderPool.Get().(*zstd.Encoder)
	defer c.zstdEncoderPool.Put(enc)

	var buf bytes.Buffer
	enc.Reset(&buf)

	if _, err := enc.Write(data); err != nil {
		return nil, fmt.Errorf("zstd write error: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("zstd close error: %w", err)
	}

	return buf.Bytes(), nil
}

func (c *Compressor) decompressZSTD(data []byte) ([]byte, error) {
	dec := c.zstdDecoderPool.Get().(*zstd.Decoder)
	defer c.zstdDecoderPool.Put(dec)

	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("zstd reset error: %w", err)
	}

	result, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress error: %w", err)
	}
	return result, nil
}

func (c *Compressor) compressGzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	level := gzip.DefaultCompression
	if c.level <= 3 {
		level = gzip.BestSpeed
	} else if c.level >= 7 {
		level = gzip.BestCompression
	}

	writer, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer error: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("gzip write error: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("gzip close error: %w", err)
	}

	return buf.Bytes(), nil
}

func decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader error: %w", err)
	}
	defer reader.Close()

	result, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gzip decompress error: %w", err)
	}
	return result, nil
}

// Default is the compressor history uses unless configured otherwise.
var Default = NewCompressor(AlgorithmZSTD, LevelDefault)
