// internal/drivers/compression.go
package drivers

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// Compression algorithms, selected by artifact key suffix
const (
	CompressionNone   = ""
	CompressionGzip   = "gzip"
	CompressionZstd   = "zstd"
	CompressionSnappy = "snappy"
)

// CompressionFor maps an artifact key to the algorithm its suffix names.
func CompressionFor(artifact string) string {
	switch path.Ext(artifact) {
	case ".gz":
		return CompressionGzip
	case ".zst":
		return CompressionZstd
	case ".sz":
		return CompressionSnappy
	default:
		return CompressionNone
	}
}

// DecompressingSource transparently decodes compressed artifacts.
// The training job uploads large tables compressed; the key's suffix
// says how.
type DecompressingSource struct {
	backend Source
	logger  *zap.Logger
}

func NewDecompressingSource(backend Source, logger *zap.Logger) *DecompressingSource {
	return &DecompressingSource{
		backend: backend,
		logger:  logger,
	}
}

func (c *DecompressingSource) Get(ctx context.Context, container, artifact string) (io.ReadCloser, error) {
	reader, err := c.backend.Get(ctx, container, artifact)
	if err != nil {
		return nil, err
	}

	algorithm := CompressionFor(artifact)
	switch algorithm {
	case CompressionNone:
		return reader, nil
	case CompressionGzip:
		gr, err := gzip.NewReader(reader)
		if err != nil {
			_ = reader.Close()
			return nil, fmt.Errorf("create gzip reader for %s: %w", artifact, err)
		}
		return &compressedReader{decoded: gr, closeDecoder: gr.Close, underlying: reader}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(reader, zstd.WithDecoderConcurrency(1))
		if err != nil {
			_ = reader.Close()
			return nil, fmt.Errorf("create zstd reader for %s: %w", artifact, err)
		}
		return &compressedReader{
			decoded:      zr,
			closeDecoder: func() error { zr.Close(); return nil },
			underlying:   reader,
		}, nil
	case CompressionSnappy:
		return &compressedReader{decoded: snappy.NewReader(reader), underlying: reader}, nil
	default:
		_ = reader.Close()
		return nil, fmt.Errorf("unsupported algorithm: %s", algorithm)
	}
}

// Exists reports on the stored (compressed) object; the key already names it.
func (c *DecompressingSource) Exists(ctx context.Context, container, artifact string) (bool, error) {
	return c.backend.Exists(ctx, container, artifact)
}

type compressedReader struct {
	decoded      io.Reader
	closeDecoder func() error
	underlying   io.ReadCloser
}

func (r *compressedReader) Read(p []byte) (int, error) {
	return r.decoded.Read(p)
}

func (r *compressedReader) Close() error {
	var err error
	if r.closeDecoder != nil {
		err = r.closeDecoder()
	}
	if cerr := r.underlying.Close(); err == nil {
		err = cerr
	}
	return err
}
