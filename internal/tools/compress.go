package tools

import (
	"bytes"
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/MKhiriev/go-proc-box/models"
)

// zstd encoders are safe for concurrent EncodeAll calls.
var zstdEncoder *zstd.Encoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("tools: zstd encoder initialization failed: " + err.Error())
	}
}

type zstdTool struct{ info }

func NewZstdTool() Tool {
	return zstdTool{info{
		name:  ZstdToolName,
		brief: "Compresses a file with Zstandard",
		long:  "Produces a single Zstandard frame at the default compression level. The output can be unpacked with `zstd -d`.",
	}}
}

func (t zstdTool) ProcessFile(ctx context.Context, content []byte, _ string) (models.ToolOutput, error) {
	if err := ctx.Err(); err != nil {
		return models.ToolOutput{}, err
	}
	return models.ToolOutput{
		Content:     zstdEncoder.EncodeAll(content, make([]byte, 0, len(content)/2)),
		ContentType: "application/zstd",
	}, nil
}

type lz4Tool struct{ info }

func NewLZ4Tool() Tool {
	return lz4Tool{info{
		name:  LZ4ToolName,
		brief: "Compresses a file with LZ4",
		long:  "Produces an LZ4 frame. Fast, with a lower ratio than Zstandard. The output can be unpacked with `lz4 -d`.",
	}}
}

func (t lz4Tool) ProcessFile(ctx context.Context, content []byte, _ string) (models.ToolOutput, error) {
	if err := ctx.Err(); err != nil {
		return models.ToolOutput{}, err
	}

	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(content); err != nil {
		return models.ToolOutput{}, fmt.Errorf("lz4 write: %w", err)
	}
	if err := w.Close(); err != nil {
		return models.ToolOutput{}, fmt.Errorf("lz4 close: %w", err)
	}

	return models.ToolOutput{Content: buf.Bytes(), ContentType: "application/x-lz4"}, nil
}
