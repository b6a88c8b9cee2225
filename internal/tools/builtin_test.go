package tools

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashTools(t *testing.T) {
	tests := []struct {
		tool Tool
		want string
	}{
		{tool: NewMD5Tool(), want: "5eb63bbbe01eeed093cb22bb8f5acdc3"},
		{tool: NewSHA3Tool(), want: "644bcc7e564373040999aac89e7622f3ca71fba1d972fd94a31c3bfbf24e3938"},
		{tool: NewBLAKE3Tool(), want: "d74981efa70a0c880b8d8c1985d075dbcbf679b99a5f9914e5aaf96b831a9e24"},
	}

	for _, tt := range tests {
		t.Run(tt.tool.Name(), func(t *testing.T) {
			out, err := tt.tool.ProcessFile(context.Background(), []byte("hello world"), "text/plain")

			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out.Content))
			assert.Equal(t, "text/plain", out.ContentType)
			assert.Empty(t, tt.tool.ProcessableTypes())
		})
	}
}

func TestHashTool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMD5Tool().ProcessFile(ctx, []byte("x"), "")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestZstdTool_RoundTrip(t *testing.T) {
	content := bytes.Repeat([]byte("compress me "), 500)

	out, err := NewZstdTool().ProcessFile(context.Background(), content, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "application/zstd", out.ContentType)
	assert.Less(t, len(out.Content), len(content))

	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	plain, err := dec.DecodeAll(out.Content, nil)
	require.NoError(t, err)
	assert.Equal(t, content, plain)
}

func TestLZ4Tool_RoundTrip(t *testing.T) {
	content := bytes.Repeat([]byte("lz4 "), 1000)

	out, err := NewLZ4Tool().ProcessFile(context.Background(), content, "")
	require.NoError(t, err)
	assert.Equal(t, "application/x-lz4", out.ContentType)

	plain, err := io.ReadAll(lz4.NewReader(bytes.NewReader(out.Content)))
	require.NoError(t, err)
	assert.Equal(t, content, plain)
}

func TestColorInverter_PNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.NRGBA{R: 255, G: 0, B: 10, A: 255})
	src.Set(1, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 128})
	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, src))

	out, err := NewColorInverterTool().ProcessFile(context.Background(), in.Bytes(), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.ContentType)

	got, err := png.Decode(bytes.NewReader(out.Content))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0, G: 255, B: 245, A: 255}, color.NRGBAModel.Convert(got.At(0, 0)))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 128}, color.NRGBAModel.Convert(got.At(1, 0)))
}

func TestColorInverter_GIFPalette(t *testing.T) {
	palette := color.Palette{color.RGBA{A: 255}, color.RGBA{R: 255, G: 255, B: 255, A: 255}}
	src := image.NewPaletted(image.Rect(0, 0, 1, 1), palette)
	src.SetColorIndex(0, 0, 0)
	var in bytes.Buffer
	require.NoError(t, gif.Encode(&in, src, nil))

	out, err := NewColorInverterTool().ProcessFile(context.Background(), in.Bytes(), "")
	require.NoError(t, err)
	assert.Equal(t, "image/gif", out.ContentType)

	got, err := gif.Decode(bytes.NewReader(out.Content))
	require.NoError(t, err)
	r, g, b, _ := got.At(0, 0).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b})
}

func TestColorInverter_RejectsNonImage(t *testing.T) {
	_, err := NewColorInverterTool().ProcessFile(context.Background(), []byte("not an image"), "image/png")

	assert.Error(t, err)
}
