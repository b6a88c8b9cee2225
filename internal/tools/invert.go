package tools

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/MKhiriev/go-proc-box/internal/utils"
	"github.com/MKhiriev/go-proc-box/models"
)

type colorInverterTool struct{ info }

func NewColorInverterTool() Tool {
	return colorInverterTool{info{
		name:  ColorInverterToolName,
		brief: "Inverts the colors of an image",
		long:  "Replaces every pixel by its negative, keeping transparency. The result has the same format as the input.",
		types: []string{"image/png", "image/jpeg", "image/gif"},
	}}
}

func (t colorInverterTool) ProcessFile(ctx context.Context, content []byte, contentType string) (models.ToolOutput, error) {
	src, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return models.ToolOutput{}, fmt.Errorf("decode image: %w", err)
	}

	var out bytes.Buffer
	switch img := src.(type) {
	case *image.Paletted:
		inverted := *img
		inverted.Palette = make(color.Palette, len(img.Palette))
		for i, c := range img.Palette {
			inverted.Palette[i] = invertColor(c)
		}
		err = encodeImage(&out, format, &inverted)
	default:
		bounds := src.Bounds()
		dst := image.NewNRGBA(bounds)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			if err = ctx.Err(); err != nil {
				return models.ToolOutput{}, err
			}
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				dst.Set(x, y, invertColor(src.At(x, y)))
			}
		}
		err = encodeImage(&out, format, dst)
	}
	if err != nil {
		return models.ToolOutput{}, err
	}

	ct := utils.NormalizeContentType(contentType)
	if ct == utils.DefaultContentType {
		ct = "image/" + format
	}
	return models.ToolOutput{Content: out.Bytes(), ContentType: ct}, nil
}

func invertColor(c color.Color) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return color.NRGBA{R: 255 - n.R, G: 255 - n.G, B: 255 - n.B, A: n.A}
}

func encodeImage(buf *bytes.Buffer, format string, img image.Image) error {
	var err error
	switch format {
	case "png":
		err = png.Encode(buf, img)
	case "jpeg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: 90})
	case "gif":
		err = gif.Encode(buf, img, nil)
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}
