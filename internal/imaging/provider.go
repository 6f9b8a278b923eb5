// Package imaging decodes, scales and encodes cover bitmaps.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"strings"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/mrlokans/pubshelf/internal/publication"
)

// Format is an output encoding for bitmaps.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// ErrUnsupportedFormat is returned for output formats other than JPEG and PNG.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// Extension returns the file extension of the format, without the dot.
func (f Format) Extension() string {
	if f == FormatPNG {
		return "png"
	}
	return "jpg"
}

// Provider implements publication.ImageProvider with the standard decoders plus
// WebP and BMP, and Catmull-Rom resampling.
type Provider struct {
	jpegQuality int
}

// NewProvider creates a Provider encoding JPEG at the given quality (1-100).
// Out of range values fall back to the encoder default.
func NewProvider(jpegQuality int) *Provider {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = jpeg.DefaultQuality
	}
	return &Provider{jpegQuality: jpegQuality}
}

// Decode decodes a bitmap in any registered format.
func (p *Provider) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &publication.DecodeError{Err: errors.New("empty payload")}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &publication.DecodeError{Err: err}
	}
	return img, nil
}

// ScaleToFit downscales img to fit within maxSize, preserving its aspect
// ratio. Images already within bounds are returned unchanged.
func (p *Provider) ScaleToFit(img image.Image, maxSize publication.Size) image.Image {
	target, ok := FitSize(img.Bounds().Size(), maxSize)
	if !ok {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, target.X, target.Y))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// FitSize computes the dimensions of src scaled down to fit within maxSize.
// It reports false when no scaling is needed or maxSize is invalid.
func FitSize(src image.Point, maxSize publication.Size) (image.Point, bool) {
	if !maxSize.Valid() || src.X <= 0 || src.Y <= 0 {
		return src, false
	}
	if src.X <= maxSize.Width && src.Y <= maxSize.Height {
		return src, false
	}

	ratio := math.Min(
		float64(maxSize.Width)/float64(src.X),
		float64(maxSize.Height)/float64(src.Y),
	)
	w := min(maxSize.Width, max(1, int(math.Round(float64(src.X)*ratio))))
	h := min(maxSize.Height, max(1, int(math.Round(float64(src.Y)*ratio))))
	return image.Pt(w, h), true
}

// Encode writes img to w in the given format.
func (p *Provider) Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: p.jpegQuality})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

var _ publication.ImageProvider = (*Provider)(nil)
