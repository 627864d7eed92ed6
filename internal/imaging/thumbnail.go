// Package imaging decodes uploaded photos and renders thumbnails.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/nfnt/resize"
)

// Thumbnail bounds and JPEG quality.
const (
	ThumbnailSize = 300
	JPEGQuality   = 85
)

// MaxPixels caps width*height of an upload before it is decoded.
const MaxPixels = 50_000_000

var (
	// ErrUnsupportedFormat is returned for uploads that are not JPEG or PNG.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrImageTooLarge is returned for images with more than MaxPixels.
	ErrImageTooLarge = errors.New("image dimensions too large")
)

// Image is a decoded upload.
type Image struct {
	img    image.Image
	Format string
}

// Decode reads a JPEG or PNG image. The header is checked against MaxPixels
// before any pixel data is decoded.
func Decode(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &Image{img: img, Format: format}, nil
}

// Bounds returns the image dimensions.
func (i *Image) Bounds() (width, height int) {
	b := i.img.Bounds()
	return b.Dx(), b.Dy()
}

// Thumbnail renders the image scaled to fit ThumbnailSize x ThumbnailSize,
// preserving aspect ratio, as JPEG.
func (i *Image) Thumbnail() ([]byte, error) {
	thumb := resize.Thumbnail(ThumbnailSize, ThumbnailSize, i.img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType returns the MIME type of the decoded format.
func (i *Image) ContentType() string {
	if i.Format == "png" {
		return "image/png"
	}
	return "image/jpeg"
}
