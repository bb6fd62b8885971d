package ocr

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // glyph payloads
	_ "image/jpeg" // glyph payloads
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"  // glyph payloads
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // glyph payloads
)

// ErrInvalidImage is returned when a payload cannot be decoded into an image.
var ErrInvalidImage = errors.New("invalid image payload")

// DecodeDataURI decodes an inline image payload such as
// "data:image/png;base64,iVBOR...". A bare base64 string is accepted too.
func DecodeDataURI(payload string) (image.Image, error) {
	data := strings.TrimSpace(payload)
	if i := strings.Index(data, ";base64,"); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+len(";base64,"):]
	}
	if data == "" {
		return nil, ErrInvalidImage
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	return img, nil
}

// CropLeft removes the leftmost dx pixels. The result keeps the source's
// coordinate space. Cropping the whole width yields an empty image.
func CropLeft(img image.Image, dx int) image.Image {
	if dx <= 0 {
		return img
	}
	b := img.Bounds()
	minX := min(b.Min.X+dx, b.Max.X)
	rect := image.Rect(minX, b.Min.Y, b.Max.X, b.Max.Y)

	if sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect)
	}

	dst := image.NewRGBA(rect)
	xdraw.Draw(dst, rect, img, rect.Min, xdraw.Src)
	return dst
}

// Composite draws img over an opaque background, scaled scale times with
// nearest-neighbour sampling. The result's origin is (0, 0).
func Composite(img image.Image, background color.Color, scale int) image.Image {
	if scale < 1 {
		scale = 1
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, xdraw.Src)
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// encodePNG flattens img onto white and encodes it as PNG.
func encodePNG(img image.Image) ([]byte, error) {
	b := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(flat, flat.Bounds(), image.White, image.Point{}, xdraw.Src)
	xdraw.Draw(flat, flat.Bounds(), img, b.Min, xdraw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
