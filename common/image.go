package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	// ErrEmptyImage is returned when an image payload has no bytes.
	ErrEmptyImage = errors.New("image payload is empty")
	// ErrUnsupportedImage is returned when the payload is not a recognized image format.
	ErrUnsupportedImage = errors.New("unsupported image format")
)

// DecodedImage is a tightly packed RGBA8 image.
type DecodedImage struct {
	// Width is the image width in pixels.
	Width uint32
	// Height is the image height in pixels.
	Height uint32
	// Pixels holds Width*Height*4 bytes, row-major, no row padding.
	Pixels []byte
	// Format reports whether Pixels is straight or premultiplied alpha.
	Format PixelFormat
	// MimeType is the sniffed or declared MIME type of the source bytes.
	MimeType string
}

// ImageDecoder turns encoded image bytes (PNG, JPEG, ...) into RGBA8 pixels.
type ImageDecoder interface {
	// Decode decodes raw image bytes into a tightly packed RGBA8 buffer.
	//
	// Parameters:
	//   - data: the encoded image bytes
	//   - premultiply: true to multiply color channels by alpha
	//
	// Returns:
	//   - DecodedImage: the decoded image
	//   - error: error if the bytes cannot be decoded
	Decode(data []byte, premultiply bool) (DecodedImage, error)
}

// imageDecoder is the default ImageDecoder backed by the image package registry
// (PNG, JPEG, WebP and BMP are registered).
type imageDecoder struct{}

var _ ImageDecoder = &imageDecoder{}

// NewImageDecoder creates the default ImageDecoder.
//
// Returns:
//   - ImageDecoder: a decoder for PNG, JPEG, WebP and BMP payloads
func NewImageDecoder() ImageDecoder {
	return &imageDecoder{}
}

func (d *imageDecoder) Decode(data []byte, premultiply bool) (DecodedImage, error) {
	if len(data) == 0 {
		return DecodedImage{}, ErrEmptyImage
	}

	mime := SniffMimeType(data)
	if mime == "" {
		return DecodedImage{}, ErrUnsupportedImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return DecodedImage{}, fmt.Errorf("failed to decode %s image: %w", mime, err)
	}

	bounds := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)

	out := DecodedImage{
		Width:    uint32(bounds.Dx()),
		Height:   uint32(bounds.Dy()),
		Pixels:   nrgba.Pix,
		Format:   PixelFormatRGBA8Unorm,
		MimeType: mime,
	}
	if premultiply {
		Premultiply(out.Pixels)
		out.Format = PixelFormatRGBA8UnormPremultiplied
	}
	return out, nil
}

// SniffMimeType returns the MIME type of an image payload, or "" when it is not an image.
//
// Parameters:
//   - data: the encoded bytes (only the header is inspected)
//
// Returns:
//   - string: e.g. "image/png", or "" if unknown
func SniffMimeType(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	if kind.MIME.Type != "image" {
		return ""
	}
	return kind.MIME.Value
}

// MimeExtension maps an image MIME type to a file extension. Unknown types map to ".jpg".
//
// Parameters:
//   - mime: the MIME type
//
// Returns:
//   - string: the extension including the leading dot
func MimeExtension(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".jpg"
	}
}

// Premultiply multiplies the RGB channels of a straight-alpha RGBA8 buffer by alpha in place.
//
// Parameters:
//   - pixels: RGBA8 bytes, length a multiple of 4
func Premultiply(pixels []byte) {
	for i := 0; i+3 < len(pixels); i += 4 {
		a := uint32(pixels[i+3])
		if a == 255 {
			continue
		}
		pixels[i] = uint8((uint32(pixels[i])*a + 127) / 255)
		pixels[i+1] = uint8((uint32(pixels[i+1])*a + 127) / 255)
		pixels[i+2] = uint8((uint32(pixels[i+2])*a + 127) / 255)
	}
}
