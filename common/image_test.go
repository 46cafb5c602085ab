package common

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageDecoderPNG(t *testing.T) {
	data := encodePNG(t)

	img, err := NewImageDecoder().Decode(data, false)
	require.NoError(t, err)

	assert.Equal(t, uint32(2), img.Width)
	assert.Equal(t, uint32(1), img.Height)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, PixelFormatRGBA8Unorm, img.Format)
	assert.Equal(t, []byte{255, 0, 0, 255, 200, 100, 50, 128}, img.Pixels)
}

func TestImageDecoderPremultiplied(t *testing.T) {
	img, err := NewImageDecoder().Decode(encodePNG(t), true)
	require.NoError(t, err)

	assert.Equal(t, PixelFormatRGBA8UnormPremultiplied, img.Format)
	assert.Equal(t, []byte{255, 0, 0, 255}, img.Pixels[:4])
	assert.Equal(t, []byte{100, 50, 25, 128}, img.Pixels[4:])
}

func TestImageDecoderErrors(t *testing.T) {
	_, err := NewImageDecoder().Decode(nil, false)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = NewImageDecoder().Decode([]byte("definitely not an image"), false)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestMimeExtension(t *testing.T) {
	assert.Equal(t, ".png", MimeExtension("image/png"))
	assert.Equal(t, ".jpg", MimeExtension("image/jpeg"))
	assert.Equal(t, ".jpg", MimeExtension("application/octet-stream"))
}
