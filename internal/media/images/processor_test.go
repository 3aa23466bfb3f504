package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dozendreams/dozendreams-server/internal/config"
	"github.com/dozendreams/dozendreams-server/internal/errors"
)

type captureUploader struct {
	path        string
	contentType string
	data        []byte
	err         error
}

func (u *captureUploader) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.path = path
	u.contentType = contentType
	u.data = data
	return "https://cdn.example.com/" + path, nil
}

func testImage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestProcessor(uploader *captureUploader) *Processor {
	cfg := config.MediaConfig{MaxWidth: 800, JPEGQuality: 80}
	return NewProcessor(cfg, uploader, slog.New(slog.DiscardHandler))
}

func TestProcessDownscalesAndUploads(t *testing.T) {
	uploader := &captureUploader{}
	p := newTestProcessor(uploader)

	photo, err := p.Process(context.Background(), "lst_villa", testImage(t, 1600, 1200))
	require.NoError(t, err)

	assert.Equal(t, 800, photo.Width, "wide photos cap at the configured width")
	assert.Equal(t, 600, photo.Height, "aspect ratio preserved")
	assert.Equal(t, "https://cdn.example.com/listings/lst_villa/photo.jpg", photo.URL)
	assert.NotEmpty(t, photo.BlurHash)

	assert.Equal(t, "listings/lst_villa/photo.jpg", uploader.path)
	assert.Equal(t, "image/jpeg", uploader.contentType)

	decoded, format, err := image.Decode(bytes.NewReader(uploader.data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format, "stored photo is re-encoded JPEG")
	assert.Equal(t, 800, decoded.Bounds().Dx())
}

func TestProcessKeepsSmallImages(t *testing.T) {
	uploader := &captureUploader{}
	p := newTestProcessor(uploader)

	photo, err := p.Process(context.Background(), "lst_car", testImage(t, 400, 300))
	require.NoError(t, err)
	assert.Equal(t, 400, photo.Width)
	assert.Equal(t, 300, photo.Height)
}

func TestProcessRejectsGarbage(t *testing.T) {
	p := newTestProcessor(&captureUploader{})

	_, err := p.Process(context.Background(), "lst_x", []byte("not an image"))
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestProcessPropagatesUploadFailure(t *testing.T) {
	uploader := &captureUploader{err: errors.Upstream("bucket down")}
	p := newTestProcessor(uploader)

	_, err := p.Process(context.Background(), "lst_x", testImage(t, 100, 100))
	assert.ErrorIs(t, err, errors.ErrUpstream)
}
