// Package images processes listing photos: decode, downscale, JPEG
// re-encode, BlurHash placeholder, and upload to the backend's public
// bucket.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log/slog"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/dozendreams/dozendreams-server/internal/backend"
	"github.com/dozendreams/dozendreams-server/internal/config"
	"github.com/dozendreams/dozendreams-server/internal/errors"
)

// blurHashSize is the thumbnail edge used for BlurHash computation.
// BlurHash is a low-resolution placeholder; 64px keeps encoding fast.
const blurHashSize = 64

// Photo is the stored result of processing one upload.
type Photo struct {
	URL      string `json:"url"`
	BlurHash string `json:"blur_hash"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Processor turns raw uploads into stored, display-ready listing photos.
type Processor struct {
	uploader backend.Uploader
	maxWidth int
	quality  int
	logger   *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(cfg config.MediaConfig, uploader backend.Uploader, logger *slog.Logger) *Processor {
	return &Processor{
		uploader: uploader,
		maxWidth: cfg.MaxWidth,
		quality:  cfg.JPEGQuality,
		logger:   logger,
	}
}

// Process decodes an uploaded photo, scales it down to the configured
// width, re-encodes it as JPEG, and uploads it under the listing's path.
// The returned photo carries the public URL and a BlurHash placeholder
// for progressive rendering.
func (p *Processor) Process(ctx context.Context, listingID string, data []byte) (*Photo, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Validation("unsupported or corrupt image").WithCause(err)
	}

	scaled := p.downscale(img)
	bounds := scaled.Bounds()

	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, scaled, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, errors.Internal("encoding photo").WithCause(err)
	}

	hash, err := blurhash.Encode(4, 3, thumbnail(scaled))
	if err != nil {
		// A missing placeholder degrades rendering, not the upload.
		p.logger.Warn("blurhash encode failed", "listing", listingID, "error", err)
		hash = ""
	}

	path := fmt.Sprintf("listings/%s/photo.jpg", listingID)
	url, err := p.uploader.Upload(ctx, path, "image/jpeg", encoded.Bytes())
	if err != nil {
		return nil, err
	}

	p.logger.Debug("photo processed",
		"listing", listingID,
		"source_format", format,
		"width", bounds.Dx(),
		"height", bounds.Dy(),
		"bytes", encoded.Len(),
	)

	return &Photo{
		URL:      url,
		BlurHash: hash,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}, nil
}

// downscale caps the photo at the configured width, preserving aspect.
// Catmull-Rom keeps edges crisp at gallery sizes.
func (p *Processor) downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	if p.maxWidth <= 0 || bounds.Dx() <= p.maxWidth {
		return img
	}

	height := (bounds.Dy() * p.maxWidth) / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, p.maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// thumbnail shrinks the image for BlurHash computation. Nearest-neighbor
// is plenty for a placeholder.
func thumbnail(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= blurHashSize && bounds.Dy() <= blurHashSize {
		return img
	}

	width, height := blurHashSize, blurHashSize
	if bounds.Dx() > bounds.Dy() {
		height = max((bounds.Dy()*blurHashSize)/bounds.Dx(), 1)
	} else {
		width = max((bounds.Dx()*blurHashSize)/bounds.Dy(), 1)
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
