package giftprocessor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/cshum/filterkit"
	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// checkResolution image bomb prevention
func (p *Processor) checkResolution(w, h int) error {
	if w > p.MaxWidth || h > p.MaxHeight || w*h > p.MaxResolution {
		return filterkit.ErrMaxResolutionExceeded
	}
	return nil
}

// Decode implements filterkit.Decoder
func (p *Processor) Decode(ctx context.Context, blob *filterkit.Blob) (filterkit.Image, error) {
	if filterkit.IsBlobEmpty(blob) {
		return nil, filterkit.ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, _, err := blob.NewReader()
	if err != nil {
		return nil, err
	}
	cfg, format, err := image.DecodeConfig(r)
	_ = r.Close()
	if err != nil {
		return nil, wrapErr(err)
	}
	if err := p.checkResolution(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	if r, _, err = blob.NewReader(); err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close()
	}()
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, wrapErr(err)
	}
	if p.Debug {
		p.Logger.Debug("decode",
			zap.String("format", format),
			zap.Int("width", cfg.Width),
			zap.Int("height", cfg.Height))
	}
	return p.NewImage(img), nil
}

// Encode implements filterkit.Encoder
func (p *Processor) Encode(ctx context.Context, in filterkit.Image, options filterkit.EncodeOptions) (*filterkit.Blob, error) {
	img, ok := in.(*Image)
	if !ok || img == nil || img.img == nil {
		return nil, filterkit.ErrNoImage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	quality := options.Quality
	if quality <= 0 || quality > 100 {
		quality = p.Quality
	}
	format := strings.ToLower(options.Format)
	var buf bytes.Buffer
	var err error
	var contentType string
	switch format {
	case "jpeg", "jpg":
		contentType = "image/jpeg"
		err = jpeg.Encode(&buf, img.img, &jpeg.Options{Quality: quality})
	case "", "png":
		contentType = "image/png"
		err = png.Encode(&buf, img.img)
	case "gif":
		contentType = "image/gif"
		err = gif.Encode(&buf, img.img, nil)
	case "bmp":
		contentType = "image/bmp"
		err = bmp.Encode(&buf, img.img)
	case "tiff":
		contentType = "image/tiff"
		err = tiff.Encode(&buf, img.img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return nil, fmt.Errorf("giftprocessor: %s: %w", format, filterkit.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}
	blob := filterkit.NewBlobFromBytes(buf.Bytes())
	blob.SetContentType(contentType)
	return blob, nil
}

func wrapErr(err error) error {
	if errors.Is(err, image.ErrFormat) {
		return filterkit.ErrUnsupportedFormat
	}
	return filterkit.NewError(err.Error(), 406)
}
