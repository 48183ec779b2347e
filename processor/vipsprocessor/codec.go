package vipsprocessor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"strings"

	"github.com/cshum/filterkit"
	"github.com/cshum/vipsgen/vips"
	"golang.org/x/image/bmp"
)

// Decode implements filterkit.Decoder
func (v *Processor) Decode(ctx context.Context, blob *filterkit.Blob) (filterkit.Image, error) {
	if filterkit.IsBlobEmpty(blob) {
		return nil, filterkit.ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := v.CheckResolution(v.newImageFromBlob(ctx, blob))
	if err != nil {
		return nil, WrapErr(err)
	}
	out := v.NewImage(ctx, img)
	out.format = formatOf(blob.BlobType())
	return out, nil
}

func (v *Processor) newImageFromBlob(ctx context.Context, blob *filterkit.Blob) (*vips.Image, error) {
	options := &vips.LoadOptions{FailOnError: false}
	var img *vips.Image
	var err error
	if filterkit.HasDefer(ctx) {
		// source has to outlive the image
		var reader io.ReadCloser
		if reader, _, err = blob.NewReader(); err != nil {
			return nil, err
		}
		src := vips.NewSource(reader)
		filterkit.Defer(ctx, src.Close)
		img, err = vips.NewImageFromSource(src, options)
	} else {
		var buf []byte
		if buf, err = blob.ReadAll(); err != nil {
			return nil, err
		}
		img, err = vips.NewImageFromBuffer(buf, options)
	}
	if err != nil && blob.BlobType() == filterkit.BlobTypeBMP {
		// fallback with Go BMP decoder if vips error on BMP
		return v.bmpFallback(blob)
	}
	return img, err
}

func estimateMaxBMPFileSize(maxResolution int64) int64 {
	const (
		bmpHeaderSize = 54
		bytesPerPixel = 4   // 32-bit RGBA (worst case)
		safetyMargin  = 1.2 // 20% buffer
	)
	return int64(float64(bmpHeaderSize+maxResolution*bytesPerPixel) * safetyMargin)
}

func (v *Processor) bmpFallback(blob *filterkit.Blob) (*vips.Image, error) {
	if blob.Size() > estimateMaxBMPFileSize(int64(v.MaxResolution)) {
		return nil, filterkit.ErrMaxResolutionExceeded
	}
	r, _, err := blob.NewReader()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close()
	}()
	img, err := bmp.Decode(r)
	if err != nil {
		return nil, err
	}
	rect := img.Bounds()
	size := rect.Size()
	if size.X > v.MaxWidth || size.Y > v.MaxHeight || size.X*size.Y > v.MaxResolution {
		return nil, filterkit.ErrMaxResolutionExceeded
	}
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(rect)
		draw.Draw(rgba, rect, img, rect.Min, draw.Src)
	}
	return vips.NewImageFromMemory(rgba.Pix, size.X, size.Y, 4)
}

type bufferTarget struct {
	bytes.Buffer
}

func (*bufferTarget) Close() error {
	return nil
}

// Encode implements filterkit.Encoder
func (v *Processor) Encode(ctx context.Context, in filterkit.Image, options filterkit.EncodeOptions) (*filterkit.Blob, error) {
	img, ok := in.(*Image)
	if !ok || img == nil || img.img == nil {
		return nil, filterkit.ErrNoImage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	quality := options.Quality
	if quality <= 0 || quality > 100 {
		quality = v.Quality
	}
	format := strings.ToLower(options.Format)
	if format == "" {
		format = img.format
	}
	buf := &bufferTarget{}
	target := vips.NewTarget(buf)
	defer target.Close()
	var err error
	var contentType string
	switch format {
	case "jpeg", "jpg":
		contentType = "image/jpeg"
		err = img.img.JpegsaveTarget(target, &vips.JpegsaveTargetOptions{Q: quality})
	case "png":
		contentType = "image/png"
		err = img.img.PngsaveTarget(target, nil)
	case "webp":
		contentType = "image/webp"
		err = img.img.WebpsaveTarget(target, &vips.WebpsaveTargetOptions{Q: quality, Effort: 4})
	case "gif":
		contentType = "image/gif"
		err = img.img.GifsaveTarget(target, nil)
	case "tiff":
		contentType = "image/tiff"
		err = img.img.TiffsaveTarget(target, nil)
	default:
		return nil, fmt.Errorf("vipsprocessor: %s: %w", format, filterkit.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, WrapErr(err)
	}
	blob := filterkit.NewBlobFromBytes(buf.Bytes())
	blob.SetContentType(contentType)
	return blob, nil
}

// formatOf keeps the loaded format where vips can save it, png otherwise
func formatOf(blobType filterkit.BlobType) string {
	switch blobType {
	case filterkit.BlobTypeJPEG:
		return "jpeg"
	case filterkit.BlobTypeWEBP:
		return "webp"
	case filterkit.BlobTypeGIF:
		return "gif"
	case filterkit.BlobTypeTIFF:
		return "tiff"
	}
	return "png"
}
