package filterkit

import (
	"context"
)

// EncodeOptions output encoding options
type EncodeOptions struct {
	// Format output format e.g. jpeg, png, webp, empty for engine default
	Format string
	// Quality lossy encoding quality 1 to 100, 0 for engine default
	Quality int
}

// Decoder engine capable of decoding encoded images into its own images
type Decoder interface {
	Decode(ctx context.Context, blob *Blob) (Image, error)
}

// Encoder engine capable of encoding its own images
type Encoder interface {
	Encode(ctx context.Context, img Image, options EncodeOptions) (*Blob, error)
}

// Decode decodes blob with the engine owning img, for filters taking image parameters
func Decode(ctx context.Context, img Image, blob *Blob) (Image, error) {
	if img == nil || img.Engine() == nil {
		return nil, ErrNoImage
	}
	decoder, ok := img.Engine().(Decoder)
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	return decoder.Decode(ctx, blob)
}
