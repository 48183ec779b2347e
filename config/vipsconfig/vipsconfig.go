// Package vipsconfig configures the libvips processor
package vipsconfig

import (
	"flag"

	"github.com/cshum/filterkit/processor/vipsprocessor"
	"github.com/cshum/filterkit/service"
	"go.uber.org/zap"
)

type vipsFlags struct {
	DisableFilters string
	Concurrency    int
	MaxCacheFiles  int
	MaxCacheSize   int
	MaxCacheMem    int
	MaxWidth       int
	MaxHeight      int
	MaxResolution  int
	Quality        int
}

func (f *vipsFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.DisableFilters, "vips-disable-filters", "",
		"VIPS disable filters by csv e.g. CICrop,CIUnsharpMask")
	fs.IntVar(&f.Concurrency, "vips-concurrency", 1,
		"VIPS concurrency. Set -1 to be the number of CPU cores")
	fs.IntVar(&f.MaxCacheFiles, "vips-max-cache-files", 0, "VIPS max cache files")
	fs.IntVar(&f.MaxCacheSize, "vips-max-cache-size", 0, "VIPS max cache size")
	fs.IntVar(&f.MaxCacheMem, "vips-max-cache-mem", 0, "VIPS max cache mem")
	fs.IntVar(&f.MaxWidth, "vips-max-width", 0, "VIPS max image width")
	fs.IntVar(&f.MaxHeight, "vips-max-height", 0, "VIPS max image height")
	fs.IntVar(&f.MaxResolution, "vips-max-resolution", 0, "VIPS max image resolution in pixels")
	fs.IntVar(&f.Quality, "vips-quality", 0, "VIPS default lossy encoding quality")
}

// WithVips with libvips processor config option, tried before the gift processor
func WithVips(fs *flag.FlagSet, cb func() (*zap.Logger, bool)) service.Option {
	f := &vipsFlags{}
	f.register(fs)
	logger, debug := cb()
	return service.WithProcessors(
		vipsprocessor.NewProcessor(
			vipsprocessor.WithDisableFilters(f.DisableFilters),
			vipsprocessor.WithConcurrency(f.Concurrency),
			vipsprocessor.WithMaxCacheFiles(f.MaxCacheFiles),
			vipsprocessor.WithMaxCacheMem(f.MaxCacheMem),
			vipsprocessor.WithMaxCacheSize(f.MaxCacheSize),
			vipsprocessor.WithMaxWidth(f.MaxWidth),
			vipsprocessor.WithMaxHeight(f.MaxHeight),
			vipsprocessor.WithMaxResolution(f.MaxResolution),
			vipsprocessor.WithQuality(f.Quality),
			vipsprocessor.WithLogger(logger),
			vipsprocessor.WithDebug(debug),
		),
	)
}
