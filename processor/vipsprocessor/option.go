package vipsprocessor

import (
	"github.com/cshum/filterkit"
	"go.uber.org/zap"
)

// Option Processor option
type Option func(v *Processor)

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(v *Processor) {
		if logger != nil {
			v.Logger = logger
		}
	}
}

// WithDebug with debug option
func WithDebug(debug bool) Option {
	return func(v *Processor) {
		v.Debug = debug
	}
}

// WithConcurrency with libvips concurrency option, -1 for number of CPUs
func WithConcurrency(num int) Option {
	return func(v *Processor) {
		if num > 0 || num == -1 {
			v.Concurrency = num
		}
	}
}

// WithMaxCacheFiles with libvips max cache files option
func WithMaxCacheFiles(num int) Option {
	return func(v *Processor) {
		if num > 0 {
			v.MaxCacheFiles = num
		}
	}
}

// WithMaxCacheMem with libvips max cache mem option
func WithMaxCacheMem(num int) Option {
	return func(v *Processor) {
		if num > 0 {
			v.MaxCacheMem = num
		}
	}
}

// WithMaxCacheSize with libvips max cache size option
func WithMaxCacheSize(num int) Option {
	return func(v *Processor) {
		if num > 0 {
			v.MaxCacheSize = num
		}
	}
}

// WithMaxWidth with maximum width option
func WithMaxWidth(width int) Option {
	return func(v *Processor) {
		if width > 0 {
			v.MaxWidth = width
		}
	}
}

// WithMaxHeight with maximum height option
func WithMaxHeight(height int) Option {
	return func(v *Processor) {
		if height > 0 {
			v.MaxHeight = height
		}
	}
}

// WithMaxResolution with maximum resolution option
func WithMaxResolution(res int) Option {
	return func(v *Processor) {
		if res > 0 {
			v.MaxResolution = res
		}
	}
}

// WithQuality with default lossy encoding quality option
func WithQuality(quality int) Option {
	return func(v *Processor) {
		if quality > 0 && quality <= 100 {
			v.Quality = quality
		}
	}
}

// WithDisableFilters with disable filters option, accepting comma separated names
func WithDisableFilters(filters ...string) Option {
	return func(v *Processor) {
		v.DisableFilters = append(v.DisableFilters, splitNames(filters)...)
	}
}

// WithFilter with custom filter handler option
func WithFilter(name filterkit.Name, fn FilterFunc) Option {
	return func(v *Processor) {
		if fn != nil {
			v.Filters[name] = fn
		}
	}
}
