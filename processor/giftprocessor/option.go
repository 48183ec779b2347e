package giftprocessor

import (
	"github.com/cshum/filterkit"
	"go.uber.org/zap"
)

// Option Processor option
type Option func(p *Processor)

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.Logger = logger
		}
	}
}

// WithDebug with debug option
func WithDebug(debug bool) Option {
	return func(p *Processor) {
		p.Debug = debug
	}
}

// WithConcurrency with row concurrency for per pixel filters, -1 for number of CPUs
func WithConcurrency(num int) Option {
	return func(p *Processor) {
		if num > 0 || num == -1 {
			p.Concurrency = num
		}
	}
}

// WithMaxWidth with maximum width option
func WithMaxWidth(width int) Option {
	return func(p *Processor) {
		if width > 0 {
			p.MaxWidth = width
		}
	}
}

// WithMaxHeight with maximum height option
func WithMaxHeight(height int) Option {
	return func(p *Processor) {
		if height > 0 {
			p.MaxHeight = height
		}
	}
}

// WithMaxResolution with maximum resolution option
func WithMaxResolution(res int) Option {
	return func(p *Processor) {
		if res > 0 {
			p.MaxResolution = res
		}
	}
}

// WithQuality with default jpeg quality option
func WithQuality(quality int) Option {
	return func(p *Processor) {
		if quality > 0 && quality <= 100 {
			p.Quality = quality
		}
	}
}

// WithParallelization with gift parallelization option
func WithParallelization(enabled bool) Option {
	return func(p *Processor) {
		p.Parallelization = enabled
	}
}

// WithDisableFilters with disable filters option, accepting comma separated names
func WithDisableFilters(filters ...string) Option {
	return func(p *Processor) {
		p.DisableFilters = append(p.DisableFilters, splitNames(filters)...)
	}
}

// WithFilter with custom filter handler option
func WithFilter(name filterkit.Name, fn FilterFunc) Option {
	return func(p *Processor) {
		if fn != nil {
			p.Filters[name] = fn
		}
	}
}
