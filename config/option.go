package config

import (
	"flag"

	"github.com/cshum/filterkit/service"
	"go.uber.org/zap"
)

// Option flag based config option, registers flags on fs and
// calls cb once to obtain the parsed logger and debug mode
type Option func(fs *flag.FlagSet, cb func() (logger *zap.Logger, isDebug bool)) service.Option

// applyOptions transforms config.Option chain into service.Option,
// flags of every option are registered before cb parses them
func applyOptions(
	fs *flag.FlagSet, cb func() (*zap.Logger, bool), options ...Option,
) (serviceOptions []service.Option, logger *zap.Logger, isDebug bool) {
	if len(options) == 0 {
		logger, isDebug = cb()
		return
	}
	var last = len(options) - 1
	if options[last] == nil {
		return applyOptions(fs, cb, options[:last]...)
	}
	var prior []service.Option
	var called bool
	option := options[last](fs, func() (*zap.Logger, bool) {
		prior, logger, isDebug = applyOptions(fs, cb, options[:last]...)
		called = true
		return logger, isDebug
	})
	if !called {
		prior, logger, isDebug = applyOptions(fs, cb, options[:last]...)
	}
	serviceOptions = append(prior, option)
	return
}
