package config

import (
	"flag"

	"github.com/cshum/filterkit/processor/giftprocessor"
	"github.com/cshum/filterkit/service"
	"go.uber.org/zap"
)

// withGift with pure Go gift processor config option, the fallback processor
// for filters other processors do not support
func withGift(fs *flag.FlagSet, cb func() (*zap.Logger, bool)) service.Option {
	var (
		giftDisable = fs.Bool("gift-disable", false,
			"Disable gift processor")
		giftDisableFilters = fs.String("gift-disable-filters", "",
			"gift processor disable filters by csv e.g. CIColorMap,CIColorCube")
		giftConcurrency = fs.Int("gift-concurrency", 1,
			"gift processor concurrency. Set -1 to be the number of CPU cores")
		giftParallelization = fs.Bool("gift-parallelization", true,
			"gift processor parallelizes filters across CPU cores")
		giftQuality = fs.Int("gift-quality", 80,
			"gift processor default lossy encoding quality")
		giftMaxWidth = fs.Int("gift-max-width", 0,
			"gift processor max image width")
		giftMaxHeight = fs.Int("gift-max-height", 0,
			"gift processor max image height")
		giftMaxResolution = fs.Int("gift-max-resolution", 0,
			"gift processor max image resolution")

		logger, isDebug = cb()
	)
	return func(app *service.Service) {
		if *giftDisable {
			return
		}
		app.Processors = append(app.Processors,
			giftprocessor.NewProcessor(
				giftprocessor.WithDisableFilters(splitCSV(*giftDisableFilters)...),
				giftprocessor.WithConcurrency(*giftConcurrency),
				giftprocessor.WithParallelization(*giftParallelization),
				giftprocessor.WithQuality(*giftQuality),
				giftprocessor.WithMaxWidth(*giftMaxWidth),
				giftprocessor.WithMaxHeight(*giftMaxHeight),
				giftprocessor.WithMaxResolution(*giftMaxResolution),
				giftprocessor.WithLogger(logger),
				giftprocessor.WithDebug(isDebug),
			),
		)
	}
}
