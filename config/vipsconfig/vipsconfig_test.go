package vipsconfig

import (
	"testing"

	"github.com/cshum/filterkit/config"
	"github.com/cshum/filterkit/processor/giftprocessor"
	"github.com/cshum/filterkit/processor/vipsprocessor"
	"github.com/cshum/filterkit/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithVips(t *testing.T) {
	srv := config.CreateServer([]string{
		"-vips-concurrency", "2",
		"-vips-max-width", "1000",
		"-vips-disable-filters", "CICrop, CIUnsharpMask",
	}, WithVips)
	app := srv.App.(*service.Service)
	require.Len(t, app.Processors, 2)
	processor := app.Processors[0].(*vipsprocessor.Processor)
	assert.Equal(t, 2, processor.Concurrency)
	assert.Equal(t, 1000, processor.MaxWidth)
	assert.Equal(t, []string{"CICrop", "CIUnsharpMask"}, processor.DisableFilters)
	assert.IsType(t, &giftprocessor.Processor{}, app.Processors[1])
}
