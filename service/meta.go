package service

import (
	"encoding/json"

	"github.com/cshum/filterkit"
	"github.com/cshum/filterkit/filterpath"
)

// Meta output image metadata, served for meta/ requests
type Meta struct {
	Processor string   `json:"processor"`
	Format    string   `json:"format,omitempty"`
	Quality   int      `json:"quality,omitempty"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	Filters   []string `json:"filters,omitempty"`
}

func newMeta(
	processor Processor, img filterkit.Image, p filterpath.Params, options filterkit.EncodeOptions,
) *Meta {
	extent := img.Extent()
	meta := &Meta{
		Processor: getType(processor),
		Format:    options.Format,
		Quality:   options.Quality,
		Width:     int(extent.Width),
		Height:    int(extent.Height),
	}
	for _, f := range p.Filters {
		if f.Name != filterpath.FilterFormat && f.Name != filterpath.FilterQuality {
			meta.Filters = append(meta.Filters, f.Name)
		}
	}
	return meta
}

// Blob returns the JSON blob of meta
func (m *Meta) Blob() (*filterkit.Blob, error) {
	buf, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	blob := filterkit.NewBlobFromBytes(buf)
	blob.SetContentType("application/json")
	return blob, nil
}
