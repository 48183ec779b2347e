package filterpath

// Filters a slice of Filter
type Filters []Filter

// Params filter endpoint parameters
type Params struct {
	Params      bool    `json:"-"`
	Path        string  `json:"path,omitempty"`
	Image       string  `json:"image,omitempty"`
	Base64Image bool    `json:"base64_image,omitempty"`
	Unsafe      bool    `json:"unsafe,omitempty"`
	Hash        string  `json:"hash,omitempty"`
	Meta        bool    `json:"meta,omitempty"`
	Filters     Filters `json:"filters,omitempty"`
}

// Filter filter endpoint filter
type Filter struct {
	Name string `json:"name,omitempty"`
	Args string `json:"args,omitempty"`
}

// Pseudo filters consumed by the service rather than applied to the image
const (
	FilterFormat  = "format"
	FilterQuality = "quality"
)

// Get returns args of the last filter with name
func (f Filters) Get(name string) (string, bool) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i].Name == name {
			return f[i].Args, true
		}
	}
	return "", false
}
