package filterpath

import (
	"encoding/base64"
	"net/url"
	"strings"
)

// GeneratePath builds the filter path of p, without signature
func GeneratePath(p Params) string {
	var b strings.Builder
	if p.Meta {
		b.WriteString("meta/")
	}
	for i, f := range p.Filters {
		if i == 0 {
			b.WriteString("filters")
		}
		b.WriteByte(':')
		b.WriteString(f.Name)
		b.WriteByte('(')
		b.WriteString(f.Args)
		b.WriteByte(')')
	}
	if len(p.Filters) > 0 {
		b.WriteByte('/')
	}
	b.WriteString(imageSegment(p))
	return b.String()
}

// imageSegment escapes image where it would otherwise be parsed ambiguously
func imageSegment(p Params) string {
	switch {
	case p.Base64Image:
		return "b64:" + base64.RawURLEncoding.EncodeToString([]byte(p.Image))
	case strings.ContainsAny(p.Image, "?#"), strings.HasPrefix(p.Image, "filters:"):
		return url.QueryEscape(p.Image)
	}
	return p.Image
}

// GenerateUnsafe builds the unsafe/ prefixed endpoint of p
func GenerateUnsafe(p Params) string {
	return Generate(p, nil)
}

// Generate builds the endpoint of p signed by signer, or unsafe if signer is nil
func Generate(p Params, signer Signer) string {
	path := GeneratePath(p)
	if signer == nil {
		return "unsafe/" + path
	}
	return signer.Sign(path) + "/" + path
}
