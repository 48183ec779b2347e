package filterpath

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"
)

// pathPattern matches [params/][unsafe/|{hash}/]{path}
var pathPattern = regexp.MustCompile(
	`(?s)^/*(params/)?(?:(unsafe/)|([A-Za-z0-9\-_=]{8,})/)?(.*)`,
)

var lineBreaks = strings.NewReplacer(
	"\r\n", "", "\r", "", "\n", "", "\v", "", "\f", "",
	"\u0085", "", "\u2028", "", "\u2029", "",
)

// Parse parses a filter endpoint path into Params
func Parse(path string) Params {
	return Apply(Params{}, path)
}

// Apply parses a filter endpoint path on top of base Params,
// filters of path are appended after those of base
func Apply(p Params, path string) Params {
	m := pathPattern.FindStringSubmatch(lineBreaks.Replace(path))
	if m == nil {
		return p
	}
	if m[1] != "" {
		p.Params = true
	}
	if m[2] != "" {
		p.Unsafe = true
	} else if len(m[3]) > 8 {
		p.Hash = m[3]
	}
	p.Path = m[4]

	rest := strings.TrimLeft(p.Path, "/")
	if after, ok := strings.CutPrefix(rest, "meta/"); ok {
		p.Meta = true
		rest = after
	}
	if rest == "" {
		return p
	}
	filters, image := splitFilters(rest)
	p.Filters = append(p.Filters, filters...)
	if image != "" {
		var b64 bool
		p.Image, b64 = decodeImage(image)
		if b64 {
			p.Base64Image = true
		}
	}
	return p
}

// decodeImage resolves b64: prefixed base64url images, RFC 4648 section 5
// without padding, then query unescapes
func decodeImage(image string) (string, bool) {
	var b64 bool
	if enc, ok := strings.CutPrefix(image, "b64:"); ok {
		if dec, err := base64.RawURLEncoding.DecodeString(enc); err == nil {
			image, b64 = string(dec), true
		}
	}
	if u, err := url.QueryUnescape(image); err == nil {
		image = u
	}
	return image, b64
}

// splitFilters splits filters:a(x):b(y)/image into filters and image.
// Separators nested in parentheses belong to args
func splitFilters(s string) (Filters, string) {
	rest, ok := strings.CutPrefix(s, "filters:")
	if !ok {
		return nil, s
	}
	var (
		filters Filters
		cur     Filter
		buf     strings.Builder
		depth   int
	)
	flush := func() {
		if cur.Name == "" {
			cur.Name = buf.String()
		}
		if cur.Name != "" {
			filters = append(filters, cur)
		}
		cur = Filter{}
		buf.Reset()
	}
	for i, ch := range rest {
		switch {
		case ch == '(':
			if depth == 0 {
				cur.Name = buf.String()
				buf.Reset()
			} else {
				buf.WriteRune(ch)
			}
			depth++
		case ch == ')' && depth == 1:
			depth--
			cur.Args = buf.String()
			buf.Reset()
		case ch == ')':
			depth--
			buf.WriteRune(ch)
		case depth == 0 && ch == ':':
			flush()
		case depth == 0 && ch == '/':
			flush()
			return filters, rest[i+1:]
		default:
			buf.WriteRune(ch)
		}
	}
	flush()
	return filters, ""
}

// SplitArgs splits filter args by comma, respecting nested parentheses
func SplitArgs(args string) []string {
	if strings.TrimSpace(args) == "" {
		return nil
	}
	var (
		out          []string
		depth, start int
	)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(args[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(args[start:]))
}
