package httploader

import (
	"math/rand/v2"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// splitCSV splits comma separated values, dropping blanks
func splitCSV(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// matchAny reports whether s matches any of the glob patterns
func matchAny(patterns []string, s string) bool {
	for _, pattern := range patterns {
		if ok, err := path.Match(pattern, s); ok && err == nil {
			return true
		}
	}
	return false
}

// randomProxyFunc picks a random proxy of csv proxyURLs
// for requests to hosts of csv glob patterns, all hosts if empty
func randomProxyFunc(proxyURLs, hosts string) func(*http.Request) (*url.URL, error) {
	var proxies []*url.URL
	for _, raw := range splitCSV(proxyURLs) {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			proxies = append(proxies, u)
		}
	}
	allowed := splitCSV(hosts)
	return func(r *http.Request) (*url.URL, error) {
		if len(proxies) == 0 || !isURLAllowed(r.URL, allowed) {
			return nil, nil
		}
		return proxies[rand.IntN(len(proxies))], nil
	}
}

func isURLAllowed(u *url.URL, allowedSources []string) bool {
	return len(allowedSources) == 0 || matchAny(allowedSources, u.Host)
}

// parseContentType returns the lower cased media type without parameters
func parseContentType(contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func validateContentType(contentType string, accepts []string) bool {
	return len(accepts) == 0 || matchAny(accepts, parseContentType(contentType))
}
