package httploader

import (
	"crypto/tls"
	"net"
	"net/http"
)

// Option HTTPLoader option
type Option func(h *HTTPLoader)

// WithTransport with custom round tripper
func WithTransport(transport http.RoundTripper) Option {
	return func(h *HTTPLoader) {
		if transport != nil {
			h.Transport = transport
		}
	}
}

// WithInsecureSkipVerifyTransport skips TLS certificate verification
func WithInsecureSkipVerifyTransport(enable bool) Option {
	return func(h *HTTPLoader) {
		if enable {
			transport := http.DefaultTransport.(*http.Transport).Clone()
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
			h.Transport = transport
		}
	}
}

// WithProxyTransport routes requests to hosts through a random proxy of proxyURLs,
// hosts in csv glob patterns, all hosts if empty
func WithProxyTransport(proxyURLs, hosts string) Option {
	return func(h *HTTPLoader) {
		if proxyURLs == "" {
			return
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if t, ok := h.Transport.(*http.Transport); ok {
			transport = t.Clone()
		}
		transport.Proxy = randomProxyFunc(proxyURLs, hosts)
		h.Transport = transport
	}
}

// WithForwardHeaders forwards request headers to the origin
func WithForwardHeaders(headers ...string) Option {
	return func(h *HTTPLoader) {
		h.ForwardHeaders = append(h.ForwardHeaders, splitCSV(headers...)...)
	}
}

// WithForwardClientHeaders forwards all request headers
func WithForwardClientHeaders(enabled bool) Option {
	return func(h *HTTPLoader) {
		if enabled {
			h.ForwardHeaders = append(h.ForwardHeaders, "*")
		}
	}
}

// WithOverrideHeader sets header on every origin request
func WithOverrideHeader(name, value string) Option {
	return func(h *HTTPLoader) {
		h.OverrideHeaders[name] = value
	}
}

// WithAllowedSources host names allowed to load from, in csv and glob patterns
func WithAllowedSources(hosts ...string) Option {
	return func(h *HTTPLoader) {
		h.AllowedSources = append(h.AllowedSources, splitCSV(hosts...)...)
	}
}

// WithAccept content types accepted from the origin, in csv and glob patterns
func WithAccept(contentTypes string) Option {
	return func(h *HTTPLoader) {
		for _, v := range splitCSV(contentTypes) {
			if v = parseContentType(v); v != "*/*" {
				h.Accept = append(h.Accept, v)
			}
		}
	}
}

// WithMaxAllowedSize maximum response size in bytes
func WithMaxAllowedSize(maxAllowedSize int) Option {
	return func(h *HTTPLoader) {
		if maxAllowedSize > 0 {
			h.MaxAllowedSize = maxAllowedSize
		}
	}
}

// WithDefaultScheme scheme for keys without one, "nil" to require a scheme
func WithDefaultScheme(scheme string) Option {
	return func(h *HTTPLoader) {
		if scheme != "" {
			h.DefaultScheme = scheme
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(h *HTTPLoader) {
		if userAgent != "" {
			h.UserAgent = userAgent
		}
	}
}

// WithBlockLoopbackNetworks rejects origins resolving to loopback addresses
func WithBlockLoopbackNetworks(enabled bool) Option {
	return func(h *HTTPLoader) {
		h.guard.Loopback = enabled
	}
}

// WithBlockPrivateNetworks rejects origins resolving to private network addresses
func WithBlockPrivateNetworks(enabled bool) Option {
	return func(h *HTTPLoader) {
		h.guard.Private = enabled
	}
}

// WithBlockLinkLocalNetworks rejects origins resolving to link local addresses
func WithBlockLinkLocalNetworks(enabled bool) Option {
	return func(h *HTTPLoader) {
		h.guard.LinkLocal = enabled
	}
}

// WithBlockNetworks rejects origins resolving to addresses of networks
func WithBlockNetworks(networks ...*net.IPNet) Option {
	return func(h *HTTPLoader) {
		h.guard.Networks = append(h.guard.Networks, networks...)
	}
}
