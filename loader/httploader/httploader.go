// Package httploader loads source images over HTTP
package httploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cshum/filterkit"
)

// HTTPLoader loads images from http and https URLs.
// Keys without a scheme get DefaultScheme
type HTTPLoader struct {
	// Transport of origin requests, http.DefaultTransport if nil
	Transport http.RoundTripper

	// ForwardHeaders client request headers passed on to the origin, * forwards all
	ForwardHeaders []string

	OverrideHeaders map[string]string

	// AllowedSources host glob patterns e.g. *.example.com, any host if empty
	AllowedSources []string

	// Accept content type glob patterns e.g. image/*, any type if empty
	Accept []string

	// MaxAllowedSize caps the response body in bytes if positive
	MaxAllowedSize int

	DefaultScheme string
	UserAgent     string

	guard networkGuard
}

// New creates HTTPLoader
func New(options ...Option) *HTTPLoader {
	h := &HTTPLoader{
		OverrideHeaders: map[string]string{},
		DefaultScheme:   "https",
		UserAgent:       "filterkit/" + filterkit.Version,
	}
	for _, option := range options {
		option(h)
	}
	if s := strings.ToLower(h.DefaultScheme); s == "nil" {
		h.DefaultScheme = ""
	}
	if h.guard.enabled() {
		h.Transport = h.guard.transport(h.Transport)
	}
	return h
}

// Get implements service.Loader
func (h *HTTPLoader) Get(r *http.Request, key string) (*filterkit.Blob, error) {
	if key == "" {
		return nil, filterkit.ErrPass
	}
	u, err := h.parseURL(key)
	if err != nil {
		return nil, filterkit.ErrPass
	}
	if !isURLAllowed(u, h.AllowedSources) {
		return nil, filterkit.ErrPass
	}
	client := &http.Client{Transport: h.Transport}
	if h.MaxAllowedSize > 0 {
		if err := h.checkSize(r.Context(), client, r, u.String()); err != nil {
			return nil, err
		}
	}
	req, err := h.newRequest(r.Context(), r, http.MethodGet, u.String())
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, wrapRequestErr(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, filterkit.NewErrorFromStatusCode(resp.StatusCode)
	}
	if !validateContentType(resp.Header.Get("Content-Type"), h.Accept) {
		return nil, fmt.Errorf("%w: %s", filterkit.ErrUnsupportedFormat, resp.Header.Get("Content-Type"))
	}
	buf, err := h.readBody(resp.Body)
	if err != nil {
		return nil, err
	}
	blob := filterkit.NewBlobFromBytes(buf)
	if ct := parseContentType(resp.Header.Get("Content-Type")); ct != "" && blob.BlobType() == filterkit.BlobTypeUnknown {
		blob.SetContentType(ct)
	}
	return blob, nil
}

// readBody reads the response, failing past MaxAllowedSize
// for responses without a trustworthy content length
func (h *HTTPLoader) readBody(body io.Reader) ([]byte, error) {
	if h.MaxAllowedSize > 0 {
		body = io.LimitReader(body, int64(h.MaxAllowedSize)+1)
	}
	buf, err := io.ReadAll(body)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return nil, filterkit.ErrTimeout
	case err != nil:
		return nil, err
	case h.MaxAllowedSize > 0 && len(buf) > h.MaxAllowedSize:
		return nil, filterkit.ErrMaxSizeExceeded
	}
	return buf, nil
}

// checkSize rejects origins announcing a content length over MaxAllowedSize
func (h *HTTPLoader) checkSize(ctx context.Context, client *http.Client, r *http.Request, target string) error {
	req, err := h.newRequest(ctx, r, http.MethodHead, target)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return wrapRequestErr(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 400 {
		return filterkit.NewErrorFromStatusCode(resp.StatusCode)
	}
	contentLength, _ := strconv.Atoi(resp.Header.Get("Content-Length"))
	if contentLength > h.MaxAllowedSize {
		return filterkit.ErrMaxSizeExceeded
	}
	return nil
}

func (h *HTTPLoader) parseURL(key string) (*url.URL, error) {
	if !strings.Contains(key, "://") {
		if h.DefaultScheme == "" {
			return nil, filterkit.ErrPass
		}
		key = h.DefaultScheme + "://" + key
	}
	u, err := url.Parse(key)
	if err != nil {
		return nil, err
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, filterkit.ErrPass
	}
	return u, nil
}

func (h *HTTPLoader) newRequest(ctx context.Context, r *http.Request, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", h.UserAgent)
	if len(h.Accept) > 0 {
		req.Header.Set("Accept", strings.Join(h.Accept, ","))
	}
	for _, header := range h.ForwardHeaders {
		if header == "*" {
			for key := range r.Header {
				req.Header.Set(key, r.Header.Get(key))
			}
			break
		}
		if _, ok := r.Header[http.CanonicalHeaderKey(header)]; ok {
			req.Header.Set(header, r.Header.Get(header))
		}
	}
	for key, value := range h.OverrideHeaders {
		req.Header.Set(key, value)
	}
	return req, nil
}

func wrapRequestErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return filterkit.ErrTimeout
	}
	if errors.Is(err, ErrUnauthorizedNetwork) {
		return ErrUnauthorizedNetwork
	}
	return err
}
