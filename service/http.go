package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cshum/filterkit"
	"github.com/cshum/filterkit/filterpath"
)

// ServeHTTP implements http.Handler for Service operations
func (app *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
	default:
		app.writeError(w, filterkit.ErrMethodNotAllowed)
		return
	}
	path := r.URL.EscapedPath()
	if path == "" || path == "/" {
		app.serveIndex(w, r)
		return
	}
	p := filterpath.Apply(app.baseParams, path)
	if p.Params {
		if !app.DisableParamsEndpoint {
			buf, _ := json.MarshalIndent(p, "", "  ")
			writeJSON(w, http.StatusOK, buf)
		}
		return
	}
	blob, err := app.Do(r, p)
	if err == nil && blob != nil {
		err = blob.Err()
	}
	switch {
	case errors.Is(err, context.Canceled):
		// client gone
		return
	case err != nil:
		app.writeError(w, err)
		return
	case filterkit.IsBlobEmpty(blob):
		return
	}
	reader, size, err := blob.NewReader()
	if err != nil {
		app.writeError(w, err)
		return
	}
	app.writeBody(w, r, blob.ContentType(), reader, size)
}

func (app *Service) serveIndex(w http.ResponseWriter, r *http.Request) {
	if app.BasePathRedirect != "" {
		http.Redirect(w, r, app.BasePathRedirect, http.StatusTemporaryRedirect)
		return
	}
	buf, _ := json.Marshal(map[string]any{
		"filterkit": map[string]string{"version": filterkit.Version},
	})
	writeJSON(w, http.StatusOK, buf)
}

func (app *Service) writeError(w http.ResponseWriter, err error) {
	e := filterkit.WrapError(err)
	if app.DisableErrorBody {
		w.WriteHeader(e.Code)
		return
	}
	buf, _ := json.Marshal(e)
	writeJSON(w, e.Code, buf)
}

func writeJSON(w http.ResponseWriter, status int, buf []byte) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Content-Length", strconv.Itoa(len(buf)))
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// writeBody writes reader with cache headers, buffering it first if size is unknown.
// HEAD requests get headers only
func (app *Service) writeBody(
	w http.ResponseWriter, r *http.Request, contentType string, reader io.ReadCloser, size int64,
) {
	defer func() {
		_ = reader.Close()
	}()
	var body io.Reader = reader
	if size <= 0 {
		buf, err := io.ReadAll(reader)
		if err != nil {
			app.writeError(w, err)
			return
		}
		size = int64(len(buf))
		body = bytes.NewReader(buf)
	}
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.FormatInt(size, 10))
	setCacheHeaders(h, app.CacheHeaderTTL, app.CacheHeaderSWR)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = io.Copy(w, body)
	}
}

func setCacheHeaders(h http.Header, ttl, swr time.Duration) {
	h.Set("Cache-Control", getCacheControl(ttl, swr))
	h.Set("Expires", time.Now().Add(ttl).UTC().Format(http.TimeFormat))
}

func getCacheControl(ttl, swr time.Duration) string {
	if ttl <= 0 {
		return "private, no-cache, no-store, must-revalidate"
	}
	sec := int64(ttl / time.Second)
	var b strings.Builder
	fmt.Fprintf(&b, "public, s-maxage=%d, max-age=%d, no-transform", sec, sec)
	if swr > 0 && swr < ttl {
		fmt.Fprintf(&b, ", stale-while-revalidate=%d", int64(swr/time.Second))
	}
	return b.String()
}
