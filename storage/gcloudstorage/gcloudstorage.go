// Package gcloudstorage stores images on Google Cloud Storage
package gcloudstorage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/cshum/filterkit"
	"github.com/cshum/filterkit/filterpath"
)

// GCloudStorage Google Cloud Storage implementing service.Storage
type GCloudStorage struct {
	Client *storage.Client
	Bucket string

	BaseDir    string
	PathPrefix string
	ACL        string
	SafeChars  string
	Expiration time.Duration

	shouldEscape func(c byte) bool
}

// New creates GCloudStorage
func New(client *storage.Client, bucket string, options ...Option) *GCloudStorage {
	s := &GCloudStorage{
		Client:     client,
		Bucket:     bucket,
		PathPrefix: "/",
	}
	for _, option := range options {
		option(s)
	}
	s.shouldEscape = filterpath.NewShouldEscape(s.SafeChars)
	return s
}

// Path maps key to its object name, false if key is outside PathPrefix.
// Object names carry no leading slash
func (s *GCloudStorage) Path(key string) (string, bool) {
	rel, ok := strings.CutPrefix("/"+filterpath.Normalize(key, s.shouldEscape), s.PathPrefix)
	if !ok {
		return "", false
	}
	return strings.Trim(path.Join(s.BaseDir, rel), "/"), true
}

func (s *GCloudStorage) object(key string) (*storage.ObjectHandle, error) {
	name, ok := s.Path(key)
	if !ok {
		return nil, filterkit.ErrInvalid
	}
	return s.Client.Bucket(s.Bucket).Object(name), nil
}

// Get implements service.Storage.
// Attributes are fetched eagerly, content lazily on read
func (s *GCloudStorage) Get(r *http.Request, key string) (*filterkit.Blob, error) {
	ctx := r.Context()
	obj, err := s.object(key)
	if err != nil {
		return nil, err
	}
	// the client may not honour a done ctx on its own
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	if s.expired(attrs.Updated) {
		return nil, filterkit.ErrExpired
	}
	// decompressive transcoding serves more bytes than attrs.Size
	size := attrs.Size
	if attrs.ContentEncoding == "gzip" {
		size = 0
	}
	blob := filterkit.NewBlob(func() (io.ReadCloser, int64, error) {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		reader, err := obj.NewReader(ctx)
		if err != nil {
			return nil, 0, notFound(err)
		}
		return reader, size, nil
	})
	if attrs.ContentType != "" {
		blob.SetContentType(attrs.ContentType)
	}
	blob.Stat = toStat(attrs)
	return blob, nil
}

// Put implements service.Storage
func (s *GCloudStorage) Put(ctx context.Context, key string, blob *filterkit.Blob) error {
	obj, err := s.object(key)
	if err != nil {
		return err
	}
	reader, _, err := blob.NewReader()
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()
	w := obj.NewWriter(ctx)
	w.ContentType = blob.ContentType()
	w.PredefinedACL = s.ACL
	_, err = io.Copy(w, reader)
	return errors.Join(err, w.Close())
}

// Delete implements service.Storage
func (s *GCloudStorage) Delete(ctx context.Context, key string) error {
	obj, err := s.object(key)
	if err != nil {
		return err
	}
	return notFound(obj.Delete(ctx))
}

// Stat implements service.Storage
func (s *GCloudStorage) Stat(ctx context.Context, key string) (*filterkit.Stat, error) {
	obj, err := s.object(key)
	if err != nil {
		return nil, err
	}
	// the client may not honour a done ctx on its own
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return toStat(attrs), nil
}

func (s *GCloudStorage) expired(updated time.Time) bool {
	return s.Expiration > 0 && time.Since(updated) > s.Expiration
}

func toStat(attrs *storage.ObjectAttrs) *filterkit.Stat {
	return &filterkit.Stat{
		Size:         attrs.Size,
		ETag:         attrs.Etag,
		ModifiedTime: attrs.Updated,
	}
}

// notFound maps missing objects and buckets to filterkit.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return filterkit.ErrNotFound
	}
	return err
}
