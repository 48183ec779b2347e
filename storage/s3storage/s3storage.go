// Package s3storage stores images on AWS S3 and S3 compatible services
package s3storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/cshum/filterkit"
	"github.com/cshum/filterkit/filterpath"
)

// S3Storage AWS S3 storage implementing service.Storage
type S3Storage struct {
	Client *s3.Client
	Bucket string

	BaseDir        string
	PathPrefix     string
	ACL            string
	SafeChars      string
	StorageClass   string
	Endpoint       string
	ForcePathStyle bool
	Expiration     time.Duration
	BucketRouter   BucketRouter

	shouldEscape func(c byte) bool
}

// New creates S3Storage, bucket may carry a base dir e.g. mybucket/path/to/dir
func New(cfg aws.Config, bucket string, options ...Option) *S3Storage {
	baseDir := "/"
	if idx := strings.Index(bucket, "/"); idx > -1 {
		baseDir = bucket[idx:]
		bucket = bucket[:idx]
	}
	s := &S3Storage{
		Bucket:       bucket,
		BaseDir:      baseDir,
		PathPrefix:   "/",
		ACL:          string(types.ObjectCannedACLPublicRead),
		StorageClass: string(types.StorageClassStandard),
	}
	for _, option := range options {
		option(s)
	}
	// https://docs.aws.amazon.com/AmazonS3/latest/userguide/object-keys.html#object-key-guidelines-safe-characters
	if s.SafeChars == filterpath.NoEscapeChars {
		s.shouldEscape = filterpath.NewShouldEscape(s.SafeChars)
	} else {
		s.shouldEscape = filterpath.NewShouldEscape("!\"()*" + s.SafeChars)
	}
	s.Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
		}
		o.UsePathStyle = s.ForcePathStyle
	})
	return s
}

// Path transforms and validates key for storage path
func (s *S3Storage) Path(key string) (string, bool) {
	key = "/" + filterpath.Normalize(key, s.shouldEscape)
	if !strings.HasPrefix(key, s.PathPrefix) {
		return "", false
	}
	return filepath.Join(s.BaseDir, strings.TrimPrefix(key, s.PathPrefix)), true
}

func (s *S3Storage) bucketFor(key string) string {
	if s.BucketRouter != nil {
		if bucket := s.BucketRouter.BucketFor(key); bucket != "" {
			return bucket
		}
	}
	return s.Bucket
}

// Get implements service.Storage
func (s *S3Storage) Get(r *http.Request, key string) (*filterkit.Blob, error) {
	ctx := r.Context()
	path, ok := s.Path(key)
	if !ok {
		return nil, filterkit.ErrInvalid
	}
	bucket := s.bucketFor(key)
	var blob *filterkit.Blob
	var once sync.Once
	blob = filterkit.NewBlob(func() (io.ReadCloser, int64, error) {
		out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(path),
		})
		if err != nil {
			return nil, 0, wrapErr(err)
		}
		once.Do(func() {
			if ct := aws.ToString(out.ContentType); ct != "" {
				blob.SetContentType(ct)
			}
			blob.Stat = &filterkit.Stat{
				Size:         aws.ToInt64(out.ContentLength),
				ETag:         aws.ToString(out.ETag),
				ModifiedTime: aws.ToTime(out.LastModified),
			}
		})
		if s.Expiration > 0 && out.LastModified != nil {
			if time.Since(*out.LastModified) > s.Expiration {
				_ = out.Body.Close()
				return nil, 0, filterkit.ErrExpired
			}
		}
		return out.Body, aws.ToInt64(out.ContentLength), nil
	})
	return blob, nil
}

// Put implements service.Storage
func (s *S3Storage) Put(ctx context.Context, key string, blob *filterkit.Blob) error {
	path, ok := s.Path(key)
	if !ok {
		return filterkit.ErrInvalid
	}
	// payload signing needs a seekable body
	buf, err := blob.ReadAll()
	if err != nil {
		return err
	}
	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		ACL:           types.ObjectCannedACL(s.ACL),
		Body:          bytes.NewReader(buf),
		Bucket:        aws.String(s.bucketFor(key)),
		ContentType:   aws.String(blob.ContentType()),
		ContentLength: aws.Int64(int64(len(buf))),
		Key:           aws.String(path),
		StorageClass:  types.StorageClass(s.StorageClass),
	})
	return err
}

// Delete implements service.Storage
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	path, ok := s.Path(key)
	if !ok {
		return filterkit.ErrInvalid
	}
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketFor(key)),
		Key:    aws.String(path),
	})
	return wrapErr(err)
}

// Stat implements service.Storage
func (s *S3Storage) Stat(ctx context.Context, key string) (*filterkit.Stat, error) {
	path, ok := s.Path(key)
	if !ok {
		return nil, filterkit.ErrInvalid
	}
	head, err := s.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketFor(key)),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return &filterkit.Stat{
		Size:         aws.ToInt64(head.ContentLength),
		ETag:         aws.ToString(head.ETag),
		ModifiedTime: aws.ToTime(head.LastModified),
	}, nil
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return filterkit.ErrNotFound
		}
	}
	return err
}
