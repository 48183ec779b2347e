// Package filestorage stores images on the local file system
package filestorage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/cshum/filterkit"
	"github.com/cshum/filterkit/filterpath"
)

// dot files and dirs e.g. .git are never served
var dotFileRegex = regexp.MustCompile(`/\.`)

// FileStorage file system storage rooted at BaseDir
type FileStorage struct {
	BaseDir         string
	PathPrefix      string
	Blacklists      []*regexp.Regexp
	MkdirPermission os.FileMode
	WritePermission os.FileMode
	SaveErrIfExists bool
	SafeChars       string
	Expiration      time.Duration

	shouldEscape func(c byte) bool
}

// New creates FileStorage
func New(baseDir string, options ...Option) *FileStorage {
	s := &FileStorage{
		BaseDir:         baseDir,
		PathPrefix:      "/",
		Blacklists:      []*regexp.Regexp{dotFileRegex},
		MkdirPermission: 0755,
		WritePermission: 0666,
	}
	for _, option := range options {
		option(s)
	}
	s.shouldEscape = filterpath.NewShouldEscape(s.SafeChars)
	return s
}

// Path returns the file path of key, false if key is blacklisted or outside PathPrefix
func (s *FileStorage) Path(key string) (string, bool) {
	key = "/" + filterpath.Normalize(key, s.shouldEscape)
	if slices.ContainsFunc(s.Blacklists, func(re *regexp.Regexp) bool {
		return re.MatchString(key)
	}) {
		return "", false
	}
	rel, ok := strings.CutPrefix(key, s.PathPrefix)
	if !ok {
		return "", false
	}
	return filepath.Join(s.BaseDir, rel), true
}

func (s *FileStorage) checkAge(info os.FileInfo) error {
	if s.Expiration > 0 && time.Since(info.ModTime()) > s.Expiration {
		return filterkit.ErrExpired
	}
	return nil
}

// Get implements service.Storage. Missing files surface on read
func (s *FileStorage) Get(_ *http.Request, key string) (*filterkit.Blob, error) {
	path, ok := s.Path(key)
	if !ok {
		return nil, filterkit.ErrPass
	}
	return filterkit.NewBlobFromFile(path, s.checkAge), nil
}

// Put implements service.Storage
func (s *FileStorage) Put(_ context.Context, key string, blob *filterkit.Blob) error {
	path, ok := s.Path(key)
	if !ok {
		return filterkit.ErrPass
	}
	if err := os.MkdirAll(filepath.Dir(path), s.MkdirPermission); err != nil {
		return err
	}
	reader, _, err := blob.NewReader()
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()
	mode := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if s.SaveErrIfExists {
		mode = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, mode, s.WritePermission)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, reader)
	return errors.Join(err, f.Close())
}

// Delete implements service.Storage, deleting a missing file is no error
func (s *FileStorage) Delete(_ context.Context, key string) error {
	path, ok := s.Path(key)
	if !ok {
		return filterkit.ErrPass
	}
	if err := os.Remove(path); !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Stat implements service.Storage
func (s *FileStorage) Stat(_ context.Context, key string) (*filterkit.Stat, error) {
	path, ok := s.Path(key)
	if !ok {
		return nil, filterkit.ErrPass
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, filterkit.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	if err := s.checkAge(info); err != nil {
		return nil, err
	}
	return &filterkit.Stat{Size: info.Size(), ModifiedTime: info.ModTime()}, nil
}
