package filterpath

import (
	"crypto/sha1"
	"encoding/hex"
	"path"
	"strings"
)

// StorageHasher maps an image key to its storage key
type StorageHasher interface {
	Hash(image string) string
}

// ResultStorageHasher maps params to its result storage key
type ResultStorageHasher interface {
	HashResult(p Params) string
}

// StorageHasherFunc adapts a func to StorageHasher
type StorageHasherFunc func(image string) string

// Hash implements StorageHasher
func (fn StorageHasherFunc) Hash(image string) string {
	return fn(image)
}

// ResultStorageHasherFunc adapts a func to ResultStorageHasher
type ResultStorageHasherFunc func(p Params) string

// HashResult implements ResultStorageHasher
func (fn ResultStorageHasherFunc) HashResult(p Params) string {
	return fn(p)
}

var (
	// DigestStorageHasher keys images by sha1 digest, fanned out by the first two bytes
	DigestStorageHasher StorageHasher = StorageHasherFunc(digestPath)

	// DigestResultStorageHasher keys results by sha1 digest of the path
	DigestResultStorageHasher ResultStorageHasher = ResultStorageHasherFunc(func(p Params) string {
		return digestPath(resultPath(p))
	})

	// SuffixResultStorageHasher keys results next to the image path,
	// e.g. abc/def.{digest}.jpg, with the extension following format or meta
	SuffixResultStorageHasher ResultStorageHasher = ResultStorageHasherFunc(suffixPath)
)

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func digestPath(s string) string {
	h := sha1Hex(s)
	return path.Join(h[:2], h[2:4], h[4:])
}

func resultPath(p Params) string {
	if p.Path != "" {
		return p.Path
	}
	return GeneratePath(p)
}

func suffixPath(p Params) string {
	digest := "." + sha1Hex(resultPath(p))[:20]
	dot := strings.LastIndexByte(p.Image, '.')
	if dot < 0 || dot < strings.LastIndexByte(p.Image, '/') {
		// no extension
		return p.Image + digest
	}
	ext := p.Image[dot:]
	if p.Meta {
		ext = ".json"
	} else if format, _ := p.Filters.Get(FilterFormat); format != "" {
		ext = "." + format
	}
	return p.Image[:dot] + digest + ext
}
