package filterpath

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"hash"
	"strings"
)

// Signer signs filter paths
type Signer interface {
	Sign(path string) string
}

// SignerFunc adapts a func to Signer
type SignerFunc func(path string) string

// Sign implements Signer
func (fn SignerFunc) Sign(path string) string {
	return fn(path)
}

var signerAlgs = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// NewDefaultSigner signs with HMAC-SHA1 of secret
func NewDefaultSigner(secret string) Signer {
	return NewHMACSigner(sha1.New, 0, secret)
}

// NewSignerFromType signs with HMAC of sha1, sha256 or sha512 by name,
// unknown names fall back to sha1
func NewSignerFromType(signerType string, truncate int, secret string) Signer {
	alg, ok := signerAlgs[strings.ToLower(signerType)]
	if !ok {
		alg = sha1.New
	}
	return NewHMACSigner(alg, truncate, secret)
}

// NewHMACSigner signs with HMAC of alg, as URL safe base64
// truncated to truncate chars if positive
func NewHMACSigner(alg func() hash.Hash, truncate int, secret string) Signer {
	key := []byte(secret)
	return SignerFunc(func(path string) string {
		mac := hmac.New(alg, key)
		_, _ = mac.Write([]byte(path))
		sig := base64.URLEncoding.EncodeToString(mac.Sum(nil))
		if truncate > 0 && truncate < len(sig) {
			sig = sig[:truncate]
		}
		return sig
	})
}
