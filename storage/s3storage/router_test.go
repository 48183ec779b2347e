package s3storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixRouter(t *testing.T) {
	nested := []PrefixRule{
		{Prefix: "media/", Bucket: "media-bucket"},
		{Prefix: "media/images/thumbnails/", Bucket: "thumbnails-bucket"},
		{Prefix: "media/images/", Bucket: "images-bucket"},
	}
	tests := []struct {
		name   string
		rules  []PrefixRule
		key    string
		bucket string
	}{
		{name: "no rules", key: "users/1.jpg", bucket: "default"},
		{name: "match", rules: []PrefixRule{{"users/", "users"}, {"products/", "products"}}, key: "users/1.jpg", bucket: "users"},
		{name: "no match", rules: []PrefixRule{{"users/", "users"}}, key: "other/1.jpg", bucket: "default"},
		{name: "longest wins", rules: []PrefixRule{{"users/", "users"}, {"users/vip/", "vip"}}, key: "users/vip/1.jpg", bucket: "vip"},
		{name: "leading slashes", rules: []PrefixRule{{"users/", "users"}}, key: "///users/1.jpg", bucket: "users"},
		{name: "nested", rules: nested, key: "media/images/thumbnails/1.jpg", bucket: "thumbnails-bucket"},
		{name: "nested middle", rules: nested, key: "media/images/1.jpg", bucket: "images-bucket"},
		{name: "empty key", rules: []PrefixRule{{"users/", "users"}}, key: "", bucket: "default"},
		{name: "key equals prefix", rules: []PrefixRule{{"users/", "users"}}, key: "users/", bucket: "users"},
		{name: "prefix without slash", rules: []PrefixRule{{"user", "user"}}, key: "users/1.jpg", bucket: "user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.bucket, NewPrefixRouter(tt.rules, "default").BucketFor(tt.key))
		})
	}
}

func TestPrefixRouterDoesNotMutateInput(t *testing.T) {
	rules := []PrefixRule{{Prefix: "b/", Bucket: "bucket-b"}, {Prefix: "aaa/", Bucket: "bucket-a"}}
	router := NewPrefixRouter(rules, "fallback")
	assert.Equal(t, "b/", rules[0].Prefix)
	assert.Equal(t, "fallback", router.Fallback())
}

func TestParsePrefixRules(t *testing.T) {
	assert.Equal(t, []PrefixRule{
		{Prefix: "users/", Bucket: "users-bucket"},
		{Prefix: "media", Bucket: "media-bucket"},
	}, ParsePrefixRules(" /users/=users-bucket, media = media-bucket,broken,=x,y="))
	assert.Empty(t, ParsePrefixRules(""))
}
