package awsconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTempYAML(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "buckets.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func TestLoadBucketRouterFromYAML(t *testing.T) {
	t.Run("rules and default bucket", func(t *testing.T) {
		router, err := LoadBucketRouterFromYAML(createTempYAML(t, `
default_bucket: images
rules:
  - prefix: /users/
    bucket: users-bucket
  - prefix: users/avatars/
    bucket: avatars-bucket
  - prefix: products
    bucket: products-bucket
`))
		require.NoError(t, err)
		assert.Equal(t, "images", router.Fallback())
		assert.Equal(t, "users-bucket", router.BucketFor("users/123.jpg"))
		assert.Equal(t, "avatars-bucket", router.BucketFor("/users/avatars/1.png"))
		assert.Equal(t, "products-bucket", router.BucketFor("products/a/b.jpg"))
		assert.Equal(t, "images", router.BucketFor("others/x.jpg"))
	})

	t.Run("no rules", func(t *testing.T) {
		router, err := LoadBucketRouterFromYAML(createTempYAML(t, "default_bucket: my-fallback\n"))
		require.NoError(t, err)
		assert.Equal(t, "my-fallback", router.Fallback())
		assert.Equal(t, "my-fallback", router.BucketFor("a.jpg"))
	})

	t.Run("incomplete rule", func(t *testing.T) {
		_, err := LoadBucketRouterFromYAML(createTempYAML(t, `
rules:
  - prefix: users
`))
		assert.Error(t, err)
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := LoadBucketRouterFromYAML("/nonexistent/path.yaml")
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := LoadBucketRouterFromYAML(createTempYAML(t, "invalid: yaml: content: ["))
		assert.Error(t, err)
	})
}
