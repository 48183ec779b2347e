package filterpath

import (
	"crypto/sha256"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGenerate(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		params Params
		secret string
	}{
		{
			name: "image only",
			uri:  "unsafe/gopher.png",
			params: Params{
				Path:   "gopher.png",
				Image:  "gopher.png",
				Unsafe: true,
			},
		},
		{
			name: "filters",
			uri:  "unsafe/filters:sepia_tone(0.8):crop(0,0,100,50)/gopher.png",
			params: Params{
				Path:   "filters:sepia_tone(0.8):crop(0,0,100,50)/gopher.png",
				Image:  "gopher.png",
				Unsafe: true,
				Filters: Filters{
					{Name: "sepia_tone", Args: "0.8"},
					{Name: "crop", Args: "0,0,100,50"},
				},
			},
		},
		{
			name: "empty args and url image",
			uri:  "unsafe/meta/filters:color_invert():photo_effect_noir()/s.glbimg.com/es/ge/f/original/2011/03/29/orlandosilva_60.jpg",
			params: Params{
				Path:   "meta/filters:color_invert():photo_effect_noir()/s.glbimg.com/es/ge/f/original/2011/03/29/orlandosilva_60.jpg",
				Image:  "s.glbimg.com/es/ge/f/original/2011/03/29/orlandosilva_60.jpg",
				Unsafe: true,
				Meta:   true,
				Filters: Filters{
					{Name: "color_invert"},
					{Name: "photo_effect_noir"},
				},
			},
		},
		{
			name: "nested args",
			uri:  "unsafe/filters:color_map(gradients/rainbow.png):format(webp):quality(80)/abc/def.jpg",
			params: Params{
				Path:   "filters:color_map(gradients/rainbow.png):format(webp):quality(80)/abc/def.jpg",
				Image:  "abc/def.jpg",
				Unsafe: true,
				Filters: Filters{
					{Name: "color_map", Args: "gradients/rainbow.png"},
					{Name: "format", Args: "webp"},
					{Name: "quality", Args: "80"},
				},
			},
		},
		{
			name: "signed",
			uri:  "0b1NC4HgEPF9q1xTZSQzgjdokec=/filters:color_invert()/gopher.png",
			params: Params{
				Path:    "filters:color_invert()/gopher.png",
				Image:   "gopher.png",
				Hash:    "0b1NC4HgEPF9q1xTZSQzgjdokec=",
				Filters: Filters{{Name: "color_invert"}},
			},
			secret: "1234",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			params := Parse(test.uri)
			assert.Equal(t, test.params, params)
			if test.secret == "" {
				assert.Equal(t, test.uri, GenerateUnsafe(params))
			} else {
				signer := NewDefaultSigner(test.secret)
				assert.Equal(t, signer.Sign(params.Path), params.Hash)
				assert.Equal(t, signer.Sign(params.Path)+"/"+params.Path, Generate(params, signer))
			}
			resJSON, err := json.Marshal(params)
			assert.NoError(t, err)
			assert.NotContains(t, string(resJSON), "\"params\"")
		})
	}
}

func TestParseParamsPrefix(t *testing.T) {
	p := Parse("/params/unsafe/filters:sepia_tone()/gopher.png")
	assert.True(t, p.Params)
	assert.True(t, p.Unsafe)
	assert.Equal(t, "gopher.png", p.Image)
	assert.Equal(t, Filters{{Name: "sepia_tone"}}, p.Filters)
}

func TestParseBase64Image(t *testing.T) {
	p := Parse("unsafe/filters:color_invert()/b64:aHR0cHM6Ly9leGFtcGxlLmNvbS9pbWFnZS5qcGc_dz0x")
	assert.Equal(t, "https://example.com/image.jpg?w=1", p.Image)
	assert.True(t, p.Base64Image)
	assert.Equal(t, Filters{{Name: "color_invert"}}, p.Filters)
	assert.Equal(t, p, Parse(GenerateUnsafe(p)))
}

func TestParseBreaks(t *testing.T) {
	p := Parse("unsafe/filters:sepia_tone(\n0.5)/\r\ngopher.png")
	assert.Equal(t, "gopher.png", p.Image)
	assert.Equal(t, Filters{{Name: "sepia_tone", Args: "0.5"}}, p.Filters)
}

func TestGenerateEscapesQuery(t *testing.T) {
	p := Params{Image: "https://example.com/a.jpg?size=1", Filters: Filters{{Name: "color_invert"}}}
	uri := GenerateUnsafe(p)
	assert.Equal(t, "unsafe/filters:color_invert()/https%3A%2F%2Fexample.com%2Fa.jpg%3Fsize%3D1", uri)
	assert.Equal(t, p.Image, Parse(uri).Image)
}

func TestSplitArgs(t *testing.T) {
	assert.Empty(t, SplitArgs(""))
	assert.Equal(t, []string{"0.8"}, SplitArgs("0.8"))
	assert.Equal(t, []string{"0", "0", "100", "50"}, SplitArgs("0, 0,100 ,50"))
	assert.Equal(t, []string{"rgb(1,2,3)", "0.5"}, SplitArgs("rgb(1,2,3),0.5"))
}

func TestFiltersGet(t *testing.T) {
	f := Filters{{Name: "format", Args: "png"}, {Name: "format", Args: "webp"}}
	v, ok := f.Get(FilterFormat)
	assert.True(t, ok)
	assert.Equal(t, "webp", v)
	_, ok = f.Get(FilterQuality)
	assert.False(t, ok)
}

func TestSigner(t *testing.T) {
	path := "filters:sepia_tone(0.8)/gopher.png"
	assert.Equal(t, NewDefaultSigner("1234").Sign(path), NewSignerFromType("sha1", 0, "1234").Sign(path))
	assert.Equal(t, NewHMACSigner(sha256.New, 0, "1234").Sign(path), NewSignerFromType("SHA256", 0, "1234").Sign(path))
	assert.Len(t, NewSignerFromType("sha512", 40, "1234").Sign(path), 40)
	assert.NotEqual(t, NewDefaultSigner("1234").Sign(path), NewDefaultSigner("4321").Sign(path))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a/b/c+d%3F.jpg", Normalize("/a//b/./c d?.jpg"))
	assert.Equal(t, "foo/bar", Normalize("/foo/bar/"))
	assert.Equal(t, "a b.jpg", Normalize("a b.jpg", func(c byte) bool {
		return false
	}))
	assert.Equal(t, "a%3Ab.jpg", Normalize("a:b.jpg", func(c byte) bool {
		return c == ':'
	}))
}

func TestHasher(t *testing.T) {
	assert.Equal(t, "b9/2b/866b4a3524d12694f41778d3453a05d6a71c", DigestStorageHasher.Hash("gopher.png"))
	p := Params{Image: "abc/def.jpg", Filters: Filters{{Name: "format", Args: "webp"}}}
	key := SuffixResultStorageHasher.HashResult(p)
	assert.True(t, strings.HasPrefix(key, "abc/def."))
	assert.True(t, strings.HasSuffix(key, ".webp"))
	p.Meta = true
	assert.True(t, strings.HasSuffix(SuffixResultStorageHasher.HashResult(p), ".json"))
	assert.Len(t, DigestResultStorageHasher.HashResult(p), 42)
}

func TestNewShouldEscape(t *testing.T) {
	assert.Equal(t, "foo/b%7B%3A%7Dar", Normalize("/foo/b{:}ar", NewShouldEscape("")))
	assert.Equal(t, "foo/b{%3A}ar", Normalize("/foo/b{:}ar", NewShouldEscape("{}")))
	assert.Equal(t, "foo/b{:}ar", Normalize("/foo/b{:}ar", NewShouldEscape(NoEscapeChars)))
}
