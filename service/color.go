package service

import (
	"strconv"
	"strings"

	"github.com/cshum/filterkit"
	"golang.org/x/image/colornames"
)

// parseColor parses color names e.g. "red", hex codes of 3, 6 or 8 digits
// e.g. "ff0000" or "#ff000080", and rgb(r,g,b) or rgba(r,g,b,a)
func parseColor(s string) (filterkit.Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[name]; ok {
		return filterkit.Color{
			R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255, A: 1,
		}, nil
	}
	if strings.HasPrefix(name, "rgb(") || strings.HasPrefix(name, "rgba(") {
		return parseRGBFunc(name)
	}
	if c, ok := parseHexColor(strings.TrimPrefix(name, "#")); ok {
		return c, nil
	}
	return filterkit.Color{}, invalidArgs("invalid color %q", s)
}

func parseRGBFunc(s string) (filterkit.Color, error) {
	open := strings.IndexByte(s, '(')
	if !strings.HasSuffix(s, ")") {
		return filterkit.Color{}, invalidArgs("invalid color %q", s)
	}
	parts := strings.Split(s[open+1:len(s)-1], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return filterkit.Color{}, invalidArgs("invalid color %q", s)
	}
	v := make([]float64, 4)
	v[3] = 1
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return filterkit.Color{}, invalidArgs("invalid color %q", s)
		}
		if i < 3 {
			f /= 255
		}
		v[i] = clamp01(f)
	}
	return filterkit.Color{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
}

// parseHexColor parses a hex color string of 3, 6 or 8 characters
func parseHexColor(s string) (c filterkit.Color, ok bool) {
	for i := 0; i < len(s); i++ {
		if !isHex(s[i]) {
			return
		}
	}
	c.A = 1
	switch len(s) {
	case 8:
		c.A = float64(hexToByte(s[6])<<4+hexToByte(s[7])) / 255
		fallthrough
	case 6:
		c.R = float64(hexToByte(s[0])<<4+hexToByte(s[1])) / 255
		c.G = float64(hexToByte(s[2])<<4+hexToByte(s[3])) / 255
		c.B = float64(hexToByte(s[4])<<4+hexToByte(s[5])) / 255
		ok = true
	case 3:
		c.R = float64(hexToByte(s[0])*17) / 255
		c.G = float64(hexToByte(s[1])*17) / 255
		c.B = float64(hexToByte(s[2])*17) / 255
		ok = true
	}
	return
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f')
}

// hexToByte converts a single hex character to its byte value
func hexToByte(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
