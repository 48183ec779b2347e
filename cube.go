package filterkit

import (
	"encoding/binary"
	"fmt"
	"math"
)

// CubeEntry one lookup cube entry
type CubeEntry struct {
	R float64
	G float64
	B float64
	A float64
}

// ColorCubeData lookup cube entries, red index varying fastest, then green, then blue
type ColorCubeData []CubeEntry

// Cube validated and packed lookup cube
type Cube struct {
	// Dimension cube side length
	Dimension int
	// Data interleaved r, g, b, a little endian float32 values
	Data []byte
}

// NewCube validates the entry count is a perfect cube and packs the entries
func NewCube(data ColorCubeData) (Cube, error) {
	dim, ok := CubeRoot(len(data))
	if !ok {
		return Cube{}, fmt.Errorf("%w: %d entries is not a perfect cube", ErrInvalidCube, len(data))
	}
	buf := make([]byte, len(data)*4*4)
	for i, e := range data {
		off := i * 16
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(e.R)))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(float32(e.G)))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(float32(e.B)))
		binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(float32(e.A)))
	}
	return Cube{Dimension: dim, Data: buf}, nil
}

// Entries unpacks cube data back to entries
func (c Cube) Entries() (ColorCubeData, error) {
	n := c.Dimension * c.Dimension * c.Dimension
	if c.Dimension <= 0 || len(c.Data) != n*16 {
		return nil, fmt.Errorf("%w: %d bytes for dimension %d", ErrInvalidCube, len(c.Data), c.Dimension)
	}
	entries := make(ColorCubeData, n)
	for i := range entries {
		off := i * 16
		entries[i] = CubeEntry{
			R: float64(math.Float32frombits(binary.LittleEndian.Uint32(c.Data[off:]))),
			G: float64(math.Float32frombits(binary.LittleEndian.Uint32(c.Data[off+4:]))),
			B: float64(math.Float32frombits(binary.LittleEndian.Uint32(c.Data[off+8:]))),
			A: float64(math.Float32frombits(binary.LittleEndian.Uint32(c.Data[off+12:]))),
		}
	}
	return entries, nil
}

// CubeRoot returns s such that s*s*s == n
func CubeRoot(n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	s := int(math.Round(math.Cbrt(float64(n))))
	// guard against float rounding on either side
	for _, c := range []int{s - 1, s, s + 1} {
		if c > 0 && c*c*c == n {
			return c, true
		}
	}
	return 0, false
}

// IdentityCube returns the identity lookup cube of the given dimension
func IdentityCube(dimension int) ColorCubeData {
	if dimension < 2 {
		return nil
	}
	data := make(ColorCubeData, 0, dimension*dimension*dimension)
	max := float64(dimension - 1)
	for b := 0; b < dimension; b++ {
		for g := 0; g < dimension; g++ {
			for r := 0; r < dimension; r++ {
				data = append(data, CubeEntry{
					R: float64(r) / max, G: float64(g) / max, B: float64(b) / max, A: 1,
				})
			}
		}
	}
	return data
}

// setCube sets cube parameters, or records why they were omitted
func (b *paramsBuilder) setCube(data ColorCubeData) {
	cube, err := NewCube(data)
	if err != nil {
		b.warning = err
		return
	}
	b.Set(KeyCubeDimension, cube.Dimension)
	b.Set(KeyCubeData, cube.Data)
}
