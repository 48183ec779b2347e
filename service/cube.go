package service

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cshum/filterkit"
)

// LUT 3D lookup table parsed from an Adobe .cube file
type LUT struct {
	Title     string
	Size      int
	DomainMin [3]float64
	DomainMax [3]float64
	Data      filterkit.ColorCubeData
}

// ParseCube parses an Adobe .cube 3D LUT.
// Entries are returned as read, red varying fastest.
// When LUT_3D_SIZE is declared the entry count must match it.
func ParseCube(r io.Reader) (*LUT, error) {
	lut := &LUT{DomainMax: [3]float64{1, 1, 1}}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		switch fields[0] {
		case "TITLE":
			lut.Title = strings.Trim(strings.TrimSpace(strings.TrimPrefix(text, "TITLE")), `"`)
		case "LUT_3D_SIZE":
			if len(fields) != 2 {
				return nil, cubeErr(line, "malformed LUT_3D_SIZE")
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 2 || n > 256 {
				return nil, cubeErr(line, "LUT_3D_SIZE out of range")
			}
			lut.Size = n
		case "LUT_1D_SIZE":
			return nil, cubeErr(line, "1D LUT not supported")
		case "DOMAIN_MIN", "DOMAIN_MAX":
			v, err := cubeFloats(fields[1:])
			if err != nil {
				return nil, cubeErr(line, err.Error())
			}
			if fields[0] == "DOMAIN_MIN" {
				copy(lut.DomainMin[:], v)
			} else {
				copy(lut.DomainMax[:], v)
			}
		default:
			v, err := cubeFloats(fields)
			if err != nil {
				return nil, cubeErr(line, err.Error())
			}
			lut.Data = append(lut.Data, filterkit.CubeEntry{R: v[0], G: v[1], B: v[2], A: 1})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if lut.DomainMin != [3]float64{} || lut.DomainMax != [3]float64{1, 1, 1} {
		return nil, fmt.Errorf("%w: only domain 0 to 1 is supported", filterkit.ErrInvalidCube)
	}
	if lut.Size > 0 && len(lut.Data) != lut.Size*lut.Size*lut.Size {
		return nil, fmt.Errorf("%w: %d entries for LUT_3D_SIZE %d",
			filterkit.ErrInvalidCube, len(lut.Data), lut.Size)
	}
	if len(lut.Data) == 0 {
		return nil, fmt.Errorf("%w: no entries", filterkit.ErrInvalidCube)
	}
	return lut, nil
}

func cubeFloats(fields []string) ([]float64, error) {
	if len(fields) != 3 {
		return nil, fmt.Errorf("expected 3 values, got %d", len(fields))
	}
	v := make([]float64, 3)
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", f)
		}
		v[i] = n
	}
	return v, nil
}

func cubeErr(line int, msg string) error {
	return fmt.Errorf("%w: line %d: %s", filterkit.ErrInvalidCube, line, msg)
}
