// Package pmtiles reads the fixed header of PMTiles v3 archives so local
// tile files can be described and offered as base layers.
//
// The header layout follows github.com/protomaps/go-pmtiles (BSD-3-Clause).
// Format: https://github.com/protomaps/PMTiles/blob/main/spec/v3/spec.md
package pmtiles

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"
)

// ErrNotPMTiles is returned for data without the PMTiles magic number.
var ErrNotPMTiles = errors.New("magic number not detected")

// Compression is the compression algorithm applied to individual tiles.
type Compression uint8

const (
	UnknownCompression Compression = 0
	NoCompression      Compression = 1
	Gzip               Compression = 2
	Brotli             Compression = 3
	Zstd               Compression = 4
)

// TileType is the format of individual tile contents.
type TileType uint8

const (
	UnknownTileType TileType = 0
	Mvt             TileType = 1
	Png             TileType = 2
	Jpeg            TileType = 3
	Webp            TileType = 4
	Avif            TileType = 5
)

func (t TileType) String() string {
	switch t {
	case Mvt:
		return "mvt"
	case Png:
		return "png"
	case Jpeg:
		return "jpeg"
	case Webp:
		return "webp"
	case Avif:
		return "avif"
	}
	return "unknown"
}

// Raster reports whether tiles are images that can be drawn as a base layer
// without a style.
func (t TileType) Raster() bool {
	switch t {
	case Png, Jpeg, Webp, Avif:
		return true
	}
	return false
}

// HeaderV3LenBytes is the fixed-size binary header.
const HeaderV3LenBytes = 127

// HeaderV3 is the part of a PMTiles v3 header this service uses.
type HeaderV3 struct {
	SpecVersion     uint8
	TileCompression Compression
	TileType        TileType
	MinZoom         uint8
	MaxZoom         uint8
	MinLonE7        int32
	MinLatE7        int32
	MaxLonE7        int32
	MaxLatE7        int32
	CenterZoom      uint8
	CenterLonE7     int32
	CenterLatE7     int32
}

func e7(v int32) float64 { return float64(v) / 1e7 }

// Bounds returns the archive extent in lon/lat.
func (h HeaderV3) Bounds() orb.Bound {
	return orb.Bound{
		Min: orb.Point{e7(h.MinLonE7), e7(h.MinLatE7)},
		Max: orb.Point{e7(h.MaxLonE7), e7(h.MaxLatE7)},
	}
}

// Center returns the suggested initial view centre.
func (h HeaderV3) Center() orb.Point {
	return orb.Point{e7(h.CenterLonE7), e7(h.CenterLatE7)}
}

// SerializeHeader converts a header to bytes. Directory and data offsets are
// left zero.
func SerializeHeader(h HeaderV3) []byte {
	b := make([]byte, HeaderV3LenBytes)
	copy(b[0:7], "PMTiles")
	b[7] = 3
	b[98] = uint8(h.TileCompression)
	b[99] = uint8(h.TileType)
	b[100] = h.MinZoom
	b[101] = h.MaxZoom
	binary.LittleEndian.PutUint32(b[102:106], uint32(h.MinLonE7))
	binary.LittleEndian.PutUint32(b[106:110], uint32(h.MinLatE7))
	binary.LittleEndian.PutUint32(b[110:114], uint32(h.MaxLonE7))
	binary.LittleEndian.PutUint32(b[114:118], uint32(h.MaxLatE7))
	b[118] = h.CenterZoom
	binary.LittleEndian.PutUint32(b[119:123], uint32(h.CenterLonE7))
	binary.LittleEndian.PutUint32(b[123:127], uint32(h.CenterLatE7))
	return b
}

// DeserializeHeader parses a binary header.
func DeserializeHeader(d []byte) (HeaderV3, error) {
	h := HeaderV3{}
	if len(d) < HeaderV3LenBytes {
		return h, errors.New("buffer too small for header")
	}
	if string(d[0:7]) != "PMTiles" {
		return h, ErrNotPMTiles
	}

	h.SpecVersion = d[7]
	h.TileCompression = Compression(d[98])
	h.TileType = TileType(d[99])
	h.MinZoom = d[100]
	h.MaxZoom = d[101]
	h.MinLonE7 = int32(binary.LittleEndian.Uint32(d[102:106]))
	h.MinLatE7 = int32(binary.LittleEndian.Uint32(d[106:110]))
	h.MaxLonE7 = int32(binary.LittleEndian.Uint32(d[110:114]))
	h.MaxLatE7 = int32(binary.LittleEndian.Uint32(d[114:118]))
	h.CenterZoom = d[118]
	h.CenterLonE7 = int32(binary.LittleEndian.Uint32(d[119:123]))
	h.CenterLatE7 = int32(binary.LittleEndian.Uint32(d[123:127]))

	return h, nil
}

// ReadHeader reads and parses the header at the start of r.
func ReadHeader(r io.Reader) (HeaderV3, error) {
	b := make([]byte, HeaderV3LenBytes)
	if _, err := io.ReadFull(r, b); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return HeaderV3{}, ErrNotPMTiles
		}
		return HeaderV3{}, err
	}
	return DeserializeHeader(b)
}

// ReadHeaderFile reads the header of the archive at path.
func ReadHeaderFile(path string) (HeaderV3, error) {
	f, err := os.Open(path)
	if err != nil {
		return HeaderV3{}, err
	}
	defer f.Close()
	h, err := ReadHeader(f)
	if err != nil {
		return HeaderV3{}, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}
