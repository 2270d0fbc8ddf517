package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joeblew999/geo-widget/internal/pmtiles"
	"github.com/joeblew999/geo-widget/internal/widget"
)

// TileFile represents a PMTiles archive in the tiles directory.
type TileFile struct {
	Name     string     `json:"name" doc:"PMTiles file name" example:"city.pmtiles"`
	Size     string     `json:"size" doc:"Human-readable file size" example:"5.4 MB"`
	TileType string     `json:"tileType" doc:"Tile format" example:"png"`
	MinZoom  uint8      `json:"minZoom"`
	MaxZoom  uint8      `json:"maxZoom"`
	Bounds   [4]float64 `json:"bounds" doc:"West, south, east, north"`
	raster   bool
}

// TileService lists local PMTiles archives so they can be offered as base
// layers next to the configured tile servers.
type TileService struct {
	tilesDir string
	urlBase  string
}

// NewTileService creates a tile service over <dataDir>/tiles, served under
// urlBase.
func NewTileService(dataDir, urlBase string) *TileService {
	return &TileService{
		tilesDir: filepath.Join(dataDir, "tiles"),
		urlBase:  strings.TrimSuffix(urlBase, "/"),
	}
}

// List returns all readable PMTiles archives sorted by name. Files whose
// header does not parse are skipped.
func (s *TileService) List() ([]TileFile, error) {
	entries, err := os.ReadDir(s.tilesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TileFile{}, nil
		}
		return nil, err
	}

	files := []TileFile{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".pmtiles" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		h, err := pmtiles.ReadHeaderFile(filepath.Join(s.tilesDir, entry.Name()))
		if err != nil {
			continue
		}
		b := h.Bounds()
		files = append(files, TileFile{
			Name:     entry.Name(),
			Size:     formatSize(info.Size()),
			TileType: h.TileType.String(),
			MinZoom:  h.MinZoom,
			MaxZoom:  h.MaxZoom,
			Bounds:   [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]},
			raster:   h.TileType.Raster(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Descriptors turns the local raster archives into base-layer descriptors.
// The title is the file name without its extension. Vector archives need a
// style to be drawn and are not offered.
func (s *TileService) Descriptors() ([]widget.TileLayerDescriptor, error) {
	files, err := s.List()
	if err != nil {
		return nil, err
	}
	out := make([]widget.TileLayerDescriptor, 0, len(files))
	for _, f := range files {
		if !f.raster {
			continue
		}
		out = append(out, widget.TileLayerDescriptor{
			Title:      strings.TrimSuffix(f.Name, ".pmtiles"),
			URL:        s.urlBase + "/" + f.Name,
			SourceType: widget.SourcePMTiles,
		})
	}
	return out, nil
}

// TilesDir returns the path to the tiles directory.
func (s *TileService) TilesDir() string {
	return s.tilesDir
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
