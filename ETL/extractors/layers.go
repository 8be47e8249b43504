package extractors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

// Layer formats
const (
	FormatGeoJSON   = "geojson"
	FormatShapefile = "shapefile"
)

// ErrLayerNotFound is returned for names that are not in the catalog
var ErrLayerNotFound = errors.New("layer not found")

// shapefileParts are the files a usable shapefile needs next to each other
var shapefileParts = []string{".shp", ".shx", ".dbf"}

// Layer describes one overlay file of the geodata directory
type Layer struct {
	Name          string    `json:"name"`
	Format        string    `json:"format"`
	SizeBytes     int64     `json:"size_bytes"`
	Features      int       `json:"features"`
	GeometryTypes []string  `json:"geometry_types,omitempty"`
	Bounds        []float64 `json:"bounds,omitempty"` // min lon, min lat, max lon, max lat
	Missing       []string  `json:"missing,omitempty"`
	Valid         bool      `json:"valid"`
	Error         string    `json:"error,omitempty"`

	path string
}

// LayerCatalog discovers .geojson and .shp overlays in one directory.
// The files are served as they are; the headcount pipeline never reads them.
type LayerCatalog struct {
	dir    string
	logger *utils.ETLLogger
}

// NewLayerCatalog creates a catalog over dir
func NewLayerCatalog(dir string, logger *utils.ETLLogger) *LayerCatalog {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &LayerCatalog{dir: dir, logger: logger}
}

// List describes every overlay, GeoJSON first. A missing directory is an empty catalog.
func (c *LayerCatalog) List() ([]Layer, error) {
	info, err := os.Stat(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Layer{}, nil
		}
		return nil, fmt.Errorf("reading geodata directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("geodata path %s is not a directory", c.dir)
	}

	layers := make([]Layer, 0)
	for _, pattern := range []string{"*.geojson", "*.shp"} {
		matches, err := filepath.Glob(filepath.Join(c.dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", pattern, err)
		}
		for _, path := range matches {
			layers = append(layers, c.describe(path))
		}
	}
	return layers, nil
}

// Default returns the layer the map shows when none is selected: the first
// GeoJSON file, otherwise the first shapefile.
func (c *LayerCatalog) Default() (*Layer, error) {
	layers, err := c.List()
	if err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, ErrLayerNotFound
	}
	return &layers[0], nil
}

// Open returns the raw GeoJSON content of a listed layer
func (c *LayerCatalog) Open(name string) (io.ReadCloser, *Layer, error) {
	if name == "" || filepath.Base(name) != name {
		return nil, nil, ErrLayerNotFound
	}
	layers, err := c.List()
	if err != nil {
		return nil, nil, err
	}
	idx := slices.IndexFunc(layers, func(l Layer) bool { return l.Name == name })
	if idx < 0 {
		return nil, nil, ErrLayerNotFound
	}
	layer := layers[idx]
	if layer.Format != FormatGeoJSON {
		return nil, &layer, fmt.Errorf("layer %s is a %s, only geojson layers can be served", name, layer.Format)
	}
	f, err := os.Open(layer.path)
	if err != nil {
		return nil, &layer, fmt.Errorf("opening layer %s: %w", name, err)
	}
	return f, &layer, nil
}

func (c *LayerCatalog) describe(path string) Layer {
	layer := Layer{Name: filepath.Base(path), path: path}
	if info, err := os.Stat(path); err == nil {
		layer.SizeBytes = info.Size()
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson":
		layer.Format = FormatGeoJSON
		if err := describeGeoJSON(path, &layer); err != nil {
			layer.Error = err.Error()
			c.logger.Warn("Invalid GeoJSON layer %s: %v", layer.Name, err)
			return layer
		}
		layer.Valid = true
	default:
		layer.Format = FormatShapefile
		base := strings.TrimSuffix(path, filepath.Ext(path))
		for _, ext := range shapefileParts {
			if _, err := os.Stat(base + ext); err != nil {
				layer.Missing = append(layer.Missing, ext)
			}
		}
		layer.Valid = len(layer.Missing) == 0
		if !layer.Valid {
			c.logger.Warn("Shapefile %s is missing %s", layer.Name, strings.Join(layer.Missing, ", "))
		}
	}
	return layer
}

func describeGeoJSON(path string, layer *Layer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing feature collection: %w", err)
	}

	bounds := geom.NewBounds(geom.XY)
	types := make(map[string]bool)
	for _, f := range fc.Features {
		layer.Features++
		if f.Geometry == nil {
			continue
		}
		types[geometryType(f.Geometry)] = true
		if !f.Geometry.Empty() {
			bounds.Extend(f.Geometry)
		}
	}

	for t := range types {
		layer.GeometryTypes = append(layer.GeometryTypes, t)
	}
	slices.Sort(layer.GeometryTypes)
	if !bounds.IsEmpty() {
		layer.Bounds = []float64{bounds.Min(0), bounds.Min(1), bounds.Max(0), bounds.Max(1)}
	}
	return nil
}

func geometryType(g geom.T) string {
	switch g.(type) {
	case *geom.Point:
		return "Point"
	case *geom.LineString:
		return "LineString"
	case *geom.Polygon:
		return "Polygon"
	case *geom.MultiPoint:
		return "MultiPoint"
	case *geom.MultiLineString:
		return "MultiLineString"
	case *geom.MultiPolygon:
		return "MultiPolygon"
	case *geom.GeometryCollection:
		return "GeometryCollection"
	default:
		return fmt.Sprintf("%T", g)
	}
}
