package skymap

import (
	"fmt"
	"os"
	"sync"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// MapCache provides thread-safe caching of loaded sky maps to avoid redundant
// disk reads.
//
// The cache stores SkyField values keyed by their file path. Once a map is
// loaded, subsequent Load() calls for the same path return the cached field
// without disk I/O. Fields accumulate filtered variants in place, so repeated
// tool calls against the same map reuse earlier filter work.
//
// MapCache is safe for concurrent use by multiple goroutines.
type MapCache struct {
	mu     sync.RWMutex
	fields map[string]*SkyField
}

// NewMapCache creates and initializes a new empty map cache.
func NewMapCache() *MapCache {
	return &MapCache{
		fields: make(map[string]*SkyField),
	}
}

// Load retrieves a sky map from the cache or loads it from disk if not cached.
//
// Parameters:
//   - path: Path to a numpy .npy file holding a square 2D float array.
//   - openingAngleDeg: Angular extent of the map in degrees. The .npy format
//     carries no angular metadata, so the caller must supply it.
//
// The map is cached using the exact path string provided. Loading a cached
// path with a different opening angle is an error: the cache would otherwise
// hand out a field whose angular frame disagrees with the caller's.
func (c *MapCache) Load(path string, openingAngleDeg float64) (*SkyField, error) {
	c.mu.RLock()
	if f, ok := c.fields[path]; ok {
		c.mu.RUnlock()
		if f.OpeningAngle() != openingAngleDeg {
			return nil, fmt.Errorf("map %s cached with opening angle %g deg, requested %g deg",
				path, f.OpeningAngle(), openingAngleDeg)
		}
		return f, nil
	}
	c.mu.RUnlock()

	f, err := LoadMap(path, openingAngleDeg)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.fields[path] = f
	c.mu.Unlock()

	return f, nil
}

// Clear removes all maps from the cache, freeing the associated memory.
func (c *MapCache) Clear() {
	c.mu.Lock()
	c.fields = make(map[string]*SkyField)
	c.mu.Unlock()
}

// Evict removes a specific map from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *MapCache) Evict(path string) {
	c.mu.Lock()
	delete(c.fields, path)
	c.mu.Unlock()
}

// LoadMap reads a sky map from a numpy .npy file, bypassing any cache.
func LoadMap(path string, openingAngleDeg float64) (*SkyField, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open map: %w", err)
	}
	defer f.Close()

	var m mat.Dense
	if err := npyio.Read(f, &m); err != nil {
		return nil, fmt.Errorf("failed to decode map %s: %w", path, err)
	}

	return New(&m, openingAngleDeg, path)
}

// SaveMap writes a grid to a numpy .npy file.
func SaveMap(path string, m *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create map file: %w", err)
	}

	if err := npyio.Write(f, m); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode map %s: %w", path, err)
	}
	return f.Close()
}

// MapInfo contains metadata and value statistics for a loaded sky map.
type MapInfo struct {
	// Npix is the resolution of the map in pixels per side.
	Npix int `json:"npix"`

	// OpeningAngle is the angular extent of the map in degrees.
	OpeningAngle float64 `json:"opening_angle"`

	// PixelLength is the angular size of one pixel in degrees.
	PixelLength float64 `json:"pixel_length"`

	// Source is the file path the map was loaded from.
	Source string `json:"source"`

	// Variants lists the named variants currently attached to the field.
	Variants []string `json:"variants"`

	// Stats summarises the "orig" variant's value distribution.
	Stats Stats `json:"stats"`
}

// LoadMapInfo loads a sky map and returns its metadata and statistics.
//
// The map is loaded into the cache if not already present.
func LoadMapInfo(cache *MapCache, path string, openingAngleDeg float64) (*MapInfo, error) {
	field, err := cache.Load(path, openingAngleDeg)
	if err != nil {
		return nil, err
	}

	raw, err := field.Variant(DefaultVariant)
	if err != nil {
		return nil, err
	}

	return &MapInfo{
		Npix:         field.Resolution(),
		OpeningAngle: field.OpeningAngle(),
		PixelLength:  field.PixelLength(),
		Source:       field.Source(),
		Variants:     field.VariantNames(),
		Stats:        GridStats(raw),
	}, nil
}
