// Package catalog resolves crop/variety pairs to their thermal profiles.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/agroplan/crop-window-planner/internal/agro"
)

// ErrCropNotFound is returned when a crop/variety pair is not in the catalog.
var ErrCropNotFound = errors.New("unknown crop or variety")

// Catalog is a concurrency-safe, immutable-after-load crop profile lookup.
type Catalog struct {
	mu       sync.RWMutex
	profiles map[string]agro.CropProfile
}

// New creates a catalog from the given profiles.
func New(profiles ...agro.CropProfile) *Catalog {
	c := &Catalog{profiles: make(map[string]agro.CropProfile, len(profiles))}
	for _, p := range profiles {
		c.profiles[p.Key()] = p
	}
	return c
}

// catalogFile is the on-disk YAML shape.
type catalogFile struct {
	Crops []agro.CropProfile `yaml:"crops"`
}

// LoadFile reads a YAML crop catalog from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crop catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse crop catalog %s: %w", path, err)
	}

	for _, p := range file.Crops {
		if p.CropID == "" {
			return nil, fmt.Errorf("crop catalog %s: entry missing crop_id", path)
		}
		if p.GDDRequirement <= 0 {
			return nil, fmt.Errorf("crop catalog %s: %s has non-positive gdd_requirement", path, p.Key())
		}
	}

	return New(file.Crops...), nil
}

// Lookup returns the profile for a crop/variety pair.
func (c *Catalog) Lookup(cropID, variety string) (agro.CropProfile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := cropID + ":" + variety
	profile, ok := c.profiles[key]
	if !ok {
		return agro.CropProfile{}, fmt.Errorf("%w: %s", ErrCropNotFound, key)
	}
	return profile, nil
}

// Profiles returns all profiles in the catalog, in no particular order.
func (c *Catalog) Profiles() []agro.CropProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]agro.CropProfile, 0, len(c.profiles))
	for _, p := range c.profiles {
		out = append(out, p)
	}
	return out
}
