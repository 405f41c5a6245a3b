package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ssolson/upOpt/internal/estate"
	"github.com/ssolson/upOpt/internal/solution"
)

// File reads previously saved payloads from disk. Catalog files ending in
// .yaml or .yml are decoded as YAML.
type File struct {
	UnitsPath    string
	CatalogPath  string
	ActivityPath string
}

var (
	_ UnitProvider     = File{}
	_ CatalogProvider  = File{}
	_ ActivityProvider = File{}
)

// Units reads the property feed. The username is ignored.
func (f File) Units(_ context.Context, _ string) ([]estate.Unit, error) {
	payload, err := read(f.UnitsPath)
	if err != nil {
		return nil, err
	}
	return ParseUnits(payload)
}

// Catalog reads the collection catalog.
func (f File) Catalog(_ context.Context) (estate.Catalog, error) {
	payload, err := read(f.CatalogPath)
	if err != nil {
		return estate.Catalog{}, err
	}
	switch strings.ToLower(filepath.Ext(f.CatalogPath)) {
	case ".yaml", ".yml":
		return ParseCatalogYAML(payload)
	default:
		return ParseCatalog(payload)
	}
}

// Activity reads the activity feed. The auth token is ignored.
func (f File) Activity(_ context.Context, _ string) ([]solution.Enrollment, error) {
	payload, err := read(f.ActivityPath)
	if err != nil {
		return nil, err
	}
	return ParseActivity(payload)
}

func read(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no file configured", ErrMissingData)
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingData, err)
	}
	return payload, nil
}
