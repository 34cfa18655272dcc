package inventory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dograga/compliance-checks/internal/domain"
)

type assetTypesFile struct {
	AssetTypes []string `yaml:"asset_types"`
}

// LoadAssetTypes reads the asset-type filter from a YAML profile file.
// An empty path returns the built-in default list.
func LoadAssetTypes(path string) ([]string, error) {
	if path == "" {
		return domain.DefaultAssetTypes, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read asset types file %s: %w", path, err)
	}
	var f assetTypesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse asset types file %s: %w", path, err)
	}
	if len(f.AssetTypes) == 0 {
		return nil, fmt.Errorf("asset types file %s lists no asset_types", path)
	}
	return f.AssetTypes, nil
}
