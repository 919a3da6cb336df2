package svd

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse parses a CMSIS-SVD XML document.
func Parse(data []byte) (*Device, error) {
	var dev Device
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&dev); err != nil {
		return nil, fmt.Errorf("parsing svd: %w", err)
	}
	if err := dev.Validate(); err != nil {
		return nil, err
	}
	return &dev, nil
}

// ParseYAML parses a description written as YAML.
func ParseYAML(data []byte) (*Device, error) {
	var dev Device
	if err := yaml.Unmarshal(data, &dev); err != nil {
		return nil, fmt.Errorf("parsing description: %w", err)
	}
	if err := dev.Validate(); err != nil {
		return nil, err
	}
	return &dev, nil
}

// Load reads and parses a description file. Files ending in .yaml or .yml
// are parsed as YAML, everything else as SVD XML.
func Load(path string) (*Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}
