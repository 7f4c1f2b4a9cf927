package resume

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("unsupported resume format")

// LoadFile reads a résumé from .json, .yaml/.yml or .txt.
func LoadFile(path string) (*Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume: %w", err)
	}
	return Parse(filepath.Base(path), data)
}

// Parse picks the decoder from the file name's extension.
func Parse(fileName string, data []byte) (*Context, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".txt":
		return FromText(string(data)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func ParseJSON(data []byte) (*Context, error) {
	var structured map[string]any
	if err := json.Unmarshal(data, &structured); err != nil {
		return nil, fmt.Errorf("failed to parse resume JSON: %w", err)
	}
	return New(structured, ""), nil
}

func ParseYAML(data []byte) (*Context, error) {
	var structured map[string]any
	if err := yaml.Unmarshal(data, &structured); err != nil {
		return nil, fmt.Errorf("failed to parse resume YAML: %w", err)
	}
	return New(structured, ""), nil
}
