package settings

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFonts reads the list of selectable font families from a YAML sequence
func LoadFonts(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fonts file: %w", err)
	}

	var fonts []string
	if err := yaml.Unmarshal(data, &fonts); err != nil {
		return nil, fmt.Errorf("failed to parse fonts file: %w", err)
	}

	out := make([]string, 0, len(fonts))
	for _, f := range fonts {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out, nil
}
