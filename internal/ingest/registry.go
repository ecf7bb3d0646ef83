package ingest

import (
	"embed"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configured spreadsheets the server can ingest.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig defines one spreadsheet source.
type SourceConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Spreadsheet string `yaml:"spreadsheet"`        // bare ID or full URL
	Range       string `yaml:"range,omitempty"`    // defaults to Sheet1
	APIKey      string `yaml:"api_key,omitempty"`  // supports ${ENV_VAR} refs
	AutoLoad    bool   `yaml:"auto_load,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// LoadRegistry reads the embedded sources.yaml and returns a Registry.
// The path parameter is a filesystem fallback for local development.
func LoadRegistry(path string) (*Registry, error) {
	data, err := sourcesYAML.ReadFile("config/sources.yaml")
	if err != nil {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	// Expand environment variables within the YAML content (e.g. ${SHEETS_API_KEY})
	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, err
	}

	return &reg, nil
}

// Find returns the source with the given id, or nil.
func (r *Registry) Find(id string) *SourceConfig {
	for i := range r.Sources {
		if r.Sources[i].ID == id {
			return &r.Sources[i]
		}
	}
	return nil
}
