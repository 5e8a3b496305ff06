package config

import (
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// ConfigurationName is the expected file name.
const ConfigurationName = "config.yaml"

// Load reads and validates a configuration file. Fields the file
// omits keep their defaults; fields it misspells are an error.
func Load(fs afero.Fs, path string) (*Config, error) {
	contents, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	out := Default()
	if err := yaml.UnmarshalStrict(contents, out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
