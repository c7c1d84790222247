package builder

import (
	"github.com/Egham-7/oracle-proxy/internal/config"
)

// FromYAML loads envFiles, then the YAML file at path with the environment
// overlay applied, and returns a builder seeded with the result.
func FromYAML(path string, envFiles []string) (*Builder, error) {
	if len(envFiles) > 0 {
		config.LoadEnvFiles(envFiles)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	return builderFromConfig(cfg), nil
}
