// Package streamconfig loads projection configuration from YAML files
package streamconfig

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/modelop/augustus/pkg/avrostream"
	"github.com/modelop/augustus/pkg/coerce"
	"github.com/modelop/augustus/pkg/errors"
)

// DefaultCapacity is the batch capacity used when the file does not set one
const DefaultCapacity = 1000000

// Projection is one projection entry in the configuration file
type Projection struct {
	// Name identifies the output column
	Name string `yaml:"name"`
	// Path is the field path into the container schema
	Path []string `yaml:"path"`
	// Type is the target column type: string, category, integer or double
	Type string `yaml:"type"`
}

// Config is a projection configuration file
type Config struct {
	Capacity    int          `yaml:"capacity"`
	Projections []Projection `yaml:"projections"`
}

// Load loads a projection configuration from a YAML file
func Load(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: file path is controlled by caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file")
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML")
	}

	if config.Capacity == 0 {
		config.Capacity = DefaultCapacity
	}

	return &config, nil
}

// Specs converts the configuration into projection specs for Open
func (c *Config) Specs() ([]avrostream.ProjectionSpec, error) {
	specs := make([]avrostream.ProjectionSpec, 0, len(c.Projections))
	for _, p := range c.Projections {
		target, err := coerce.ParseTarget(p.Type)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid projection").
				WithDetail("projection", p.Name)
		}
		specs = append(specs, avrostream.ProjectionSpec{
			Name:   p.Name,
			Path:   p.Path,
			Target: target,
		})
	}
	return specs, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
