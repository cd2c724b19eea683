package frameengine

import (
	"os"

	"gopkg.in/yaml.v2"

	"github.com/framelab/go-frame-engine/frame/optimizer"
)

// Config is the YAML-loadable engine configuration, mapping onto
// CollectOptions. The zero value collects with every optimization on.
type Config struct {
	Verbose   bool  `yaml:"verbose"`
	FetchRows int64 `yaml:"fetch_rows"`

	Optimizer struct {
		Disable              bool `yaml:"disable"`
		NoTypeCoercion       bool `yaml:"no_type_coercion"`
		NoSimplifyExpression bool `yaml:"no_simplify_expression"`
		NoPredicatePushdown  bool `yaml:"no_predicate_pushdown"`
		NoProjectionPushdown bool `yaml:"no_projection_pushdown"`
		NoSlicePushdown      bool `yaml:"no_slice_pushdown"`
	} `yaml:"optimizer"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig parses a YAML configuration document.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// CollectOptions converts the configuration into collect options.
func (c *Config) CollectOptions() CollectOptions {
	return CollectOptions{
		Optimizer: optimizer.Flags{
			NoTypeCoercion:       c.Optimizer.NoTypeCoercion,
			NoSimplifyExpression: c.Optimizer.NoSimplifyExpression,
			NoPredicatePushdown:  c.Optimizer.NoPredicatePushdown,
			NoProjectionPushdown: c.Optimizer.NoProjectionPushdown,
			NoSlicePushdown:      c.Optimizer.NoSlicePushdown,
		},
		NoOptimization: c.Optimizer.Disable,
		FetchRows:      c.FetchRows,
		Verbose:        c.Verbose,
	}
}
