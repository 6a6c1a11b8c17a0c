package index

import (
	"io/ioutil"

	errors "gopkg.in/src-d/go-errors.v1"
	yaml "gopkg.in/yaml.v2"
)

// ErrConfig is returned when an index configuration is not valid.
var ErrConfig = errors.NewKind("invalid index configuration: %s")

// DefaultPhraseGap is the default distance between the positions of two
// path phrases.
const DefaultPhraseGap uint64 = 1 << 16

// Config of an index.
type Config struct {
	// PathIndex enables the indexing of path phrases and the proximity
	// queries built on them.
	PathIndex bool `yaml:"path_index"`
	// ElementIndex enables the indexing of element names.
	ElementIndex bool `yaml:"element_index"`
	// AttributeIndex enables the indexing of attribute names.
	AttributeIndex bool `yaml:"attribute_index"`
	// PhraseGap is the distance between the first positions of two
	// consecutive path phrases.
	PhraseGap uint64 `yaml:"phrase_gap"`
	// Fields are the names of the configured fields.
	Fields []string `yaml:"fields,omitempty"`
}

// DefaultConfig returns a configuration with every index enabled.
func DefaultConfig() *Config {
	return &Config{
		PathIndex:      true,
		ElementIndex:   true,
		AttributeIndex: true,
		PhraseGap:      DefaultPhraseGap,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.PhraseGap == 0 {
		return ErrConfig.New("phrase_gap must be positive")
	}

	seen := make(map[string]struct{}, len(c.Fields))
	for _, f := range c.Fields {
		if f == "" {
			return ErrConfig.New("empty field name")
		}
		if IsReservedField(f) {
			return ErrConfig.New("field name " + f + " is reserved")
		}
		if _, ok := seen[f]; ok {
			return ErrConfig.New("duplicated field " + f)
		}
		seen[f] = struct{}{}
	}
	return nil
}

// HasField reports whether the named field is configured.
func (c *Config) HasField(name string) bool {
	for _, f := range c.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// ReadConfigFile reads a configuration from the given file. Options missing
// in the file keep their default values.
func ReadConfigFile(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, ErrConfig.Wrap(err, path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteConfigFile writes the configuration to the given file, replacing
// it if it exists.
func WriteConfigFile(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(path, data, 0640)
}
