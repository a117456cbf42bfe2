package config

import (
	"bytes"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Read reads the YAML file at path on top of Default, after substituting environment
// variables such as ${DATA_ROOT}. Unknown keys are rejected.
func Read(path string) (*Config, error) {
	raw, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBytes(raw)
}

// FromBytes decodes a YAML document on top of Default.
func FromBytes(raw []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "cannot parse config")
	}
	return cfg, nil
}

// MergeFromList applies overrides given as alternating keys and values, such as
// ["TEST.LOGGING_INTERVAL", "10", "VISUALIZATION.SHOW", "true"]. Values are parsed as YAML so
// lists can be written inline. Keys must already exist.
func (cfg *Config) MergeFromList(opts []string) error {
	if len(opts)%2 != 0 {
		return errors.Errorf("override list has odd length %d: %v", len(opts), opts)
	}
	tree, err := cfg.asMap()
	if err != nil {
		return err
	}
	for i := 0; i < len(opts); i += 2 {
		key := opts[i]
		var value interface{}
		if err := yaml.Unmarshal([]byte(opts[i+1]), &value); err != nil {
			return errors.Wrapf(err, "cannot parse value of %s", key)
		}
		if err := setKey(tree, key, value); err != nil {
			return err
		}
	}

	merged := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           merged,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(tree); err != nil {
		return errors.Wrap(err, "cannot apply config overrides")
	}
	*cfg = *merged
	return nil
}

func (cfg *Config) asMap() (map[string]interface{}, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	tree := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func setKey(tree map[string]interface{}, key string, value interface{}) error {
	parts := strings.Split(key, ".")
	node := tree
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]interface{})
		if !ok {
			return errors.Errorf("non-existent config key: %s", key)
		}
		node = child
	}
	last := parts[len(parts)-1]
	if _, ok := node[last]; !ok {
		return errors.Errorf("non-existent config key: %s", key)
	}
	if _, isSection := node[last].(map[string]interface{}); isSection {
		return errors.Errorf("cannot override config section %s", key)
	}
	node[last] = value
	return nil
}
