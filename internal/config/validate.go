package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	k8syaml "sigs.k8s.io/yaml"
)

//go:embed schema/config.schema.json
var configSchemaJSON string

const configSchemaURL = "pkg-checksums/config.schema.json"

var configSchema = jsonschema.MustCompileString(configSchemaURL, configSchemaJSON)

// ValidateConfigYAML checks raw YAML against the configuration schema. An
// empty document is valid.
func ValidateConfigYAML(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	jsonData, err := k8syaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("converting yaml to json: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("decoding converted json: %w", err)
	}

	if err := configSchema.Validate(doc); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}

// ValidateConfigFile loads path, checks it against the schema and runs the
// semantic checks of Validate.
func ValidateConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	fileCfg, err := parseYAMLConfig(data)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.merge(fileCfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
