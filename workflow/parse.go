package workflow

import (
	"fmt"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DecodeYAML decodes a YAML document into the raw tree the schema layer
// consumes.
func DecodeYAML(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	return raw, nil
}

// DecodeJSON decodes a JSON document into the raw tree the schema layer
// consumes.
func DecodeJSON(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	return raw, nil
}

// MarshalJSON emits the definition including preserved extension fields, so
// an accepted definition survives a serialize/re-validate round trip intact.
func (d *Definition) MarshalJSON() ([]byte, error) {
	type alias Definition
	b, err := json.Marshal((*alias)(d))
	if err != nil {
		return nil, err
	}
	if len(d.Extensions) == 0 {
		return b, nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, v := range d.Extensions {
		m[k] = v
	}
	return json.Marshal(m)
}

// Raw projects the definition back into the raw-tree form accepted by
// TypeCheck.
func (d *Definition) Raw() (map[string]any, error) {
	b, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return DecodeJSON(b)
}
