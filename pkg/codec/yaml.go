package codec

import (
	"fmt"

	"sigs.k8s.io/yaml"
)

type yamlCodec struct{}

// YAML returns a codec storing human-editable YAML documents. Values go
// through their JSON form, so *tree.Ordered keeps its key order on disk.
func YAML() Codec {
	return yamlCodec{}
}

func (yamlCodec) Serialize(value any) ([]byte, error) {
	data, err := yaml.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("codec: yaml serialize: %w", err)
	}
	return data, nil
}

func (yamlCodec) Parse(data []byte) (any, error) {
	var out any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("codec: yaml parse: %w", err)
	}
	return out, nil
}

func (yamlCodec) SetRecords([]Record) {}
