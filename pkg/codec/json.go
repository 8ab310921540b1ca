package codec

import (
	"encoding/json"
	"fmt"
)

type jsonCodec struct{}

// JSON returns the default codec. Numbers parse as float64 and objects as
// map[string]any.
func JSON() Codec {
	return jsonCodec{}
}

func (jsonCodec) Serialize(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("codec: json serialize: %w", err)
	}
	return data, nil
}

func (jsonCodec) Parse(data []byte) (any, error) {
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("codec: json parse: %w", err)
	}
	return out, nil
}

func (jsonCodec) SetRecords([]Record) {}
