package core

import "encoding/json"

// Codec is the marshaling primitive. Argument records, success and failure
// payloads and event payloads all pass through it.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec encodes values with encoding/json. Argument records carry
// wire-cased json tags, so this is the default everywhere.
type JSONCodec struct{}

// Name returns "json".
func (JSONCodec) Name() string { return "json" }

// Marshal encodes v.
func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes data into v. Empty input decodes to the zero value.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// DefaultCodec is used when no codec is configured.
var DefaultCodec Codec = JSONCodec{}

func codecOrDefault(c Codec) Codec {
	if c == nil {
		return DefaultCodec
	}
	return c
}
