package processor

import (
	"encoding/json"
	"fmt"
)

// Codec turns values into cache payloads: JSON, then snappy, then AES-GCM
// when a sealer is set.
type Codec struct {
	sealer *Sealer
}

// NewCodec creates a Codec. A nil sealer stores payloads unencrypted.
func NewCodec(sealer *Sealer) *Codec {
	return &Codec{sealer: sealer}
}

// Encode serializes v
func (c *Codec) Encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	compressed := Compress(data)
	if c.sealer == nil {
		return compressed, nil
	}
	return c.sealer.Seal(compressed)
}

// Decode reverses Encode into v
func (c *Codec) Decode(payload []byte, v interface{}) error {
	compressed := payload
	if c.sealer != nil {
		var err error
		compressed, err = c.sealer.Open(payload)
		if err != nil {
			return fmt.Errorf("decrypting payload: %w", err)
		}
	}
	data, err := Decompress(compressed)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	return nil
}
