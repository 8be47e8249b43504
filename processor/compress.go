package processor

import (
	"fmt"

	"github.com/golang/snappy"
)

// Compress encodes data with snappy block format
func Compress(data []byte) []byte {
	return snappy.Encode(nil, data)
}

// Decompress reverses Compress
func Decompress(data []byte) ([]byte, error) {
	decompressed, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decode: %w", err)
	}
	return decompressed, nil
}
