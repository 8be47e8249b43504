package processor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Store string `json:"store"`
	Total int    `json:"total"`
}

func TestCodec_Plain(t *testing.T) {
	codec := NewCodec(nil)
	in := payload{Store: "S1", Total: 2}

	data, err := codec.Encode(in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, codec.Decode(data, &out))
	assert.Equal(t, in, out)

	require.Error(t, codec.Decode([]byte("not snappy"), &out))
}

func TestCodec_Sealed(t *testing.T) {
	key, err := GenerateRandomAESKey(32)
	require.NoError(t, err)
	sealer, err := NewSealer(key)
	require.NoError(t, err)
	codec := NewCodec(sealer)

	data, err := codec.Encode(payload{Store: "S1", Total: 2})
	require.NoError(t, err)
	assert.False(t, bytes.Contains(data, []byte("S1")))

	var out payload
	require.NoError(t, codec.Decode(data, &out))
	assert.Equal(t, "S1", out.Store)

	other, err := GenerateRandomAESKey(32)
	require.NoError(t, err)
	otherSealer, err := NewSealer(other)
	require.NoError(t, err)
	require.Error(t, NewCodec(otherSealer).Decode(data, &out))

	_, err = sealer.Open([]byte{1, 2})
	require.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey(" 000102030405060708090a0b0c0d0e0f ")
	require.NoError(t, err)
	assert.Len(t, key, 16)

	_, err = ParseKey("zz")
	require.Error(t, err)

	_, err = ParseKey("0001")
	require.Error(t, err)
}

func TestCompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("ENERO;2026;"), 100)

	compressed := Compress(data)
	assert.Less(t, len(compressed), len(data))

	out, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}
