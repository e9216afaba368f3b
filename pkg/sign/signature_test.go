package sign

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureEncoding(t *testing.T) {
	sig := make(Signature, SignatureLength)
	sig[0] = 0xab
	sig[63] = 0x01
	sig[64] = 28

	t.Run("Encode", func(t *testing.T) {
		encoded := EncodeSignature(sig)
		assert.Len(t, encoded, EncodedSignatureLength)
		assert.True(t, strings.HasPrefix(encoded, "ab00"))
		assert.True(t, strings.HasSuffix(encoded, "011c"))
		assert.Equal(t, strings.ToLower(encoded), encoded)
		assert.Equal(t, encoded, sig.String())
	})

	t.Run("Decode", func(t *testing.T) {
		decoded, err := DecodeSignature(EncodeSignature(sig))
		require.NoError(t, err)
		assert.Equal(t, sig, decoded)
	})

	t.Run("Decode Errors", func(t *testing.T) {
		valid := EncodeSignature(sig)
		tests := []struct {
			name  string
			input string
		}{
			{"empty", ""},
			{"prefixed", "0x" + valid[2:]},
			{"uppercase", strings.ToUpper(valid)},
			{"short", valid[:10]},
			{"odd length", valid[:129]},
			{"non hex", strings.Repeat("g", EncodedSignatureLength)},
		}
		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				_, err := DecodeSignature(test.input)
				assert.ErrorIs(t, err, ErrInvalidEncoding)
			})
		}
	})
}

func TestSignatureComponents(t *testing.T) {
	sig := make(Signature, SignatureLength)
	sig[31] = 7
	sig[63] = 9
	sig[64] = 27

	assert.Equal(t, big.NewInt(7), sig.R())
	assert.Equal(t, big.NewInt(9), sig.S())
	assert.Equal(t, byte(27), sig.V())

	recID, ok := sig.recoveryID()
	assert.True(t, ok)
	assert.Equal(t, byte(0), recID)

	short := Signature{1, 2, 3}
	assert.Nil(t, short.R())
	assert.Nil(t, short.S())
	assert.Equal(t, byte(0), short.V())
}

func TestSignatureJSON(t *testing.T) {
	sig := make(Signature, SignatureLength)
	sig[64] = 27

	data, err := json.Marshal(sig)
	require.NoError(t, err)
	assert.Equal(t, `"`+EncodeSignature(sig)+`"`, string(data))

	var out Signature
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, sig, out)

	assert.Error(t, json.Unmarshal([]byte(`{invalid}`), &out))
	assert.ErrorIs(t, json.Unmarshal([]byte(`"0xinvalidhex"`), &out), ErrInvalidEncoding)
}

func TestMessageHash(t *testing.T) {
	// keccak256("\x19Ethereum Signed Message:\n11hello world")
	assert.Equal(t,
		"0xd9eba16ed0ecae432b71fe008c98cc872bb4cc214d3220a36f365326cf807d68",
		MessageHash([]byte("hello world")).Hex())
	assert.NotEqual(t, MessageHash([]byte("hello world")), MessageHash([]byte("hello World")))
}
