package imgcodec

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_RoundTrip(t *testing.T) {
	random := make([]byte, 4096)
	_, _ = rand.Read(random)

	cases := map[string][]byte{
		"empty":      {},
		"nil":        nil,
		"small":      {1, 2, 3},
		"zeros":      make([]byte, 17),
		"high bytes": {0xff, 0xfe, 0x00, 0x80},
		"random":     random,
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := Decode(Encode(in))
			require.NoError(t, err)
			assert.Equal(t, len(in), len(out))
			if len(in) > 0 {
				assert.Equal(t, in, out)
			}
		})
	}
}

func TestEncode_Deterministic(t *testing.T) {
	in := []byte("avatar-bytes")
	assert.Equal(t, Encode(in), Encode(in))
	assert.Equal(t, "AQID", Encode([]byte{1, 2, 3}))
	assert.Equal(t, "", Encode(nil))
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode("not base64!")
	assert.Error(t, err)
}
