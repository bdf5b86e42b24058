package hash

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_Deterministic(t *testing.T) {
	a := Hash([]byte("delivery note"))
	b := Hash([]byte("delivery note"))
	assert.Equal(t, a, b)
	assert.Len(t, string(a), 64)
	assert.NotEqual(t, a, Hash([]byte("delivery note!")))
}

func TestHash_KnownVector(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", string(Hash(nil)))
}

func TestHashReader_MatchesHash(t *testing.T) {
	payload := bytes.Repeat([]byte{0x42}, 100_000)
	got, n, err := HashReader(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), n)
	assert.Equal(t, Hash(payload), got)
}
