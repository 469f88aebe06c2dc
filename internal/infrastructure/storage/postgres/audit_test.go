package postgres

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRecorder_EncodeRoundTrip(t *testing.T) {
	r, err := NewAuditRecorder(nil, 64)
	require.NoError(t, err)

	small := []byte(`{"status":"sent"}`)
	plain, compressed, algo := r.encode(small)
	assert.Equal(t, CompressionNone, algo)
	assert.Nil(t, compressed)
	assert.JSONEq(t, string(small), string(plain))

	large := append([]byte(`{"notes":"`), bytes.Repeat([]byte("a"), 500)...)
	large = append(large, `"}`...)
	plain, compressed, algo = r.encode(large)
	assert.Equal(t, CompressionZstd, algo)
	assert.Nil(t, plain)
	assert.Less(t, len(compressed), len(large))

	back, err := r.decode(plain, compressed, algo)
	require.NoError(t, err)
	assert.Equal(t, large, []byte(back))
}

func TestAuditRecorder_DefaultThreshold(t *testing.T) {
	r, err := NewAuditRecorder(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCompressThreshold, r.compressThreshold)

	_, err = r.decode(nil, []byte("not zstd"), CompressionZstd)
	assert.Error(t, err)
}
