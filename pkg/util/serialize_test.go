package util

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSample(t *testing.T, serial Serialize) {
	require.NoError(t, Write[int64](-42, serial))
	require.NoError(t, Write[uint32](7, serial))
	payload := []byte("chunk payload")
	require.NoError(t, serial.WriteData(payload, len(payload)))
	require.NoError(t, serial.Close())
}

func readSample(t *testing.T, deserial Deserialize) {
	var a int64
	var b uint32
	require.NoError(t, Read[int64](&a, deserial))
	require.NoError(t, Read[uint32](&b, deserial))
	buf := make([]byte, len("chunk payload"))
	require.NoError(t, deserial.ReadData(buf, len(buf)))
	assert.Equal(t, int64(-42), a)
	assert.Equal(t, uint32(7), b)
	assert.Equal(t, "chunk payload", string(buf))
	require.NoError(t, deserial.Close())
}

func Test_fileSerialize(t *testing.T) {
	name := filepath.Join(t.TempDir(), "plain")
	serial, err := NewFileSerialize(name)
	require.NoError(t, err)
	writeSample(t, serial)
	deserial, err := NewFileDeserialize(name)
	require.NoError(t, err)
	readSample(t, deserial)
}

func Test_zstdSerialize(t *testing.T) {
	name := filepath.Join(t.TempDir(), "zstd")
	serial, err := NewZstdSerialize(name)
	require.NoError(t, err)
	writeSample(t, serial)
	deserial, err := NewZstdDeserialize(name)
	require.NoError(t, err)
	readSample(t, deserial)
}

func Test_bufferSerialize(t *testing.T) {
	buf := &BufferSerialize{}
	writeSample(t, buf)
	readSample(t, buf)
}

func Test_checksum(t *testing.T) {
	a := []byte("0123456789abcdef-")
	b := []byte("0123456789abcdef+")
	assert.NotEqual(t, ChecksumBytes(a), ChecksumBytes(b))
	assert.Equal(t, ChecksumBytes(a), ChecksumBytes([]byte("0123456789abcdef-")))
	assert.Equal(t, uint64(0), ChecksumBytes(nil))
	assert.Equal(t, HashInt64(99), HashInt64(99))
	assert.NotEqual(t, HashInt64(99), HashInt64(100))
}
