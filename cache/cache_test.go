package cache

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	subgraphs := []Subgraph{
		{Index: 0, CompiledBlob: []byte{1, 2, 3, 4, 5}, IntermediateBufSize: 1024},
		{Index: 2, CompiledBlob: []byte{}, IntermediateBufSize: 0},
		{Index: 1, CompiledBlob: bytes.Repeat([]byte{0xAB}, 37), IntermediateBufSize: 99},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, subgraphs))

	got, ok := Read(&buf)
	require.True(t, ok)
	require.Equal(t, subgraphs, got)
}

func TestRead_EmptyFileFails(t *testing.T) {
	_, ok := Read(bytes.NewReader(nil))
	assert.False(t, ok)
}

func TestRead_TruncatedFails(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []Subgraph{{Index: 0, CompiledBlob: []byte{1, 2, 3}, IntermediateBufSize: 4}}))
	truncated := buf.Bytes()[:buf.Len()-2]
	_, ok := Read(bytes.NewReader(truncated))
	assert.False(t, ok)
}

func TestRead_TrailingBytesFails(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	buf.WriteByte(0x7F)
	_, ok := Read(&buf)
	assert.False(t, ok)
}

func TestRead_WrongVersionFails(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	data := buf.Bytes()
	data[0] = 0xFF
	_, ok := Read(bytes.NewReader(data))
	assert.False(t, ok)
}

func TestReadFile_MissingFileFails(t *testing.T) {
	_, ok := ReadFile("/nonexistent/path/to/a/cache/file.bin")
	assert.False(t, ok)
}
