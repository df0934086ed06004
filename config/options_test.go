package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RecognisedKeys(t *testing.T) {
	src := `
# a comment
SaveCachedNetwork = true
CachedNetworkFilePath = /tmp/net.bin
Device = npu0
DisableWinograd = false
StrictPrecision = true
FutureOption = 42
`
	opts, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.True(t, opts.SaveCachedNetwork)
	assert.Equal(t, "/tmp/net.bin", opts.CachedNetworkFilePath)
	assert.Equal(t, "npu0", opts.Device)
	assert.False(t, opts.DisableWinograd)
	assert.True(t, opts.StrictPrecision)
	assert.Equal(t, "42", opts.Extra["FutureOption"])
}

func TestParse_SaveCachedNetworkNotBool(t *testing.T) {
	_, err := Parse(strings.NewReader("SaveCachedNetwork = maybe"))
	assert.Error(t, err)
}

func TestParse_CachedNetworkFilePathEmpty(t *testing.T) {
	_, err := Parse(strings.NewReader("CachedNetworkFilePath = "))
	assert.Error(t, err)
}

func TestParse_MalformedLine(t *testing.T) {
	_, err := Parse(strings.NewReader("not a key value line"))
	assert.Error(t, err)
}

func TestLoadFromEnv_UnsetReturnsZeroValue(t *testing.T) {
	t.Setenv(EnvFileVar, "")
	opts, err := LoadFromEnv()
	require.NoError(t, err)
	assert.False(t, opts.SaveCachedNetwork)
}
