package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGraphYAML = `
ops:
  - kind: DmaLoadIfm
    ifmProducerOp: -1
    ifm:
      fmdata:
        tile: {numslots: 1, slotsize: 64}
        defaultstripesize: {height: 1, width: 1, channels: 1}
        edgestripesize: {height: 1, width: 1, channels: 1}
        numstripes: {height: 1, width: 1, channels: 1}
        stripeidstrides: {height: 1, width: 1, channels: 1}
`

func TestLoadGraph_ParsesYAMLIntoGraph(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleGraphYAML), 0o644))

	graph, err := loadGraph(path)
	require.NoError(t, err)
	require.Len(t, graph.Ops, 1)
	assert.Equal(t, -1, graph.Ops[0].IfmProducerOp)
	require.NotNil(t, graph.Ops[0].Ifm)
	assert.Equal(t, uint16(1), graph.Ops[0].Ifm.FmData.Tile.NumSlots)
}

func TestLoadGraph_MissingFileIsAnError(t *testing.T) {
	_, err := loadGraph(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadOptions_ExplicitFileOverridesEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "options.txt")
	require.NoError(t, os.WriteFile(path, []byte("Device = npu0\nSaveCachedNetwork = true\n"), 0o644))

	opts, err := loadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, "npu0", opts.Device)
	assert.True(t, opts.SaveCachedNetwork)
}

func TestLoadOptions_NoPathAndNoEnvReturnsEmptyOptions(t *testing.T) {
	t.Setenv("NPUCS_OPTIONS_FILE", "")
	opts, err := loadOptions("")
	require.NoError(t, err)
	assert.Empty(t, opts.Device)
}

func TestGenerateCmd_RequiresGraphFlag(t *testing.T) {
	flag := generateCmd.Flags().Lookup("graph")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
	assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag])
}
