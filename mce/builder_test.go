package mce

import (
	"testing"

	"github.com/npucs/npucs/model"
	"github.com/npucs/npucs/register"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleMce() *model.MceSDesc {
	return &model.MceSDesc{
		IfmTile:           model.Tile{BaseAddr: 0x100, NumSlots: 2, SlotSize: 512},
		WgtTile:           model.Tile{BaseAddr: 0x200, NumSlots: 2, SlotSize: 64},
		BlockWidth:        8,
		BlockHeight:       8,
		MceOpMode:         model.Conv,
		NumStripes:        model.TensorSize{Height: 1, Width: 1, Channels: 2},
		StripeIDStrides:   model.TensorSize{Height: 1, Width: 1, Channels: 1},
		DefaultStripeSize: model.TensorSize{Height: 8, Width: 8, Channels: 16},
		EdgeStripeSize:    model.TensorSize{Height: 8, Width: 8, Channels: 8},
		ReluActiv:         model.ReluActivation{Min: -32768, Max: 32767},
	}
}

func TestProgramMceStripe_DefaultCapabilities(t *testing.T) {
	d := simpleMce()
	cmd := Builder{}.ProgramMceStripe(d, 0)
	require.NotZero(t, cmd.OfmStripeSize)
	assert.Equal(t, register.EncodeOfmConfig(16), cmd.OfmConfig)
}

func TestProgramMceStripe_EdgeStripeUsesEdgeChannels(t *testing.T) {
	d := simpleMce()
	cmd := Builder{}.ProgramMceStripe(d, 1) // second (last) channel stripe -> edge
	assert.Equal(t, register.EncodeOfmConfig(8), cmd.OfmConfig)
}

func TestProgramMceStripe_PleMceifConfigMatchesSizingHelper(t *testing.T) {
	d := simpleMce()
	cmd := Builder{}.ProgramMceStripe(d, 0)
	assert.Equal(t, PleMceifSizing(d.BlockWidth, d.BlockHeight), cmd.PleMceifConfig)
}

func TestStartMceStripe_FullyConnectedAlwaysZeroEnables(t *testing.T) {
	d := simpleMce()
	d.MceOpMode = model.FullyConnected
	cmd := Builder{}.StartMceStripe(d, 0)
	assert.Equal(t, uint32(0), cmd.CeEnables)
}

func TestStartMceStripe_ClampsToNumEngines(t *testing.T) {
	d := simpleMce()
	d.DefaultStripeSize.Channels = 100
	d.EdgeStripeSize.Channels = 100
	d.NumStripes.Channels = 1 // stripe 0 is always the (only) edge
	b := Builder{Caps: register.Capabilities{NumSrams: 16, NumEngines: 4, NumOgsPerEmc: 4, NumPleLanes: 4, TotalSramBytes: 1 << 16}}
	cmd := b.StartMceStripe(d, 0)
	assert.Equal(t, uint32(4), cmd.CeEnables)
}

func TestConfigMceif_SizesFromBlockDimensions(t *testing.T) {
	d := simpleMce()
	cmd := Builder{}.ConfigMceif(d)
	assert.Equal(t, PleMceifSizing(8, 8), cmd.PleMceifConfig)
}

func TestActiveSubmaps_UnstridedAlwaysSelectsSubmapZero(t *testing.T) {
	d := simpleMce()
	got := ActiveSubmaps(d, model.TensorSize{})
	assert.Equal(t, []int{0}, got)
}

func TestActiveSubmaps_StridedSelectsPhase(t *testing.T) {
	d := simpleMce()
	d.ConvStrideX, d.ConvStrideY = 2, 2
	got := ActiveSubmaps(d, model.TensorSize{Height: 1, Width: 1})
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0]) // (1 % 2) + (1 % 2) * 2 == 3
}

func TestClampReluBound(t *testing.T) {
	assert.Equal(t, uint32(0), clampReluBound(-5))
	assert.Equal(t, uint32(0xFFFF), clampReluBound(100000))
	assert.Equal(t, uint32(42), clampReluBound(42))
}
