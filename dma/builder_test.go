package dma

import (
	"testing"

	"github.com/npucs/npucs/model"
	"github.com/npucs/npucs/register"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleIfm() *model.IfmSDesc {
	return &model.IfmSDesc{
		FmData: model.FmSDesc{
			DataType:          model.NHWC,
			DramOffset:        0,
			Tile:              model.Tile{BaseAddr: 0x1000, NumSlots: 2, SlotSize: 256},
			DefaultStripeSize: model.TensorSize{Height: 4, Width: 4, Channels: 16},
			EdgeStripeSize:    model.TensorSize{Height: 2, Width: 2, Channels: 16},
			NumStripes:        model.TensorSize{Height: 2, Width: 1, Channels: 1},
			StripeIDStrides:   model.TensorSize{Height: 1, Width: 1, Channels: 1},
		},
	}
}

func TestNumIfmChunks_NoPackedBoundary_IsOne(t *testing.T) {
	d := simpleIfm()
	assert.Equal(t, uint32(1), Builder{}.NumIfmChunks(d, 0))
}

func TestNumIfmChunks_PackedBoundaryBothAxes_IsFour(t *testing.T) {
	d := simpleIfm()
	d.PackedBoundaryThickness = model.PackedBoundaryThickness{Left: 1, Top: 1}
	// Stripe 1 is at height coord 1, width coord 0 (not on the left/top edge in
	// width, but coord.Height>0 and coord.Width==0 means onLeftEdge is true for
	// width; use a stripe away from both edges by widening NumStripes.Width.
	d.FmData.NumStripes.Width = 2
	assert.Equal(t, uint32(4), Builder{}.NumIfmChunks(d, 3)) // coord = {h:1, w:1}
}

func TestLoadIfmStripe_EdgeStripeUsesEdgeExtent(t *testing.T) {
	d := simpleIfm()
	b := Builder{}
	cmd := b.LoadIfmStripe(d, 1, 0) // last height stripe -> edge extent in every dim
	require.NotZero(t, cmd.SramAddr)
	// width and channels always land on their (sole) edge stripe regardless of
	// stripeID here, so the edge transfer is height(2)*width(2)*channels(16) bytes
	assert.Equal(t, register.EncodeDmaTotalBytes(2*2*16), cmd.DmaTotalBytes)
}

func TestLoadIfmStripe_DefaultStripeUsesDefaultHeightExtent(t *testing.T) {
	d := simpleIfm()
	b := Builder{}
	cmd := b.LoadIfmStripe(d, 0, 0)
	// stripe 0 is not the height edge, but width/channels only have one stripe
	// each so they're still at their edge extent
	assert.Equal(t, register.EncodeDmaTotalBytes(4*2*16), cmd.DmaTotalBytes)
}

func TestStoreOfmStripe_NHWC_NeverChunks(t *testing.T) {
	d := &model.OfmSDesc{FmData: simpleIfm().FmData}
	assert.Equal(t, uint32(1), Builder{}.NumOfmChunks(d, 0))
}

func TestStoreOfmStripe_NHWCBPartialDepth_Chunks(t *testing.T) {
	d := &model.OfmSDesc{FmData: model.FmSDesc{
		DataType:          model.NHWCB,
		Tile:              model.Tile{BaseAddr: 0, NumSlots: 1, SlotSize: 4096},
		DefaultStripeSize: model.TensorSize{Height: 16, Width: 8, Channels: 8}, // not a multiple of cell.Channels=16
		EdgeStripeSize:    model.TensorSize{Height: 16, Width: 8, Channels: 8},
		NumStripes:        model.TensorSize{Height: 1, Width: 1, Channels: 1},
		StripeIDStrides:   model.TensorSize{Height: 1, Width: 1, Channels: 1},
	}}
	n := Builder{}.NumOfmChunks(d, 0)
	assert.Equal(t, uint32(2), n) // ceilDiv(16, 8) cell rows
}

func TestNumIfmChunks_NHWCBWideChannels_ChunksByBrickGroupHalfDepth(t *testing.T) {
	d := &model.IfmSDesc{FmData: model.FmSDesc{
		DataType:          model.NHWCB,
		Tile:              model.Tile{BaseAddr: 0, NumSlots: 1, SlotSize: 4096},
		DefaultStripeSize: model.TensorSize{Height: 8, Width: 8, Channels: 24},
		EdgeStripeSize:    model.TensorSize{Height: 8, Width: 8, Channels: 24},
		NumStripes:        model.TensorSize{Height: 1, Width: 1, Channels: 1},
		StripeIDStrides:   model.TensorSize{Height: 1, Width: 1, Channels: 1},
	}}
	b := Builder{Caps: register.Capabilities{NumSrams: 16, NumEngines: 8, NumOgsPerEmc: 4, NumPleLanes: 8, TotalSramBytes: 1 << 20}}
	assert.Equal(t, uint32(3), b.NumIfmChunks(d, 0)) // 24 channels / 8-deep halves
}

func TestLoadIfmStripe_NHWCBOddChannelChunk_ShiftsEmcMaskToTop8(t *testing.T) {
	d := &model.IfmSDesc{FmData: model.FmSDesc{
		DataType:          model.NHWCB,
		Tile:              model.Tile{BaseAddr: 0, NumSlots: 1, SlotSize: 4096},
		DefaultStripeSize: model.TensorSize{Height: 8, Width: 8, Channels: 24},
		EdgeStripeSize:    model.TensorSize{Height: 8, Width: 8, Channels: 24},
		NumStripes:        model.TensorSize{Height: 1, Width: 1, Channels: 1},
		StripeIDStrides:   model.TensorSize{Height: 1, Width: 1, Channels: 1},
	}}
	b := Builder{Caps: register.Capabilities{NumSrams: 16, NumEngines: 8, NumOgsPerEmc: 4, NumPleLanes: 8, TotalSramBytes: 1 << 20}}

	evenChunk := b.LoadIfmStripe(d, 0, 0)
	oddChunk := b.LoadIfmStripe(d, 0, 1)

	wantEven := register.EncodeDmaEmcs(uint32(1)<<8 - 1)
	wantOdd := register.EncodeDmaEmcs((uint32(1)<<8 - 1) << 8)
	assert.Equal(t, wantEven, evenChunk.DmaEmcs)
	assert.Equal(t, wantOdd, oddChunk.DmaEmcs)
}

func TestLoadIfmStripe_NHWCChannelsWiderThanSrams_Panics(t *testing.T) {
	d := &model.IfmSDesc{FmData: model.FmSDesc{
		DataType:          model.NHWC,
		Tile:              model.Tile{BaseAddr: 0, NumSlots: 1, SlotSize: 256},
		DefaultStripeSize: model.TensorSize{Height: 1, Width: 1, Channels: 32},
		EdgeStripeSize:    model.TensorSize{Height: 1, Width: 1, Channels: 32},
		NumStripes:        model.TensorSize{Height: 1, Width: 1, Channels: 1},
		StripeIDStrides:   model.TensorSize{Height: 1, Width: 1, Channels: 1},
	}}
	assert.Panics(t, func() { Builder{}.LoadIfmStripe(d, 0, 0) })
}

func TestLoadWgtStripe_UsesMetadataAtComputedIndex(t *testing.T) {
	d := &model.WgtSDesc{
		Tile:            model.Tile{BaseAddr: 0, NumSlots: 4, SlotSize: 64},
		NumStripes:      model.WgtSWorkSize{OfmChannels: 2, IfmChannels: 2},
		StripeIDStrides: model.WgtSWorkSize{OfmChannels: 1, IfmChannels: 2},
		Metadata: []model.WeightsMetadata{
			{Offset: 0x100, Size: 16},
			{Offset: 0x200, Size: 32},
			{Offset: 0x300, Size: 48},
			{Offset: 0x400, Size: 64},
		},
	}
	cmd := Builder{}.LoadWgtStripe(d, 3)
	assert.Equal(t, register.EncodeDmaTotalBytes(d.Metadata[3].Size), cmd.DmaTotalBytes)
	assert.Equal(t, d.Metadata[3].Offset, cmd.DramOffset)
}

func TestLoadPleCodeIntoSram_UsesBroadcastFormat(t *testing.T) {
	d := &model.PleLDesc{SramAddr: 0x2000}
	cmd := Builder{}.LoadPleCodeIntoSram(d)
	assert.Equal(t, register.EncodeSramAddr(0x2000), cmd.SramAddr)
}

func TestCapabilities_ZeroBuilderFallsBackToDefaults(t *testing.T) {
	withCaps := Builder{Caps: register.Capabilities{NumSrams: 4, NumEngines: 2, NumOgsPerEmc: 1, NumPleLanes: 1, TotalSramBytes: 1}}
	d := &model.WgtSDesc{Tile: model.Tile{NumSlots: 1, SlotSize: 16}, Metadata: []model.WeightsMetadata{{Size: 8}}}

	wantDefault := Builder{}.LoadWgtStripe(d, 0).DmaChannels
	gotCustom := withCaps.LoadWgtStripe(d, 0).DmaChannels
	assert.NotEqual(t, wantDefault, gotCustom, "a non-default NumSrams must change the emitted EMC mask")
}
