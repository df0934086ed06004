package ple

import (
	"testing"

	"github.com/npucs/npucs/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simplePle(kernel model.PleKernelID, params map[string]int32) *model.PleSDesc {
	return &model.PleSDesc{
		Op:                &model.PleOp{Kernel: kernel, Params: params},
		OfmTile:           model.Tile{BaseAddr: 0x1000, NumSlots: 2, SlotSize: 256},
		IfmTile0:          model.Tile{BaseAddr: 0x2000, NumSlots: 2, SlotSize: 256},
		IfmTile1:          model.Tile{BaseAddr: 0x3000, NumSlots: 2, SlotSize: 256},
		DefaultStripeSize: model.TensorSize{Height: 8, Width: 8, Channels: 16},
		EdgeStripeSize:    model.TensorSize{Height: 4, Width: 4, Channels: 16},
		NumStripes:        model.TensorSize{Height: 2, Width: 2, Channels: 1},
		StripeIDStrides:   model.TensorSize{Height: 1, Width: 2, Channels: 1},
	}
}

func TestStartPleStripe_Maxpool1D_PacksDimsAndAddresses(t *testing.T) {
	d := simplePle(model.PleKernelMaxpool1D, map[string]int32{"pooling_size": 3})
	cmd := Builder{}.StartPleStripe(d, 0)

	assert.Equal(t, d.DefaultStripeSize.Width, cmd.Scratch[0])
	assert.Equal(t, d.DefaultStripeSize.Height, cmd.Scratch[1])
	assert.Equal(t, uint32(3), cmd.Scratch[7])
}

func TestStartPleStripe_Maxpool1D_DirectionY_UsesHeightAsFullInputDim(t *testing.T) {
	d := simplePle(model.PleKernelMaxpool1D, map[string]int32{"is_direction_x": 0, "is_direction_y": 1})
	cmd := Builder{}.StartPleStripe(d, 0)
	assert.Equal(t, d.DefaultStripeSize.Height, cmd.Scratch[3])
}

func TestStartPleStripe_Multiplication_PacksMultiplierAndShift(t *testing.T) {
	d := simplePle(model.PleKernelMultiplication, map[string]int32{"multiplier": 7, "shift": 2})
	cmd := Builder{}.StartPleStripe(d, 0)
	want := uint32(7) | uint32(2)<<16
	assert.Equal(t, want, cmd.Scratch[2])
}

func TestStartPleStripe_StripeInfo_FlagsTopLeftOnFirstStripe(t *testing.T) {
	d := simplePle(model.PleKernelPassthrough, nil)
	cmd := Builder{}.StartPleStripe(d, 0)
	require.NotZero(t, cmd.Scratch[0]&flagTop)
	require.NotZero(t, cmd.Scratch[0]&flagLeft)
}

func TestStartPleStripe_StripeInfo_MceOpTagSetForMceInput(t *testing.T) {
	d := simplePle(model.PleKernelPassthrough, nil)
	d.InputMode = model.MceAllOgs
	cmd := Builder{}.StartPleStripe(d, 0)
	assert.Equal(t, uint32(1), cmd.Scratch[7])
}

func TestStartPleStripe_StripeInfo_SramInputAddressesNonZero(t *testing.T) {
	d := simplePle(model.PleKernelPassthrough, nil)
	d.InputMode = model.SramTwoInputs
	cmd := Builder{}.StartPleStripe(d, 1)
	assert.NotEqual(t, uint32(0), cmd.Scratch[1], "in0's packed SRAM address should be non-zero")
	assert.Equal(t, uint32(0), cmd.Scratch[7], "mceOpTag stays 0 for SRAM input modes")
}
