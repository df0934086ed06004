// Package ple computes the 8-word scratch-register payload for a PLE stripe.
// Grounded on PleRegisters.cpp's per-kernel scratch layouts (SPEC_FULL.md §4.4).
package ple

import (
	"github.com/npucs/npucs/model"
)

// Builder computes StartPleStripe payloads. Stateless.
type Builder struct{}

const (
	flagTop = 1 << iota
	flagBottom
	flagLeft
	flagRight
)

// StartPleStripe builds the kernel-specific 8x32-bit scratch block for one PLE
// stripe.
func (Builder) StartPleStripe(d *model.PleSDesc, stripeID uint32) model.StartPleStripeCommand {
	switch d.Op.Kernel {
	case model.PleKernelMaxpool1D:
		return model.StartPleStripeCommand{Scratch: maxPool1D(d, stripeID)}
	case model.PleKernelMultiplication:
		return model.StartPleStripeCommand{Scratch: multiplication(d, stripeID)}
	default:
		return model.StartPleStripeCommand{Scratch: stripeInfo(d, stripeID)}
	}
}

func geometry(d *model.PleSDesc, stripeID uint32) (coord, extent model.TensorSize, atEdge [3]bool) {
	coord, atEdge = model.Coord(stripeID, d.StripeIDStrides, d.NumStripes)
	extent.Height = model.StripeExtent(atEdge[0], d.DefaultStripeSize.Height, d.EdgeStripeSize.Height)
	extent.Width = model.StripeExtent(atEdge[1], d.DefaultStripeSize.Width, d.EdgeStripeSize.Width)
	extent.Channels = model.StripeExtent(atEdge[2], d.DefaultStripeSize.Channels, d.EdgeStripeSize.Channels)
	return coord, extent, atEdge
}

func maxPool1D(d *model.PleSDesc, stripeID uint32) [8]uint32 {
	_, extent, _ := geometry(d, stripeID)
	fullInputDim := d.DefaultStripeSize.Width
	if isDirectionY(d.Op.Params) {
		fullInputDim = d.DefaultStripeSize.Height
	}
	padBefore := uint32(0)
	poolingSize := uint32(d.Op.Params["pooling_size"])

	ifmAddr := d.IfmTile0.Slot(stripeID)
	ofmAddr := d.OfmTile.Slot(stripeID)

	return [8]uint32{
		extent.Width, extent.Height, extent.Channels,
		fullInputDim, ifmAddr, ofmAddr, padBefore, poolingSize,
	}
}

func isDirectionY(params map[string]int32) bool {
	if params == nil {
		return false
	}
	return params["is_direction_x"] == 0 && params["is_direction_y"] != 0
}

func multiplication(d *model.PleSDesc, stripeID uint32) [8]uint32 {
	_, extent, _ := geometry(d, stripeID)
	pack16 := func(lo, hi uint16) uint32 { return uint32(lo) | uint32(hi)<<16 }

	multiplier := uint32(d.Op.Params["multiplier"])
	shift := uint32(d.Op.Params["shift"])

	return [8]uint32{
		pack16(uint16(extent.Width), uint16(extent.Height)),
		pack16(uint16(extent.Channels), uint16(d.OfmZeroPoint)),
		pack16(uint16(multiplier), uint16(shift)),
		pack16(uint16(d.IfmInfo0.ZeroPoint), uint16(d.IfmInfo1.ZeroPoint)),
		d.IfmTile0.Slot(stripeID) / 16,
		d.IfmTile1.Slot(stripeID) / 16,
		d.OfmTile.Slot(stripeID) / 16,
		0,
	}
}

// stripeInfo packs the general-purpose StripeInfo layout shared by every PLE
// kernel without a bespoke scratch format.
func stripeInfo(d *model.PleSDesc, stripeID uint32) [8]uint32 {
	coord, extent, atEdge := geometry(d, stripeID)

	var flags uint32
	if coord.Height == 0 {
		flags |= flagTop
	}
	if atEdge[0] {
		flags |= flagBottom
	}
	if coord.Width == 0 {
		flags |= flagLeft
	}
	if atEdge[1] {
		flags |= flagRight
	}

	dfcAddr := d.OfmTile.Slot(stripeID) / 16
	if flags&flagBottom != 0 && extent.Height < d.DefaultStripeSize.Height {
		dfcAddr += d.OfmTile.SlotSize / 16
	}

	in0Addr, in1Addr := uint32(0), uint32(0)
	mceOpTag := uint32(0)
	switch d.InputMode {
	case model.MceAllOgs, model.MceOneOg:
		mceOpTag = 1
	default:
		in0Addr = d.IfmTile0.Slot(stripeID) / 16
		in1Addr = d.IfmTile1.Slot(stripeID) / 16
	}

	in0 := uint32(uint16(d.IfmInfo0.ZeroPoint)) | in0Addr<<16
	in1 := uint32(uint16(d.IfmInfo1.ZeroPoint)) | in1Addr<<16

	return [8]uint32{
		flags,
		in0,
		in1,
		dfcAddr | uint32(uint16(d.OfmZeroPoint))<<16,
		extent.Width,
		extent.Height,
		extent.Channels,
		mceOpTag,
	}
}
