// Package dma computes per-stripe DRAM<->SRAM transfer register values for the IFM
// and OFM streamers, the weight streamer, and the PLE loader's first step.
// Grounded on DmaRegisters.hpp/DmaRegisters.cpp's stripe-coordinate and
// chunking helpers (SPEC_FULL.md §4.2).
package dma

import (
	"github.com/npucs/npucs/model"
	"github.com/npucs/npucs/register"
)

// brickGroupHalfDepth is the channel depth of one NHWCB brick group cell (8x8x16,
// stored as two depth-8 halves). A stripe whose channel extent exceeds the
// active SRAM count chunks along channels in units of this half-depth —
// DmaRegisters.cpp's "isSramChannelStrided" path.
const brickGroupHalfDepth = 8

// Builder computes DmaCommand payloads. Caps parameterizes the SRAM/engine counts
// per register.Capabilities (SPEC_FULL.md §6.2); the zero Builder targets
// register.DefaultCapabilities.
type Builder struct {
	Caps register.Capabilities
}

func (b Builder) caps() register.Capabilities {
	if b.Caps.NumSrams == 0 {
		return register.DefaultCapabilities()
	}
	return b.Caps
}

// coord decodes stripeID into a 3-D coordinate plus edge flags and the stripe's
// actual extent in each dimension, shared by every stripe-streaming format
// (SPEC_FULL.md §4.2 "Stripe coordinate decoding").
func coord(stripeID uint32, strides, numStripes, defaultSize, edgeSize model.TensorSize) (c model.TensorSize, extent model.TensorSize) {
	var atEdge [3]bool
	c, atEdge = model.Coord(stripeID, strides, numStripes)
	extent.Height = model.StripeExtent(atEdge[0], defaultSize.Height, edgeSize.Height)
	extent.Width = model.StripeExtent(atEdge[1], defaultSize.Width, edgeSize.Width)
	extent.Channels = model.StripeExtent(atEdge[2], defaultSize.Channels, edgeSize.Channels)
	return c, extent
}

// NumIfmChunks returns the number of LoadIfmStripe commands the scheduler must emit
// for this stripe, computable without actually building any command (SPEC_FULL.md
// §4.2 "chunk count as pure function").
func (b Builder) NumIfmChunks(d *model.IfmSDesc, stripeID uint32) uint32 {
	if d.PackedBoundaryThickness.AnyNonZero() {
		return uint32(len(activeRegions(d, stripeID)))
	}
	if d.FmData.DataType == model.NHWCB {
		_, extent := coord(stripeID, d.FmData.StripeIDStrides, d.FmData.NumStripes, d.FmData.DefaultStripeSize, d.FmData.EdgeStripeSize)
		if extent.Channels > b.caps().NumSrams {
			return ceilDiv(extent.Channels, brickGroupHalfDepth)
		}
	}
	return 1
}

// NumOfmChunks returns the number of StoreOfmStripe commands for this stripe. OFM
// streaming never uses packed boundary (that is an IFM-only concept), but NHWCB
// partial-depth writes still chunk per brickgroup row.
func (Builder) NumOfmChunks(d *model.OfmSDesc, stripeID uint32) uint32 {
	if d.FmData.DataType != model.NHWCB {
		return 1
	}
	_, extent := coord(stripeID, d.FmData.StripeIDStrides, d.FmData.NumStripes, d.FmData.DefaultStripeSize, d.FmData.EdgeStripeSize)
	cell := d.FmData.DataType.CellShape()
	if extent.Channels%cell.Channels != 0 {
		return ceilDiv(extent.Height, cell.Height)
	}
	return 1
}

// region identifies one of the up to four packed-boundary SRAM regions a stripe's
// slot is split into (SPEC_FULL.md §4.2 "Packed boundary").
type region int

const (
	regionCentre region = iota
	regionRight
	regionBottom
	regionBottomRight
)

// activeRegions reports which regions are present for this stripe, in the fixed
// Centre/Right/Bottom/BottomRight order the scheduler's chunkId indexes into.
func activeRegions(d *model.IfmSDesc, stripeID uint32) []region {
	c, _ := coord(stripeID, d.FmData.StripeIDStrides, d.FmData.NumStripes, d.FmData.DefaultStripeSize, d.FmData.EdgeStripeSize)
	onLeftEdge := c.Width == 0
	onTopEdge := c.Height == 0

	right := d.PackedBoundaryThickness.Left > 0 && !onLeftEdge
	bottom := d.PackedBoundaryThickness.Top > 0 && !onTopEdge

	regions := []region{regionCentre}
	if right {
		regions = append(regions, regionRight)
	}
	if bottom {
		regions = append(regions, regionBottom)
	}
	if right && bottom {
		regions = append(regions, regionBottomRight)
	}
	return regions
}

// LoadIfmStripe computes the chunkIdx-th LoadIfmStripe transfer for an IFM
// streamer's stripe. chunkIdx must be in [0, NumIfmChunks(d, stripeID)).
func (b Builder) LoadIfmStripe(d *model.IfmSDesc, stripeID, chunkIdx uint32) model.DmaCommand {
	c, extent := coord(stripeID, d.FmData.StripeIDStrides, d.FmData.NumStripes, d.FmData.DefaultStripeSize, d.FmData.EdgeStripeSize)

	dramOffset := d.FmData.DramOffset +
		c.Height*d.FmData.DefaultStripeSize.Height*d.FmData.SupertensorSizeInCells.Width*d.FmData.SupertensorSizeInCells.Channels +
		c.Width*d.FmData.DefaultStripeSize.Width*d.FmData.SupertensorSizeInCells.Channels +
		c.Channels*d.FmData.DefaultStripeSize.Channels

	sramAddr := d.Tile.Slot(stripeID)
	width, height, channels := extent.Width, extent.Height, extent.Channels

	if d.FmData.DataType != model.NHWCB && channels > b.caps().NumSrams {
		model.Violate("dma", "LoadIfmStripe: NHWC channels (%d) cannot be split across %d SRAMs", channels, b.caps().NumSrams)
	}

	var emcMask uint32
	channelChunked := d.FmData.DataType == model.NHWCB && !d.PackedBoundaryThickness.AnyNonZero() && channels > b.caps().NumSrams
	switch {
	case d.PackedBoundaryThickness.AnyNonZero():
		regions := activeRegions(d, stripeID)
		r := regions[chunkIdx]
		sramAddr += uint32(r) * d.Tile.SlotSize / uint32(len(regions))
		numActiveEmcs := channels
		if numActiveEmcs > b.caps().NumSrams {
			numActiveEmcs = b.caps().NumSrams
		}
		emcMask = uint32(1)<<numActiveEmcs - 1
	case channelChunked:
		// DmaRegisters.cpp's isSramChannelStrided path: channel depth beyond what
		// the SRAM bank count can take in one transfer is split into brick-group
		// halves; on a 16-EMC machine odd halves land on the top 8 EMCs so each
		// half's data stays aligned within its bank.
		remaining := channels - chunkIdx*brickGroupHalfDepth
		chunkDepth := remaining
		if chunkDepth > brickGroupHalfDepth {
			chunkDepth = brickGroupHalfDepth
		}
		dramOffset += chunkIdx * brickGroupHalfDepth
		sramAddr += chunkIdx * brickGroupHalfDepth * d.Tile.SlotSize / channels
		onlyLast8EmcsRequired := chunkIdx%2 != 0 && b.caps().NumSrams == 16
		numActiveEmcs := chunkDepth
		if numActiveEmcs > b.caps().NumSrams {
			numActiveEmcs = b.caps().NumSrams
		}
		emcMask = uint32(1)<<numActiveEmcs - 1
		if onlyLast8EmcsRequired {
			emcMask <<= brickGroupHalfDepth
		}
		channels = chunkDepth
	default:
		numActiveEmcs := channels
		if numActiveEmcs > b.caps().NumSrams {
			numActiveEmcs = b.caps().NumSrams
		}
		emcMask = uint32(1)<<numActiveEmcs - 1
	}

	format := formatFor(d.FmData.DataType)
	innerStride := width * channels
	totalBytes := transferBytes(width, height, channels, d.FmData.DataType)

	return model.DmaCommand{
		DramOffset:    dramOffset,
		SramAddr:      register.EncodeSramAddr(sramAddr),
		DmaSramStride: register.EncodeDmaSramStride(d.Tile.SlotSize),
		DmaStride0:    register.EncodeDmaStride0(innerStride),
		DmaTotalBytes: register.EncodeDmaTotalBytes(totalBytes),
		DmaChannels:   register.EncodeDmaChannels(emcMask),
		DmaEmcs:       register.EncodeDmaEmcs(emcMask),
		DmaCmd:        register.EncodeDmaCmd(0),
		DmaCompConfig0: register.EncodeDmaCompConfig0(format, true),
	}
}

// StoreOfmStripe computes the chunkIdx-th StoreOfmStripe transfer for an OFM
// streamer's stripe — structurally the mirror of LoadIfmStripe, writing instead of
// reading, with no packed-boundary concept.
func (b Builder) StoreOfmStripe(d *model.OfmSDesc, stripeID, chunkIdx uint32) model.DmaCommand {
	c, extent := coord(stripeID, d.FmData.StripeIDStrides, d.FmData.NumStripes, d.FmData.DefaultStripeSize, d.FmData.EdgeStripeSize)

	dramOffset := d.FmData.DramOffset +
		c.Height*d.FmData.DefaultStripeSize.Height*d.FmData.SupertensorSizeInCells.Width*d.FmData.SupertensorSizeInCells.Channels +
		c.Width*d.FmData.DefaultStripeSize.Width*d.FmData.SupertensorSizeInCells.Channels +
		c.Channels*d.FmData.DefaultStripeSize.Channels

	sramAddr := d.Tile.Slot(stripeID)
	width, height, channels := extent.Width, extent.Height, extent.Channels

	if d.FmData.DataType != model.NHWCB && channels > b.caps().NumSrams {
		model.Violate("dma", "StoreOfmStripe: NHWC channels (%d) cannot be split across %d SRAMs", channels, b.caps().NumSrams)
	}

	cell := d.FmData.DataType.CellShape()
	if d.FmData.DataType == model.NHWCB && cell.Height > 0 {
		rowsPerChunk := cell.Height
		dramOffset += chunkIdx * rowsPerChunk * d.FmData.SupertensorSizeInCells.Width * d.FmData.SupertensorSizeInCells.Channels
		sramAddr += chunkIdx * rowsPerChunk * d.Tile.SlotSize / ceilDiv(height, rowsPerChunk)
		if height > rowsPerChunk {
			height = rowsPerChunk
		}
	}

	format := formatFor(d.FmData.DataType)
	innerStride := width * channels
	totalBytes := transferBytes(width, height, channels, d.FmData.DataType)
	numActiveEmcs := channels
	if numActiveEmcs > b.caps().NumSrams {
		numActiveEmcs = b.caps().NumSrams
	}
	emcMask := uint32(1)<<numActiveEmcs - 1

	return model.DmaCommand{
		DramOffset:    dramOffset,
		SramAddr:      register.EncodeSramAddr(sramAddr),
		DmaSramStride: register.EncodeDmaSramStride(d.Tile.SlotSize),
		DmaStride0:    register.EncodeDmaStride0(innerStride),
		DmaTotalBytes: register.EncodeDmaTotalBytes(totalBytes),
		DmaChannels:   register.EncodeDmaChannels(emcMask),
		DmaEmcs:       register.EncodeDmaEmcs(emcMask),
		DmaCmd:        register.EncodeDmaCmd(4),
		DmaCompConfig0: register.EncodeDmaCompConfig0(format, true),
	}
}

// LoadWgtStripe computes the single, never-chunked transfer for a weight
// streamer's stripe.
func (b Builder) LoadWgtStripe(d *model.WgtSDesc, stripeID uint32) model.DmaCommand {
	ifmCoord := dimCoord(stripeID, d.StripeIDStrides.IfmChannels, d.NumStripes.IfmChannels)
	ofmCoord := dimCoord(stripeID, d.StripeIDStrides.OfmChannels, d.NumStripes.OfmChannels)
	idx := ifmCoord*d.NumStripes.OfmChannels + ofmCoord
	var meta model.WeightsMetadata
	if int(idx) < len(d.Metadata) {
		meta = d.Metadata[idx]
	}

	emcMask := uint32(1)<<b.caps().NumSrams - 1
	return model.DmaCommand{
		DramOffset:    meta.Offset,
		SramAddr:      register.EncodeSramAddr(d.Tile.Slot(stripeID)),
		DmaSramStride: register.EncodeDmaSramStride(d.Tile.SlotSize),
		DmaTotalBytes: register.EncodeDmaTotalBytes(meta.Size),
		DmaChannels:   register.EncodeDmaChannels(emcMask),
		DmaEmcs:       register.EncodeDmaEmcs(emcMask),
		DmaCmd:        register.EncodeDmaCmd(0),
		DmaCompConfig0: register.EncodeDmaCompConfig0(DmaFormatWeightStream, false),
	}
}

// LoadPleCodeIntoSram computes the DRAM->SRAM half of a PLE-kernel load. The
// broadcast format fans the transfer out across every PLE engine rather than
// every SRAM bank.
func (b Builder) LoadPleCodeIntoSram(d *model.PleLDesc) model.DmaCommand {
	emcMask := uint32(1)<<b.caps().NumEngines - 1
	return model.DmaCommand{
		SramAddr:    register.EncodeSramAddr(d.SramAddr),
		DmaChannels: register.EncodeDmaChannels(emcMask),
		DmaEmcs:     register.EncodeDmaEmcs(emcMask),
		DmaCmd:      register.EncodeDmaCmd(0),
		DmaCompConfig0: register.EncodeDmaCompConfig0(DmaFormatBroadcast, false),
	}
}

// DmaFormatWeightStream and DmaFormatBroadcast alias the register package's
// enumerators so callers outside this package never need to import register
// directly for DMA-builder calls.
const (
	DmaFormatWeightStream = register.DmaFormatWeightStream
	DmaFormatBroadcast    = register.DmaFormatBroadcast
)

func formatFor(t model.DataType) register.DmaFormat {
	switch t {
	case model.NHWCB:
		return register.DmaFormatNHWCB
	case model.FcafDeep:
		return register.DmaFormatFcafDeep
	case model.FcafWide:
		return register.DmaFormatFcafWide
	default:
		return register.DmaFormatNHWC
	}
}

// transferBytes is the total byte count of a width x height x channels region in
// the given layout, rounding FCAF transfers up to whole cells (SPEC_FULL.md §4.2).
func transferBytes(width, height, channels uint32, t model.DataType) uint32 {
	if !t.IsFcaf() {
		return width * height * channels
	}
	cell := t.CellShape()
	cellsW := ceilDiv(width, cell.Width)
	cellsH := ceilDiv(height, cell.Height)
	cellsC := ceilDiv(channels, cell.Channels)
	return cellsW * cellsH * cellsC * cell.Width * cell.Height * cell.Channels
}

func dimCoord(stripeID, stride, numStripes uint32) uint32 {
	if stride == 0 || numStripes == 0 {
		return 0
	}
	return (stripeID / stride) % numStripes
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
