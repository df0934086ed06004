// Package mce computes the MCE's per-stripe ProgramMceStripe/StartMceStripe
// payloads and the once-per-kernel-identity ConfigMceif payload. Grounded on
// MceRegisters.hpp/MceSRegisters.cpp's per-stripe programming sequence
// (SPEC_FULL.md §4.3).
package mce

import (
	"github.com/npucs/npucs/model"
	"github.com/npucs/npucs/register"
)

// Builder computes MCE command payloads. Caps parameterizes the SRAM/engine counts
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

func filterModeFor(op model.MceOpMode) register.FilterMode {
	switch op {
	case model.Depthwise:
		return register.FilterDepthwiseSeparable
	case model.FullyConnected:
		return register.FilterVectorProduct
	default:
		return register.FilterNxM
	}
}

func resamplingFor(u model.UpsampleType) register.ResamplingMode {
	switch u {
	case model.UpsampleTranspose:
		return register.ResamplingTranspose
	case model.UpsampleNearest:
		return register.ResamplingNearest
	case model.UpsampleBilinear:
		return register.ResamplingBilinear
	default:
		return register.ResamplingNone
	}
}

// stripeGeometry decodes the coordinate and extents shared by every per-stripe MCE
// field (SPEC_FULL.md §4.2's coordinate law, reused here per §4.3).
func stripeGeometry(d *model.MceSDesc, stripeID uint32) (coord model.TensorSize, extent model.TensorSize, atEdge [3]bool) {
	coord, atEdge = model.Coord(stripeID, d.StripeIDStrides, d.NumStripes)
	extent.Height = model.StripeExtent(atEdge[0], d.DefaultStripeSize.Height, d.EdgeStripeSize.Height)
	extent.Width = model.StripeExtent(atEdge[1], d.DefaultStripeSize.Width, d.EdgeStripeSize.Width)
	extent.Channels = model.StripeExtent(atEdge[2], d.DefaultStripeSize.Channels, d.EdgeStripeSize.Channels)
	return coord, extent, atEdge
}

// ActiveSubmaps returns which of the up to 4 submap slots apply to a stripe at the
// given coordinate, for strided convolution. A stride of 1x1 always selects submap
// 0; a strided filter selects exactly the one submap whose phase
// {coord.Width mod strideX, coord.Height mod strideY} the stripe's position lands
// on, mirroring SubmapFilter.cpp's phase selection (SPEC_FULL.md §6.4).
func ActiveSubmaps(d *model.MceSDesc, coord model.TensorSize) []int {
	if d.ConvStrideX <= 1 && d.ConvStrideY <= 1 {
		return []int{0}
	}
	phase := int(coord.Width%uint32(d.ConvStrideX)) + int(coord.Height%uint32(d.ConvStrideY))*int(d.ConvStrideX)
	if phase >= 4 {
		phase = phase % 4
	}
	return []int{phase}
}

// submapDelta resolves {widthDelta, heightDelta} for submap s at this stripe's
// column/row position: the last column/row uses deltaEdge, the second-to-last uses
// deltaOneFromEdge, everything else uses deltaDefault, saturated to 15 (SPEC_FULL.md
// §4.3).
func submapDelta(s model.SubmapGeometry, atLastCol, atOneFromLastCol, atLastRow, atOneFromLastRow bool) (dw, dh int32) {
	pick := func(deflt, oneFromEdge, edge uint8, atEdge, atOneFromEdge bool) int32 {
		switch {
		case atEdge:
			return int32(edge)
		case atOneFromEdge:
			v := int32(oneFromEdge)
			if v > 15 {
				v = 15
			}
			return v
		default:
			v := int32(deflt)
			if v > 15 {
				v = 15
			}
			return v
		}
	}
	dw = pick(s.IfmDeltaDefault[0], s.IfmDeltaOneFromEdge[0], s.IfmDeltaEdge[0], atLastCol, atOneFromLastCol)
	dh = pick(s.IfmDeltaDefault[1], s.IfmDeltaOneFromEdge[1], s.IfmDeltaEdge[1], atLastRow, atOneFromLastRow)
	return dw, dh
}

// ProgramMceStripe builds the full per-stripe register programming blob.
func (b Builder) ProgramMceStripe(d *model.MceSDesc, stripeID uint32) model.ProgramMceStripeCommand {
	coord, extent, atEdge := stripeGeometry(d, stripeID)

	reluEnable := d.ReluActiv.Min > -32768 || d.ReluActiv.Max < 32767

	ceControl := register.EncodeCeControl(register.CeControlFields{
		IfmPadNActive:    uint32(d.ConvStrideX) * uint32(d.ConvStrideY),
		Resampling:       resamplingFor(d.UpsampleType),
		SignedIfmMode:    d.IsIfmSigned,
		WinogradEnable:   d.Algorithm == model.Winograd,
		ReluEnable:       reluEnable,
		MacAccClrDisable: coord.Channels != 0,
		MacAccOutDis:     d.NumStripes.Channels > 0 && coord.Channels != d.NumStripes.Channels-1,
		OutputOfmSigned:  d.IsOfmSigned,
		UpsampleOddWidth: d.UpsampleEdgeCol,
		UpsampleOddHeight: d.UpsampleEdgeRow,
	})

	// MUL_ENABLE: depthwise uses one multiplier per (ce, og) pair, each CE producing
	// a distinct slice of the OFM channels; every other op mode drives all OGs of
	// every CE from the same shared accumulation, so every multiplier is enabled
	// (MceRegisters.cpp's "config Mul enable in OGs", SPEC_FULL.md §4.3).
	var mulEnable [8][4]uint32
	if d.MceOpMode == model.Depthwise {
		numCes := b.caps().NumEngines
		numOgs := b.caps().NumOgsPerEmc
		for ce := uint32(0); ce < numCes && ce < 8; ce++ {
			numOfmsForCe := ceilDiv(maxU32(extent.Channels, ce)-ce, numCes)
			numOgMulsToEnable := numOgs
			if numOfmsForCe < numOgMulsToEnable {
				numOgMulsToEnable = numOfmsForCe
			}
			for og := uint32(0); og < numOgMulsToEnable && og < 4; og++ {
				mulEnable[ce][og] = register.EncodeMulEnable(1 << ((og * numCes) + ce))
			}
		}
	} else {
		for ce := 0; ce < 8; ce++ {
			for og := 0; og < 4; og++ {
				mulEnable[ce][og] = register.EncodeMulEnable(0xFFFFFFFF)
			}
		}
	}

	groupStride := ceilDiv(extent.Channels, b.caps().NumSrams)
	ifmRowStride := register.EncodeIfmRowStride(d.DefaultStripeSize.Width, d.EdgeStripeSize.Width)
	ifmConfig1 := register.EncodeIfmConfig1(groupStride, extent.Channels)

	var ifmPad [4][4]uint32
	atLastCol, atOneFromLastCol := atEdge[1], d.NumStripes.Width > 1 && coord.Width == d.NumStripes.Width-2
	atLastRow, atOneFromLastRow := atEdge[0], d.NumStripes.Height > 1 && coord.Height == d.NumStripes.Height-2
	var wideKernelOffset uint32
	for _, s := range ActiveSubmaps(d, coord) {
		submap := d.Submaps[s]
		dw, dh := submapDelta(submap, atLastCol, atOneFromLastCol, atLastRow, atOneFromLastRow)
		if d.IsWideFilter {
			wideKernelOffset = register.EncodeWideKernelOffset(
				uint32(submap.FilterShape[0]), uint32(submap.FilterShape[1]), uint32(dw), uint32(dh))
		} else {
			packed := register.EncodeIfmPad(uint32(submap.Padding[0]), uint32(submap.Padding[1]), dw, dh)
			for ig := range ifmPad[s] {
				ifmPad[s][ig] = packed
			}
		}
	}

	topSlots, midSlots, bottomSlots, slotPadCfg := slotRegisters(d, stripeID, coord, atEdge)

	numIfmLocal := extent.Channels
	if d.MceOpMode == model.FullyConnected {
		numIfmLocal = 8
	}
	var ifmConfig2 [8][4]uint32
	for ce := 0; ce < 8; ce++ {
		for ig := 0; ig < 4; ig++ {
			ifmConfig2[ce][ig] = register.EncodeIfmConfig2(numIfmLocal)
		}
	}

	stripeW, stripeH := extent.Width, extent.Height
	if d.MceOpMode == model.FullyConnected {
		stripeW, stripeH = 8, 8
	}
	ofmStripeSize := register.EncodeOfmStripeSize(stripeW, stripeH)
	ofmConfig := register.EncodeOfmConfig(extent.Channels)

	var weightBaseAddr [4]uint32
	weightStripeIdx := stripeID
	if d.NumStripes.Channels == 1 {
		weightStripeIdx = coord.Channels
	}
	slotsPerOg := d.WgtTile.SlotSize / 4
	for og := 0; og < 4; og++ {
		addr := d.WgtTile.Slot(weightStripeIdx) + uint32(og)*slotsPerOg
		weightBaseAddr[og] = register.EncodeWeightBaseAddr(addr)
	}

	var numBlocks uint32
	if atEdge[2] {
		numBlocks = ceilDiv(extent.Width, d.BlockWidth) * ceilDiv(extent.Height, d.BlockHeight) * ceilDiv(extent.Channels, b.caps().NumEngines)
	}

	filter := register.EncodeFilter(filterModeFor(d.MceOpMode))
	depthwiseControl := register.EncodeDepthwiseControl(uint32(d.ConvStrideX) * uint32(d.ConvStrideY))
	blockConfig := register.EncodeStripeBlockConfig(d.BlockWidth, d.BlockHeight, false, register.MceifShuffleFlippedN)

	// "Shared once per agent" fields (SPEC_FULL.md §4.3): the firmware only needs
	// these written on the agent's first stripe, but this builder recomputes them
	// on every stripe — harmless since hardware register writes are idempotent,
	// and simpler than threading a "first stripe of this agent" flag through.
	ifmDefaultSlotSize := register.EncodeIfmDefaultSlotSize(d.DefaultStripeSize.Width, d.DefaultStripeSize.Height)
	ifmSlotStride := register.EncodeIfmSlotStride(d.IfmTile.SlotSize, d.IfmTile.SlotSize)
	ifmZeroPoint := register.EncodeIfmZeroPoint(uint32(uint16(d.IfmZeroPoint)))
	ifmSlotBaseAddress := register.EncodeIfmSlotBaseAddress(register.EncodeSramAddr(d.IfmTile.BaseAddr), 0)
	wideKernelControl := register.EncodeWideKernelControl(d.IsWideFilter, uint32(d.Submaps[0].FilterShape[0]), uint32(d.Submaps[0].FilterShape[1]))
	activationConfig := register.EncodeActivationConfig(clampReluBound(d.ReluActiv.Min), clampReluBound(d.ReluActiv.Max))
	pleMceifConfig := PleMceifSizing(d.BlockWidth, d.BlockHeight)

	return model.ProgramMceStripeCommand{
		CeControl:                 ceControl,
		MulEnable:                 mulEnable,
		IfmRowStride:              ifmRowStride,
		IfmConfig1:                ifmConfig1,
		IfmPad:                    ifmPad,
		WideKernelOffset:          wideKernelOffset,
		IfmTopSlots:               topSlots,
		IfmMidSlots:               midSlots,
		IfmBottomSlots:            bottomSlots,
		IfmSlotPadConfig:          slotPadCfg,
		OfmStripeSize:             ofmStripeSize,
		OfmConfig:                 ofmConfig,
		WeightBaseAddr:            weightBaseAddr,
		IfmConfig2:                ifmConfig2,
		Filter:                    filter,
		DepthwiseControl:          depthwiseControl,
		StripeBlockConfig:         blockConfig,
		IfmDefaultSlotSize:        ifmDefaultSlotSize,
		IfmSlotStride:             ifmSlotStride,
		IfmZeroPoint:              ifmZeroPoint,
		IfmSlotBaseAddress:        ifmSlotBaseAddress,
		WideKernelControl:         wideKernelControl,
		ActivationConfig:          activationConfig,
		PleMceifConfig:            pleMceifConfig,
		NumBlocksProgrammedForMce: numBlocks,
	}
}

func clampReluBound(v int32) uint32 {
	if v < 0 {
		v = 0
	}
	if v > 0xFFFF {
		v = 0xFFFF
	}
	return uint32(v)
}

// slotRegisters resolves the nine logical neighbour positions to IFM tile slots,
// mirroring MceRegisters.cpp's four streaming-strategy layouts: no packed
// boundary ("strategy 0/3/4"), packed boundary in Y only ("strategy 6 XY"),
// packed boundary in X only ("strategy 6 YX"), and packed boundary in both
// ("strategy 7") — plus the residual-column and slot-pad-config bits that track
// whether a neighbour holds a full or a partial stripe (SPEC_FULL.md §4.3, §9).
// IsExtraIfmStripeAtRightEdge/IsExtraIfmStripeAtBottomEdge shift the slot id
// sequence so a VALID-padding extra IFM stripe doesn't collide with a
// boundary-only slot.
func slotRegisters(d *model.MceSDesc, stripeID uint32, coord model.TensorSize, atEdge [3]bool) (top, mid, bottom, padCfg uint32) {
	extraRight := d.IsExtraIfmStripeAtRightEdge
	extraBottom := d.IsExtraIfmStripeAtBottomEdge

	slotID := stripeID
	switch {
	case extraRight && !d.IsPackedBoundaryX && d.IsPackedBoundaryY:
		slotID += coord.Height
	case extraBottom && d.IsPackedBoundaryX && !d.IsPackedBoundaryY:
		slotID += coord.Width
	}

	numSlots := uint32(d.IfmTile.NumSlots)
	prev := (slotID + numSlots - 1) % numSlots
	current := slotID % numSlots
	next := (slotID + 1) % numSlots

	isResidualLeft := false
	isResidualCenter := atEdge[1] && !extraRight && !d.IsPackedBoundaryX
	rightOfmCoord := int64(coord.Width) + 1
	if extraRight {
		rightOfmCoord--
	}
	isResidualRight := rightOfmCoord >= int64(d.NumStripes.Width)-1 && !d.IsPackedBoundaryX

	residuals := func(l, c, r uint32) (le, ce, re register.SlotEntry) {
		return register.SlotEntry{Slot: l, Residual: isResidualLeft},
			register.SlotEntry{Slot: c, Residual: isResidualCenter},
			register.SlotEntry{Slot: r, Residual: isResidualRight}
	}

	var topL, topC, topR, midL, midC, midR, botL, botC, botR register.SlotEntry
	switch {
	case !d.IsPackedBoundaryX && !d.IsPackedBoundaryY:
		topL, topC, topR = residuals(0, prev, 0)
		midL, midC, midR = residuals(prev, current, next)
		botL, botC, botR = residuals(0, next, 0)
	case !d.IsPackedBoundaryX && d.IsPackedBoundaryY:
		topL, topC, topR = residuals(prev, current, next)
		midL, midC, midR = residuals(prev, current, next)
		botL, botC, botR = residuals(0, 0, 0)
	case d.IsPackedBoundaryX && !d.IsPackedBoundaryY:
		topL, topC, topR = residuals(prev, prev, 0)
		midL, midC, midR = residuals(current, current, 0)
		botL, botC, botR = residuals(next, next, 0)
	default: // both packed: all neighbour data already resident in this stripe's own slot
		topL, topC, topR = residuals(current, current, 0)
		midL, midC, midR = residuals(current, current, 0)
		botL, botC, botR = residuals(0, 0, 0)
	}

	top = register.EncodeIfmTopSlots(topL, topC, topR)
	mid = register.EncodeIfmMidSlots(midL, midC, midR)
	bottom = register.EncodeIfmBottomSlots(botL, botC, botR)

	padLeft := coord.Width > 0
	padRight := !atEdge[1] || extraRight
	padTop := coord.Height > 0
	padBottom := !atEdge[0] || extraBottom
	padCfg = register.EncodeIfmSlotPadConfig(padLeft, padRight, padTop, padBottom)
	return top, mid, bottom, padCfg
}

// StartMceStripe builds the CE_ENABLES kick-off command.
func (b Builder) StartMceStripe(d *model.MceSDesc, stripeID uint32) model.StartMceStripeCommand {
	_, extent, _ := stripeGeometry(d, stripeID)
	if d.MceOpMode == model.FullyConnected {
		return model.StartMceStripeCommand{CeEnables: 0}
	}
	enables := extent.Channels
	if enables > b.caps().NumEngines {
		enables = b.caps().NumEngines
	}
	return model.StartMceStripeCommand{CeEnables: enables}
}

// ConfigMceif builds the once-per-PLE-kernel-identity-change MCEIF reconfiguration
// command, sizing the staging buffer from the owning MCE agent's block dimensions
// via PleMceifSizing.
func (Builder) ConfigMceif(d *model.MceSDesc) model.ConfigMceifCommand {
	return model.ConfigMceifCommand{PleMceifConfig: PleMceifSizing(d.BlockWidth, d.BlockHeight)}
}

// PleMceifSizing returns {numBufs, bufSize} for the PLE_MCEIF_CONFIG register,
// packed ready for use, given the block dimensions in force (SPEC_FULL.md §4.3:
// num_bufs = 1024/bufSize, buf_size = blockW*blockH/16).
func PleMceifSizing(blockWidth, blockHeight uint32) uint32 {
	bufSize := blockWidth * blockHeight / 16
	if bufSize == 0 {
		bufSize = 1
	}
	numBufs := uint32(1024) / bufSize
	return register.EncodePleMceifConfig(numBufs, bufSize)
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
