package register

// This file declares every named register from SPEC_FULL.md §4.1 as a Field table
// plus a small Encode* function that packs a descriptor's values into the matching
// 32-bit word. Bit widths, shifts, biases and right-shifts are taken verbatim from
// RegistersLayout.hpp (driver/support_library/src/cascading) so the produced words
// match the firmware ABI bit-for-byte.

// --- SRAM / DMA registers -------------------------------------------------------

var sramAddrField = Field{Name: "sram_addr", Shift: 0, Width: 15, RightShift: 4}

// EncodeSramAddr packs a byte address into the firmware's shifted-by-4 SRAM address
// encoding used by every descriptor that names a slot location.
func EncodeSramAddr(addr uint32) uint32 {
	return sramAddrField.Pack(addr)
}

var (
	dmaChannelsField = Field{Name: "dma_channels", Shift: 0, Width: 16}
	dmaEmcsField     = Field{Name: "dma_emcs", Shift: 0, Width: 16}
	dmaCmdField      = Field{Name: "dma_cmd", Shift: 0, Width: 4}
)

// EncodeDmaChannels packs the per-EMC channel-enable mask.
func EncodeDmaChannels(mask uint32) uint32 { return dmaChannelsField.Pack(mask) }

// EncodeDmaEmcs packs the per-EMC active mask (numActiveEmcs derived bitmask).
func EncodeDmaEmcs(mask uint32) uint32 { return dmaEmcsField.Pack(mask) }

// EncodeDmaCmd packs the DMA engine/command selector: 0..3 for reads, 4..7 for writes.
func EncodeDmaCmd(engine uint32) uint32 { return dmaCmdField.Pack(engine) }

var (
	dmaStride0Field   = Field{Name: "dma_stride0", Shift: 0, Width: 24}
	dmaStride2Field   = Field{Name: "dma_stride2", Shift: 0, Width: 24}
	dmaStride3Field   = Field{Name: "dma_stride3", Shift: 0, Width: 24}
	dmaSramStrideField = Field{Name: "dma_sram_stride", Shift: 0, Width: 24, RightShift: 4}
	dmaTotalBytesField = Field{Name: "dma_total_bytes", Shift: 0, Width: 32}
)

func EncodeDmaStride0(v uint32) uint32    { return dmaStride0Field.Pack(v) }
func EncodeDmaStride2(v uint32) uint32    { return dmaStride2Field.Pack(v) }
func EncodeDmaStride3(v uint32) uint32    { return dmaStride3Field.Pack(v) }
func EncodeDmaSramStride(v uint32) uint32 { return dmaSramStrideField.Pack(v) }
func EncodeDmaTotalBytes(v uint32) uint32 { return dmaTotalBytesField.Pack(v) }

// DmaFormat enumerates the wire encodings of DMA_COMP_CONFIG0's format field.
type DmaFormat uint32

const (
	DmaFormatNHWC DmaFormat = iota
	DmaFormatNHWCB
	DmaFormatFcafWide
	DmaFormatFcafDeep
	DmaFormatWeightStream
	DmaFormatBroadcast
)

var (
	dmaCompConfigFormatField   = Field{Name: "comp_config0_format", Shift: 0, Width: 3}
	dmaCompConfigStripeIdField = Field{Name: "comp_config0_stripe_id_strides", Shift: 3, Width: 1}
)

// EncodeDmaCompConfig0 packs the DMA_COMP_CONFIG0 register: the transfer format and
// whether the stripe-id-based striding path is active (NHWCB chunking).
func EncodeDmaCompConfig0(format DmaFormat, stripeIdStriding bool) uint32 {
	bit := uint32(0)
	if stripeIdStriding {
		bit = 1
	}
	return Pack(
		dmaCompConfigFormatField.Pack(uint32(format)),
		dmaCompConfigStripeIdField.Pack(bit),
	)
}

// --- CE_CONTROL -------------------------------------------------------------

// ResamplingMode mirrors wit_resampling_mode_t.
type ResamplingMode uint32

const (
	ResamplingNone ResamplingMode = iota
	ResamplingTranspose
	ResamplingNearest
	ResamplingBilinear
)

var (
	ceIfmPadNActiveField   = Field{Name: "ifm_pad_n_active", Shift: 0, Width: 4, Bias: 1}
	ceWideMulModeField     = Field{Name: "wide_mul_mode", Shift: 4, Width: 2}
	ceResamplingModeField  = Field{Name: "resampling_mode", Shift: 6, Width: 2}
	ceHorizReinterleave    = Field{Name: "horiz_reinterleave_enable", Shift: 8, Width: 1}
	ceVertReinterleave     = Field{Name: "vert_reinterleave_enable", Shift: 9, Width: 1}
	ceUpsampleOddWidth     = Field{Name: "upsample_2x_odd_width_enable", Shift: 10, Width: 1}
	ceUpsampleOddHeight    = Field{Name: "upsample_2x_odd_height_enable", Shift: 11, Width: 1}
	ceWitBroadcastMode     = Field{Name: "wit_broadcast_mode", Shift: 13, Width: 2}
	ceSignedIfmMode        = Field{Name: "signed_ifm_mode", Shift: 15, Width: 1}
	ceWinogradEnable       = Field{Name: "winograd_enable", Shift: 16, Width: 1}
	ceReluEnable           = Field{Name: "relu_enable", Shift: 17, Width: 1}
	ceOfmBypassEnable      = Field{Name: "ofm_bypass_enable", Shift: 18, Width: 1}
	ceMacAccClrDisable     = Field{Name: "mac_acc_clr_disable", Shift: 19, Width: 1}
	ceMacAccOutDis         = Field{Name: "mac_acc_out_dis", Shift: 20, Width: 1}
	ceOutputOfmDataType    = Field{Name: "output_ofm_data_type", Shift: 21, Width: 2}
)

// CeControlFields is the set of decoded inputs to EncodeCeControl, named after the
// bit-field struct they fill (ce_control_r in the source).
type CeControlFields struct {
	IfmPadNActive        uint32 // strideX * strideY
	WideMulMode          uint32
	Resampling           ResamplingMode
	HorizReinterleave    bool
	VertReinterleave     bool
	UpsampleOddWidth     bool
	UpsampleOddHeight    bool
	WitBroadcastMode     uint32
	SignedIfmMode        bool
	WinogradEnable       bool
	ReluEnable           bool
	OfmBypassEnable      bool
	MacAccClrDisable     bool
	MacAccOutDis         bool
	OutputOfmSigned      bool
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// EncodeCeControl packs ce_control_r per SPEC_FULL.md §4.3's per-stripe field list.
func EncodeCeControl(f CeControlFields) uint32 {
	outType := uint32(0)
	if f.OutputOfmSigned {
		outType = 1
	}
	return Pack(
		ceIfmPadNActiveField.Pack(f.IfmPadNActive),
		ceWideMulModeField.Pack(f.WideMulMode),
		ceResamplingModeField.Pack(uint32(f.Resampling)),
		ceHorizReinterleave.Pack(boolBit(f.HorizReinterleave)),
		ceVertReinterleave.Pack(boolBit(f.VertReinterleave)),
		ceUpsampleOddWidth.Pack(boolBit(f.UpsampleOddWidth)),
		ceUpsampleOddHeight.Pack(boolBit(f.UpsampleOddHeight)),
		ceWitBroadcastMode.Pack(f.WitBroadcastMode),
		ceSignedIfmMode.Pack(boolBit(f.SignedIfmMode)),
		ceWinogradEnable.Pack(boolBit(f.WinogradEnable)),
		ceReluEnable.Pack(boolBit(f.ReluEnable)),
		ceOfmBypassEnable.Pack(boolBit(f.OfmBypassEnable)),
		ceMacAccClrDisable.Pack(boolBit(f.MacAccClrDisable)),
		ceMacAccOutDis.Pack(boolBit(f.MacAccOutDis)),
		ceOutputOfmDataType.Pack(outType),
	)
}

// --- WIDE_KERNEL_CONTROL / WIDE_KERNEL_OFFSET -----------------------------------

var (
	wideKernelEnableField = Field{Name: "wide_kernel_enable", Shift: 0, Width: 1}
	wideFilterWidthField  = Field{Name: "wide_filter_width", Shift: 1, Width: 8, Bias: 1}
	wideFilterHeightField = Field{Name: "wide_filter_height", Shift: 9, Width: 8, Bias: 1}
)

// EncodeWideKernelControl packs whether wide-kernel mode is active and the filter
// dimensions it spans.
func EncodeWideKernelControl(enable bool, filterWidth, filterHeight uint32) uint32 {
	return Pack(
		wideKernelEnableField.Pack(boolBit(enable)),
		wideFilterWidthField.Pack(filterWidth),
		wideFilterHeightField.Pack(filterHeight),
	)
}

var (
	wideFilterOffsetWField = Field{Name: "wide_filter_offset_w", Shift: 0, Width: 8}
	wideFilterOffsetHField = Field{Name: "wide_filter_offset_h", Shift: 8, Width: 8}
	wideDeltaWidthField    = Field{Name: "wide_delta_width", Shift: 16, Width: 8}
	wideDeltaHeightField   = Field{Name: "wide_delta_height", Shift: 24, Width: 8}
)

// EncodeWideKernelOffset packs WIDE_KERNEL_OFFSET, the wide-kernel replacement for
// the four per-submap IFM_PAD registers (SPEC_FULL.md §4.3).
func EncodeWideKernelOffset(offsetW, offsetH, deltaWidth, deltaHeight uint32) uint32 {
	return Pack(
		wideFilterOffsetWField.Pack(offsetW),
		wideFilterOffsetHField.Pack(offsetH),
		wideDeltaWidthField.Pack(deltaWidth),
		wideDeltaHeightField.Pack(deltaHeight),
	)
}

// --- IFM registers ---------------------------------------------------------

var ifmZeroPointField = Field{Name: "ifm_zero_point", Shift: 0, Width: 8}

func EncodeIfmZeroPoint(v uint32) uint32 { return ifmZeroPointField.Pack(v) }

var (
	ifmDefaultSlotWidthField  = Field{Name: "ifm_default_slot_width", Shift: 0, Width: 16}
	ifmDefaultSlotHeightField = Field{Name: "ifm_default_slot_height", Shift: 16, Width: 16}
)

// EncodeIfmDefaultSlotSize packs the always-default (never edge) IFM slot dims, since
// a neighbouring stripe may still occupy a full-size slot (SPEC_FULL.md §4.3).
func EncodeIfmDefaultSlotSize(width, height uint32) uint32 {
	return Pack(
		ifmDefaultSlotWidthField.Pack(width),
		ifmDefaultSlotHeightField.Pack(height),
	)
}

var (
	ifmDefaultSlotStrideField  = Field{Name: "ifm_default_slot_stride", Shift: 0, Width: 15, RightShift: 4}
	ifmBoundarySlotStrideField = Field{Name: "ifm_boundary_slot_stride", Shift: 16, Width: 15, RightShift: 4}
)

func EncodeIfmSlotStride(defaultStride, boundaryStride uint32) uint32 {
	return Pack(
		ifmDefaultSlotStrideField.Pack(defaultStride),
		ifmBoundarySlotStrideField.Pack(boundaryStride),
	)
}

var (
	ifmDefaultRowStrideField  = Field{Name: "ifm_default_row_stride", Shift: 0, Width: 15, RightShift: 4}
	ifmResidualRowStrideField = Field{Name: "ifm_residual_row_stride", Shift: 16, Width: 15, RightShift: 4}
)

func EncodeIfmRowStride(defaultStride, residualStride uint32) uint32 {
	return Pack(
		ifmDefaultRowStrideField.Pack(defaultStride),
		ifmResidualRowStrideField.Pack(residualStride),
	)
}

var (
	ifmGroupStrideField  = Field{Name: "ifm_group_stride", Shift: 0, Width: 15, RightShift: 4}
	numIfmGlobalField    = Field{Name: "num_ifm_global", Shift: 16, Width: 16}
)

func EncodeIfmConfig1(groupStride, numIfmGlobal uint32) uint32 {
	return Pack(
		ifmGroupStrideField.Pack(groupStride),
		numIfmGlobalField.Pack(numIfmGlobal),
	)
}

var ifmConfig2NumLocalField = Field{Name: "num_ifm_local", Shift: 0, Width: 16}

// EncodeIfmConfig2 packs one (CE, IG) entry's local IFM count; the caller assembles
// the full [8][4] table by calling this once per cell (SPEC_FULL.md §4.3).
func EncodeIfmConfig2(numIfmLocal uint32) uint32 { return ifmConfig2NumLocalField.Pack(numIfmLocal) }

var (
	slotField        = Field{Name: "slot", Shift: 0, Width: 4}
	residualField    = Field{Name: "residual", Shift: 4, Width: 1}
)

// ifmSlotEntry packs one {slot, residual} pair at the given bit offset within a
// top/mid/bottom-slots register. Each register holds three such 8-bit-spaced entries.
func ifmSlotEntry(shift uint, slotIdx uint32, residual bool) uint32 {
	s := Field{Name: slotField.Name, Shift: shift, Width: slotField.Width}
	r := Field{Name: residualField.Name, Shift: shift + 4, Width: residualField.Width}
	return Pack(s.Pack(slotIdx), r.Pack(boolBit(residual)))
}

// SlotEntry names one of the nine logical neighbour positions an IFM top/mid/bottom
// slots register can select.
type SlotEntry struct {
	Slot     uint32
	Residual bool
}

// EncodeIfmTopSlots packs IFM_TOP_SLOTS from the left/centre/right entries selected
// for the row above this stripe.
func EncodeIfmTopSlots(left, center, right SlotEntry) uint32 {
	return Pack(
		ifmSlotEntry(0, left.Slot, left.Residual),
		ifmSlotEntry(8, center.Slot, center.Residual),
		ifmSlotEntry(16, right.Slot, right.Residual),
	)
}

// EncodeIfmMidSlots packs IFM_MID_SLOTS for this stripe's own row.
func EncodeIfmMidSlots(left, center, right SlotEntry) uint32 {
	return Pack(
		ifmSlotEntry(0, left.Slot, left.Residual),
		ifmSlotEntry(8, center.Slot, center.Residual),
		ifmSlotEntry(16, right.Slot, right.Residual),
	)
}

// EncodeIfmBottomSlots packs IFM_BOTTOM_SLOTS for the row below this stripe.
func EncodeIfmBottomSlots(left, center, right SlotEntry) uint32 {
	return Pack(
		ifmSlotEntry(0, left.Slot, left.Residual),
		ifmSlotEntry(8, center.Slot, center.Residual),
		ifmSlotEntry(16, right.Slot, right.Residual),
	)
}

var (
	slotPadLeftField   = Field{Name: "left_data", Shift: 0, Width: 1}
	slotPadRightField  = Field{Name: "right_data", Shift: 1, Width: 1}
	slotPadTopField    = Field{Name: "top_data", Shift: 2, Width: 1}
	slotPadBottomField = Field{Name: "bottom_data", Shift: 3, Width: 1}
)

// EncodeIfmSlotPadConfig packs which of the four packed-boundary regions (§4.2) hold
// real data versus padding for this stripe.
func EncodeIfmSlotPadConfig(left, right, top, bottom bool) uint32 {
	return Pack(
		slotPadLeftField.Pack(boolBit(left)),
		slotPadRightField.Pack(boolBit(right)),
		slotPadTopField.Pack(boolBit(top)),
		slotPadBottomField.Pack(boolBit(bottom)),
	)
}

var depthwiseNumIfmsPerOfmField = Field{Name: "num_ifms_per_ofm", Shift: 0, Width: 8}

// EncodeDepthwiseControl packs DEPTHWISE_CONTROL; num_ifms_per_ofm = strideX*strideY.
func EncodeDepthwiseControl(numIfmsPerOfm uint32) uint32 {
	return depthwiseNumIfmsPerOfmField.Pack(numIfmsPerOfm)
}

var (
	ifmSlotBaseAddrField   = Field{Name: "ifm_slot_base_addr", Shift: 0, Width: 15, RightShift: 4}
	ifmSlotBaseAddrHiField = Field{Name: "ifm_slot_base_addr_hi", Shift: 16, Width: 15, RightShift: 4}
)

// EncodeIfmSlotBaseAddress packs the low/high SRAM base addresses for the IFM tile.
func EncodeIfmSlotBaseAddress(lo, hi uint32) uint32 {
	return Pack(
		ifmSlotBaseAddrField.Pack(lo),
		ifmSlotBaseAddrHiField.Pack(hi),
	)
}

var (
	ifmPadLeftField             = Field{Name: "left_pad", Shift: 0, Width: 3}
	ifmPadTopField              = Field{Name: "top_pad", Shift: 3, Width: 3}
	ifmPadStripeWidthDeltaField = Field{Name: "ifm_stripe_width_delta", Shift: 6, Width: 5}
	ifmPadStripeHeightDeltaField = Field{Name: "ifm_stripe_height_delta", Shift: 11, Width: 5}
)

// EncodeIfmPad packs one of the four per-submap IFM_PAD registers: left/top padding
// plus the width/height delta from this submap's default case (SPEC_FULL.md §4.3's
// deltaDefault/deltaOneFromEdge/deltaEdge selection happens at the call site; this
// function only packs the already-resolved values).
func EncodeIfmPad(leftPad, topPad uint32, widthDelta, heightDelta int32) uint32 {
	return Pack(
		ifmPadLeftField.Pack(leftPad),
		ifmPadTopField.Pack(topPad),
		ifmPadStripeWidthDeltaField.PackSigned(widthDelta),
		ifmPadStripeHeightDeltaField.PackSigned(heightDelta),
	)
}

// --- ACTIVATION_CONFIG -------------------------------------------------------

var (
	reluMinField = Field{Name: "relu_min", Shift: 0, Width: 16}
	reluMaxField = Field{Name: "relu_max", Shift: 16, Width: 16}
)

// EncodeActivationConfig packs the truncated-to-16-bit relu clip range.
func EncodeActivationConfig(min, max uint32) uint32 {
	return Pack(reluMinField.Pack(min), reluMaxField.Pack(max))
}

// --- STRIPE_BLOCK_CONFIG -----------------------------------------------------

// MceifShufflePattern mirrors mceif_shuffle_pattern_t; the compiler always uses
// FLIPPED_N per SPEC_FULL.md §4.3.
type MceifShufflePattern uint32

const (
	MceifShuffleDisabled MceifShufflePattern = iota
	MceifShuffleFlippedN
)

var (
	blockWidthField         = Field{Name: "block_width", Shift: 0, Width: 8}
	blockHeightField        = Field{Name: "block_height", Shift: 8, Width: 8}
	bypassHalfPatchField    = Field{Name: "bypass_half_patch", Shift: 16, Width: 1}
	mceifShuffleField       = Field{Name: "mceif_shuffle_pattern", Shift: 17, Width: 2}
)

// EncodeStripeBlockConfig packs STRIPE_BLOCK_CONFIG: block dims, the bypass-half-
// patch flag, and the MCEIF shuffle pattern (always FLIPPED_N).
func EncodeStripeBlockConfig(blockWidth, blockHeight uint32, bypassHalfPatch bool, shuffle MceifShufflePattern) uint32 {
	return Pack(
		blockWidthField.Pack(blockWidth),
		blockHeightField.Pack(blockHeight),
		bypassHalfPatchField.Pack(boolBit(bypassHalfPatch)),
		mceifShuffleField.Pack(uint32(shuffle)),
	)
}

// --- OFM registers ------------------------------------------------------------

var (
	ofmStripeWidthField   = Field{Name: "ofm_stripe_width", Shift: 0, Width: 16}
	ofmStripeHeightField  = Field{Name: "ofm_stripe_height", Shift: 16, Width: 16}
)

func EncodeOfmStripeSize(width, height uint32) uint32 {
	return Pack(ofmStripeWidthField.Pack(width), ofmStripeHeightField.Pack(height))
}

var ofmConfigNumOfmField = Field{Name: "num_ofm", Shift: 0, Width: 16}

// EncodeOfmConfig packs OFM_CONFIG.num_ofm = stripeOfmChannels.
func EncodeOfmConfig(numOfm uint32) uint32 { return ofmConfigNumOfmField.Pack(numOfm) }

// --- FILTER / MUL_ENABLE / WEIGHT_BASE_ADDR -----------------------------------

// FilterMode mirrors filter_mode_t: the MCE's convolution-shape selector.
type FilterMode uint32

const (
	FilterNxM FilterMode = iota
	FilterDepthwiseSeparable
	FilterVectorProduct
)

var filterModeField = Field{Name: "filter_mode", Shift: 0, Width: 2}

// EncodeFilter packs the FILTER register's mode selector. CONV maps to FilterNxM,
// DEPTHWISE to FilterDepthwiseSeparable, FULLY_CONNECTED to FilterVectorProduct
// (SPEC_FULL.md §4.3).
func EncodeFilter(mode FilterMode) uint32 { return filterModeField.Pack(uint32(mode)) }

var mulEnableBitField = Field{Name: "mul_enable_bit", Shift: 0, Width: 1}

// EncodeMulEnable packs one CE's 32-multiplier enable mask for one OG. For CONV and
// FULLY_CONNECTED every bit is set; for DEPTHWISE only the bits whose multiplier
// output maps to one of this stripe's OFM channels (SPEC_FULL.md §4.3).
func EncodeMulEnable(mask uint32) uint32 {
	f := Field{Name: mulEnableBitField.Name, Shift: 0, Width: 32}
	return f.Pack(mask)
}

var weightBaseAddrField = Field{Name: "weight_base_addr", Shift: 0, Width: 15, RightShift: 4}

// EncodeWeightBaseAddr packs one OG's WEIGHT_BASE_ADDR entry:
// slot(weightStripeIdx) + (ogIdxWithinEmc * slotSize / ogsPerEmc).
func EncodeWeightBaseAddr(addr uint32) uint32 { return weightBaseAddrField.Pack(addr) }

// --- PLE_MCEIF_CONFIG ---------------------------------------------------------

var (
	pleMceifNumBufsField  = Field{Name: "num_bufs", Shift: 0, Width: 8}
	pleMceifBufSizeField  = Field{Name: "buf_size", Shift: 8, Width: 8}
)

// EncodePleMceifConfig packs the MCE->PLE staging-buffer sizing: num_bufs =
// 1024/bufSize, buf_size = blockW*blockH/16 (16-byte units), per SPEC_FULL.md §4.3.
func EncodePleMceifConfig(numBufs, bufSize uint32) uint32 {
	return Pack(
		pleMceifNumBufsField.Pack(numBufs),
		pleMceifBufSizeField.Pack(bufSize),
	)
}

// PleMceifBufSize computes buf_size = blockW*blockH/16 (16-byte units).
func PleMceifBufSize(blockWidth, blockHeight uint32) uint32 {
	return (blockWidth * blockHeight) / 16
}

// PleMceifNumBufs computes num_bufs = 1024/bufSize.
func PleMceifNumBufs(bufSize uint32) uint32 {
	if bufSize == 0 {
		return 0
	}
	return 1024 / bufSize
}
