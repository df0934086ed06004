package model

// FcafInfo carries the extra quantisation metadata an FCAF-compressed tensor needs.
type FcafInfo struct {
	ZeroPoint        int16
	SignedActivation bool
}

// PackedBoundaryThickness is how much (if any) neighbour-stripe data on each side is
// copied into the same SRAM slot as the central stripe, so the MCE can re-use it
// without a second DMA transfer.
type PackedBoundaryThickness struct {
	Left, Top, Right, Bottom uint8
}

// AnyNonZero reports whether any side carries packed boundary data.
func (p PackedBoundaryThickness) AnyNonZero() bool {
	return p.Left > 0 || p.Top > 0 || p.Right > 0 || p.Bottom > 0
}

// FmSDesc is the feature-map-streamer descriptor shared by IFM and OFM agents.
type FmSDesc struct {
	BufferID               uint16
	DramOffset              uint32
	DataType                DataType
	FcafInfo                FcafInfo // required iff DataType.IsFcaf()
	Tile                    Tile
	DefaultStripeSize       TensorSize
	EdgeStripeSize          TensorSize
	SupertensorSizeInCells  SupertensorSize
	NumStripes              TensorSize
	StripeIDStrides         TensorSize
}

// IfmSDesc is the IFM streamer descriptor: an FmSDesc plus packed-boundary info.
type IfmSDesc struct {
	FmData                           FmSDesc
	PackedBoundaryThickness           PackedBoundaryThickness
	IsExtraPackedBoundaryOnRightEdge bool
	IsExtraPackedBoundaryOnBottomEdge bool
}

// OfmSDesc is the OFM streamer descriptor, structurally identical to FmSDesc.
type OfmSDesc struct {
	FmData FmSDesc
}

// WeightsMetadata is one {offset, size} entry produced by the (external) weight
// encoder for a given (ifmChannel, ofmChannel) stripe pair.
type WeightsMetadata struct {
	Offset uint32
	Size   uint32
}

// WgtSWorkSize is the {ofmChannels, ifmChannels} shape of the weight streamer's two
// work dimensions.
type WgtSWorkSize struct {
	OfmChannels uint32
	IfmChannels uint32
}

// WgtSDesc is the weight streamer descriptor.
type WgtSDesc struct {
	BufferID        uint16
	Metadata        []WeightsMetadata
	Tile            Tile
	NumStripes      WgtSWorkSize
	StripeIDStrides WgtSWorkSize
}

// PleLDesc is the PLE loader descriptor: which kernel to load and where.
type PleLDesc struct {
	PleKernelID PleKernelID
	SramAddr    uint32
}

// ReluActivation is the MCE's output clipping range.
type ReluActivation struct {
	Min, Max int32
}

// SubmapGeometry is one of the (up to 4) strided-convolution submap parameter sets:
// filter shape, padding, and the three IFM-delta variants used depending on stripe
// position (last column/row, second-to-last, or elsewhere).
type SubmapGeometry struct {
	FilterShape       [4]uint8 // {w, h, ...} per source convention: width, height, then reserved
	Padding           [4]uint8
	IfmDeltaDefault    [4]uint8
	IfmDeltaOneFromEdge [4]uint8
	IfmDeltaEdge       [4]uint8
}

// MceSDesc is the MCE scheduler descriptor.
type MceSDesc struct {
	IfmTile    Tile
	WgtTile    Tile
	BlockWidth  uint32
	BlockHeight uint32

	MceOpMode   MceOpMode
	PleKernelID PleKernelID

	Submaps [4]SubmapGeometry

	NumStripes      TensorSize
	StripeIDStrides TensorSize
	DefaultStripeSize TensorSize
	EdgeStripeSize    TensorSize

	ConvStrideX, ConvStrideY uint8

	IfmZeroPoint int16
	IsIfmSigned  bool
	IsOfmSigned  bool

	Algorithm Algorithm

	UpsampleType     UpsampleType
	UpsampleEdgeRow  bool
	UpsampleEdgeCol  bool

	IfmStripeShapeDefault TensorSize
	IfmStripeShapeEdge    TensorSize

	ReluActiv ReluActivation

	IsPackedBoundaryX bool
	IsPackedBoundaryY bool
	IsWideFilter      bool

	IsExtraIfmStripeAtRightEdge  bool
	IsExtraIfmStripeAtBottomEdge bool
}

// PleIfmInfo is the zero-point correction for one of a standalone PLE stripe's
// SRAM-sourced inputs.
type PleIfmInfo struct {
	ZeroPoint int16
}

// PleOp carries the PLE operation selector plus its runtime key/value parameters
// (e.g. pooling window size, multiplier/shift for MULTIPLICATION).
type PleOp struct {
	Kernel PleKernelID
	Params map[string]int32
}

// PleSDesc is the PLE scheduler descriptor.
type PleSDesc struct {
	Op *PleOp

	OfmTile           Tile
	OfmZeroPoint      int16
	DefaultStripeSize TensorSize
	EdgeStripeSize    TensorSize
	NumStripes        TensorSize
	StripeIDStrides   TensorSize

	InputMode         PleInputMode
	PleKernelID       PleKernelID
	PleKernelSramAddr uint32

	// Valid only when InputMode is one of the SRAM_* variants.
	IfmTile0 Tile
	IfmInfo0 PleIfmInfo
	IfmTile1 Tile
	IfmInfo1 PleIfmInfo
}
