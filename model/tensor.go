package model

// TensorSize is a {height, width, channels} extent. Units (elements vs. cells) are
// documented per call site, matching the source's convention of reusing one struct
// shape for both element-counted and cell-counted quantities.
type TensorSize struct {
	Height   uint32
	Width    uint32
	Channels uint32
}

// SupertensorSize is the {width, channels} extent of the supertensor a stripe's
// tensor is a sub-region of, counted in cells. Height is implicit (supertensors are
// only split along width/channels in this compiler).
type SupertensorSize struct {
	Width    uint32
	Channels uint32
}

// Tile is a ring buffer of SRAM slots backing one tensor.
type Tile struct {
	BaseAddr uint32
	NumSlots uint16
	SlotSize uint32 // bytes per slot per SRAM bank
}

// Slot returns the SRAM address of the slot holding stripeId, per the tile invariant
// slot(stripeId) = baseAddr + (stripeId mod numSlots) * slotSize.
func (t Tile) Slot(stripeID uint32) uint32 {
	return t.BaseAddr + (stripeID%uint32(t.NumSlots))*t.SlotSize
}

// Coord decodes a 1-D stripeId into a 3-D stripe coordinate using the given
// per-dimension strides, and reports whether each dimension is at its last index
// (the "edge" stripe in that dimension).
func Coord(stripeID uint32, strides, numStripes TensorSize) (coord TensorSize, atEdge [3]bool) {
	coord.Height = dimCoord(stripeID, strides.Height, numStripes.Height)
	coord.Width = dimCoord(stripeID, strides.Width, numStripes.Width)
	coord.Channels = dimCoord(stripeID, strides.Channels, numStripes.Channels)
	atEdge[0] = numStripes.Height > 0 && coord.Height == numStripes.Height-1
	atEdge[1] = numStripes.Width > 0 && coord.Width == numStripes.Width-1
	atEdge[2] = numStripes.Channels > 0 && coord.Channels == numStripes.Channels-1
	return coord, atEdge
}

func dimCoord(stripeID, stride, numStripes uint32) uint32 {
	if stride == 0 || numStripes == 0 {
		return 0
	}
	return (stripeID / stride) % numStripes
}

// StripeExtent returns the size of dimension d of a stripe: edge if this is the last
// stripe in that dimension, default otherwise.
func StripeExtent(atEdge bool, defaultSize, edgeSize uint32) uint32 {
	if atEdge {
		return edgeSize
	}
	return defaultSize
}
