package register

import (
	"testing"

	"github.com/npucs/npucs/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSramAddr_ShiftsByFour(t *testing.T) {
	assert.Equal(t, uint32(0x100), EncodeSramAddr(0x1000))
}

func TestEncodeSramAddr_OverflowPanics(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		_, ok := r.(*model.ContractViolation)
		assert.True(t, ok)
	}()
	EncodeSramAddr(1 << 20)
}

func TestEncodeCeControl_PacksExpectedBits(t *testing.T) {
	word := EncodeCeControl(CeControlFields{
		IfmPadNActive: 4,
		Resampling:    ResamplingNearest,
		ReluEnable:    true,
		WinogradEnable: true,
	})

	assert.Equal(t, uint32(4), ceIfmPadNActiveField.Unpack(word))
	assert.Equal(t, uint32(ResamplingNearest), ceResamplingModeField.Unpack(word))
	assert.Equal(t, uint32(1), ceReluEnable.Unpack(word))
	assert.Equal(t, uint32(1), ceWinogradEnable.Unpack(word))
}

func TestEncodeIfmSlotStride_RightShiftRoundTrips(t *testing.T) {
	word := EncodeIfmSlotStride(0x100, 0x200)
	assert.Equal(t, uint32(0x100), ifmDefaultSlotStrideField.Unpack(word))
	assert.Equal(t, uint32(0x200), ifmBoundarySlotStrideField.Unpack(word))
}

func TestEncodeIfmPad_SignedDeltaRoundTrips(t *testing.T) {
	word := EncodeIfmPad(2, 3, -5, 7)
	assert.Equal(t, uint32(2), ifmPadLeftField.Unpack(word))
	assert.Equal(t, uint32(3), ifmPadTopField.Unpack(word))
}

func TestEncodeIfmPad_DeltaOutOfRangePanics(t *testing.T) {
	defer func() {
		require.NotNil(t, recover())
	}()
	EncodeIfmPad(0, 0, -20, 0)
}

func TestEncodeIfmTopSlots_PacksThreeEntries(t *testing.T) {
	word := EncodeIfmTopSlots(
		SlotEntry{Slot: 1, Residual: false},
		SlotEntry{Slot: 5, Residual: true},
		SlotEntry{Slot: 9, Residual: false},
	)
	assert.Equal(t, uint32(1), word&0xF)
	assert.Equal(t, uint32(5), (word>>8)&0xF)
	assert.Equal(t, uint32(1), (word>>12)&0x1)
	assert.Equal(t, uint32(9), (word>>16)&0xF)
}

func TestEncodeActivationConfig_PacksMinMax(t *testing.T) {
	word := EncodeActivationConfig(0, 255)
	assert.Equal(t, uint32(0), reluMinField.Unpack(word))
	assert.Equal(t, uint32(255), reluMaxField.Unpack(word))
}

func TestPleMceifBufSizing(t *testing.T) {
	bufSize := PleMceifBufSize(16, 16)
	assert.Equal(t, uint32(16), bufSize)
	assert.Equal(t, uint32(64), PleMceifNumBufs(bufSize))
}

func TestEncodeDmaCompConfig0_PacksFormatAndStriding(t *testing.T) {
	word := EncodeDmaCompConfig0(DmaFormatNHWCB, true)
	assert.Equal(t, uint32(DmaFormatNHWCB), dmaCompConfigFormatField.Unpack(word))
	assert.Equal(t, uint32(1), dmaCompConfigStripeIdField.Unpack(word))
}
