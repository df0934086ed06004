package compile

import (
	"testing"

	"github.com/npucs/npucs/config"
	"github.com/npucs/npucs/model"
	"github.com/npucs/npucs/register"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatioFor_EqualStripeCounts(t *testing.T) {
	outer, boundary := ratioFor(3, 3)
	assert.Equal(t, model.Ratio{Self: 1, Other: 1}, outer)
	assert.Equal(t, int32(0), boundary)
}

func TestRatioFor_ConsumerHasMoreStripes(t *testing.T) {
	// consumer has 6 stripes per 2 producer stripes: each producer stripe feeds 3
	// consumer stripes.
	outer, boundary := ratioFor(6, 2)
	assert.Equal(t, model.Ratio{Self: 3, Other: 1}, outer)
	assert.Equal(t, int32(0), boundary)
}

func TestRatioFor_ProducerHasMoreStripes(t *testing.T) {
	outer, boundary := ratioFor(2, 6)
	assert.Equal(t, model.Ratio{Self: 1, Other: 3}, outer)
	assert.Equal(t, int32(2), boundary)
}

func TestLastStripeRAW_AlwaysPointsAtProducersLastStripe(t *testing.T) {
	d := newDriver()
	d.addAgent(model.NewIfmAgent(1, model.IfmSDesc{}))
	d.addAgent(model.NewIfmAgent(1, model.IfmSDesc{}))
	d.lastStripeRAW(1, 0, 5, 3)

	dep := d.dep(1).ReadDependencies[0]
	for x := uint32(0); x < 5; x++ {
		assert.Equal(t, int32(2), largestNeededStripe(dep, x))
	}
}

// largestNeededStripe duplicates dependency.GetLargestNeededStripeId's formula so
// this test doesn't need to import the dependency package for one check.
func largestNeededStripe(dep model.Dependency, x uint32) int32 {
	xi := int32(x)
	outer := dep.OuterRatio.Other * (xi / dep.OuterRatio.Self)
	inner := xi % dep.OuterRatio.Self
	inner = dep.InnerRatio.Other * (inner / dep.InnerRatio.Self)
	inner = inner + dep.InnerRatio.Other - 1 + dep.Boundary
	if inner < 0 {
		inner = 0
	}
	if inner > dep.OuterRatio.Other-1 {
		inner = dep.OuterRatio.Other - 1
	}
	return outer + inner
}

func TestRecordSramOverlap_StopsAfterTwoDramRoundTrips(t *testing.T) {
	d := newDriver()
	overlapping := SramRange{Start: 0, End: 100}

	a0 := d.addAgent(model.NewIfmAgent(1, model.IfmSDesc{}))
	d.pushSramHistory(a0, 1, overlapping, true) // 1st DRAM round-trip

	a1 := d.addAgent(model.NewIfmAgent(1, model.IfmSDesc{}))
	d.pushSramHistory(a1, 1, overlapping, true) // 2nd DRAM round-trip

	a2 := d.addAgent(model.NewIfmAgent(1, model.IfmSDesc{}))
	d.pushSramHistory(a2, 1, overlapping, true) // 3rd: beyond the lookback window

	a3 := d.addAgent(model.NewIfmAgent(1, model.IfmSDesc{}))
	d.recordSramOverlap(a3, 1, overlapping)

	// a2 and a1 are within the two-round-trip lookback; a0 is not.
	deps := d.dep(a3).ReadDependencies
	var sawAgent0 bool
	require.Len(t, deps, 2)
	for _, dep := range deps {
		if int(dep.RelativeAgentID) == a3-a0 {
			sawAgent0 = true
		}
	}
	assert.False(t, sawAgent0, "overlap lookback must stop after two DRAM round-trips")
}

func TestLifetimes_SpansFirstWriteToLastRead(t *testing.T) {
	d := newDriver()
	d.noteDramWrite(7, 2)
	d.noteDramRead(7, 5)
	d.noteDramWrite(3, 0)

	lifetimes := d.lifetimes()
	require.Len(t, lifetimes, 2)
	assert.Equal(t, BufferLifetime{DramID: 3, Start: 0, End: 1}, lifetimes[0])
	assert.Equal(t, BufferLifetime{DramID: 7, Start: 2, End: 6}, lifetimes[1])
}

// simpleGraph builds a minimal load-ifm -> mce -> fused-ple -> store-ofm cascade,
// every descriptor carrying exactly one stripe, exercising every ProcessXxxOp path
// and the full Generate pipeline end to end.
func simpleGraph() Graph {
	tile := func() model.Tile { return model.Tile{NumSlots: 1, SlotSize: 64} }
	one := model.TensorSize{Height: 1, Width: 1, Channels: 1}

	ifm := &model.IfmSDesc{FmData: model.FmSDesc{
		Tile: tile(), DefaultStripeSize: one, EdgeStripeSize: one,
		NumStripes: one, StripeIDStrides: one,
	}}
	mce := &model.MceSDesc{
		IfmTile: tile(), WgtTile: tile(), BlockWidth: 8, BlockHeight: 8,
		NumStripes: one, StripeIDStrides: one, DefaultStripeSize: one, EdgeStripeSize: one,
		ReluActiv: model.ReluActivation{Min: -32768, Max: 32767},
	}
	ple := &model.PleSDesc{
		Op:         &model.PleOp{Kernel: model.PleKernelPassthrough},
		OfmTile:    tile(),
		InputMode:  model.MceAllOgs,
		NumStripes: one, StripeIDStrides: one, DefaultStripeSize: one, EdgeStripeSize: one,
	}
	ofm := &model.OfmSDesc{FmData: model.FmSDesc{
		Tile: tile(), DefaultStripeSize: one, EdgeStripeSize: one,
		NumStripes: one, StripeIDStrides: one,
	}}

	return Graph{Ops: []Op{
		{Kind: OpDmaLoadIfm, Ifm: ifm, IfmProducerOp: noProducer, IfmSram: SramRange{Start: 0, End: 64}},
		{Kind: OpMce, Mce: mce, MceIfmProducerOp: 0, MceWgtProducerOp: noProducer, MceSram: SramRange{Start: 100, End: 200}},
		{Kind: OpPle, Ple: ple, Fused: true, PleIn0Op: noProducer, PleIn1Op: noProducer, PleSram: SramRange{Start: 300, End: 400}},
		{Kind: OpDmaStoreOfm, Ofm: ofm, OfmProducerOp: 2, OfmDramID: 0},
	}}
}

func TestGenerate_SimpleCascade_ProducesNonEmptyCommandStream(t *testing.T) {
	result, err := Generate(simpleGraph(), config.Options{}, register.DefaultCapabilities())
	require.NoError(t, err)
	assert.NotEmpty(t, result.CommandStream)
}

func TestGenerate_SaveCachedNetworkWithoutPath_IsAnError(t *testing.T) {
	_, err := Generate(simpleGraph(), config.Options{SaveCachedNetwork: true}, register.DefaultCapabilities())
	assert.Error(t, err)
}
