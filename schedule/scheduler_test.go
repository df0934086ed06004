package schedule

import (
	"testing"

	"github.com/npucs/npucs/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBuilder produces minimal, deterministic command payloads so tests can assert
// on scheduling order and counter bookkeeping without depending on the real
// register-encoding packages.
type stubBuilder struct{}

func (stubBuilder) NumIfmChunks(*model.IfmSDesc, uint32) uint32 { return 1 }
func (stubBuilder) NumOfmChunks(*model.OfmSDesc, uint32) uint32 { return 1 }

func (stubBuilder) LoadIfmStripe(_ *model.IfmSDesc, stripeID, _ uint32) model.DmaCommand {
	return model.DmaCommand{DramOffset: stripeID}
}
func (stubBuilder) LoadWgtStripe(_ *model.WgtSDesc, stripeID uint32) model.DmaCommand {
	return model.DmaCommand{DramOffset: stripeID}
}
func (stubBuilder) StoreOfmStripe(_ *model.OfmSDesc, stripeID, _ uint32) model.DmaCommand {
	return model.DmaCommand{DramOffset: stripeID}
}
func (stubBuilder) LoadPleCodeIntoSram(*model.PleLDesc) model.DmaCommand { return model.DmaCommand{} }

func (stubBuilder) ProgramMceStripe(_ *model.MceSDesc, stripeID uint32) model.ProgramMceStripeCommand {
	return model.ProgramMceStripeCommand{AgentID: stripeID}
}
func (stubBuilder) StartMceStripe(_ *model.MceSDesc, stripeID uint32) model.StartMceStripeCommand {
	return model.StartMceStripeCommand{AgentID: stripeID}
}
func (stubBuilder) ConfigMceif(*model.MceSDesc) model.ConfigMceifCommand {
	return model.ConfigMceifCommand{}
}
func (stubBuilder) StartPleStripe(_ *model.PleSDesc, stripeID uint32) model.StartPleStripeCommand {
	return model.StartPleStripeCommand{AgentID: stripeID}
}

// twoAgentChain builds an IfmStreamer feeding an OfmStreamer one-to-one over 3
// stripes: agent 1's read dependency on agent 0, and agent 0's schedule dependency
// on agent 1, mirror the simplest possible cascade.
func twoAgentChain(n uint32) []model.AgentDescAndDeps {
	oneToOne := model.Dependency{
		RelativeAgentID:     1,
		OuterRatio:          model.Ratio{Self: 1, Other: 1},
		InnerRatio:          model.Ratio{Self: 1, Other: 1},
		UseForScheduling:    true,
		UseForCommandStream: true,
	}

	ifmAgent := model.AgentDescAndDeps{
		Agent: model.NewIfmAgent(n, model.IfmSDesc{FmData: model.FmSDesc{Tile: model.Tile{NumSlots: 2}}}),
		Deps: model.AgentDependencyInfo{
			ScheduleDependencies: []model.Dependency{oneToOne},
		},
	}
	ofmAgent := model.AgentDescAndDeps{
		Agent: model.NewOfmAgent(n, model.OfmSDesc{}),
		Deps: model.AgentDependencyInfo{
			ReadDependencies: []model.Dependency{oneToOne},
		},
	}
	return []model.AgentDescAndDeps{ifmAgent, ofmAgent}
}

func TestSchedule_TwoAgentChain_EmitsOneCommandPerStripe(t *testing.T) {
	agents := twoAgentChain(3)
	s := NewScheduler(agents, stubBuilder{})
	s.Schedule()

	require.Len(t, s.DmaRdCommands(), 3)
	for _, c := range s.DmaRdCommands() {
		assert.Equal(t, model.CmdLoadIfmStripe, c.Type)
	}

	var stores int
	for _, c := range s.DmaWrCommands() {
		if c.Type == model.CmdStoreOfmStripe {
			stores++
		}
	}
	assert.Equal(t, 3, stores)
}

func TestSchedule_OfmWaitsForMatchingIfmStripe(t *testing.T) {
	agents := twoAgentChain(2)
	s := NewScheduler(agents, stubBuilder{})
	s.Schedule()

	// The very first OFM stripe must wait for DmaRd to have reached 1 (the first
	// IFM stripe's completion) before its StoreOfmStripe.
	wr := s.DmaWrCommands()
	require.GreaterOrEqual(t, len(wr), 2)
	assert.Equal(t, model.CmdWaitForCounter, wr[0].Type)
	assert.Equal(t, model.CounterDmaRd, wr[0].Wait.CounterName)
	assert.Equal(t, uint32(1), wr[0].Wait.Value)
}

func TestSchedule_EstimateOnlyAgentContributesNoCommands(t *testing.T) {
	agents := []model.AgentDescAndDeps{
		{Agent: model.NewEstimateOnlyAgent()},
	}
	s := NewScheduler(agents, stubBuilder{})
	s.Schedule()

	assert.Empty(t, s.DmaRdCommands())
	assert.Empty(t, s.DmaWrCommands())
	assert.Empty(t, s.MceCommands())
	assert.Empty(t, s.PleCommands())
}

func TestCounterImplications_RedundantWaitIsDropped(t *testing.T) {
	impl := newCounterImplications()
	q := newCommandQueue(impl)

	q.pushWaitForCounter(model.CounterDmaRd, 1)
	require.Len(t, q.commands, 1)

	q.pushWaitForCounter(model.CounterDmaRd, 1)
	assert.Len(t, q.commands, 1, "waiting for an already-reached value must not duplicate the wait")

	q.pushWaitForCounter(model.CounterDmaRd, 2)
	assert.Len(t, q.commands, 2)
}
