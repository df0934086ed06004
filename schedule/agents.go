package schedule

import (
	"github.com/npucs/npucs/dependency"
	"github.com/npucs/npucs/model"
)

// insertWriteDependencies emits a wait against the last reader of whatever stripe
// is about to be evicted from the tile, but only on the stripe that actually
// overwrites it (stripeId >= tileSize) and only when the wait target has changed
// since the previous stripe — Scheduler::InsertWriteDependencies.
func (s *Scheduler) insertWriteDependencies(deps []model.Dependency, agentID, stripeID uint32, tileSize uint16, q *commandQueue) {
	if stripeID < uint32(tileSize) {
		return
	}
	for _, dep := range deps {
		if !dep.UseForCommandStream {
			continue
		}
		stripeToWaitFor := dependency.GetLastReaderOfEvictedStripeId(dep, stripeID, uint32(tileSize))
		if stripeToWaitFor < 0 {
			continue
		}
		if stripeID == uint32(tileSize) ||
			stripeToWaitFor != dependency.GetLastReaderOfEvictedStripeId(dep, stripeID-1, uint32(tileSize)) {
			otherAgentID := agentID + uint32(dep.RelativeAgentID)
			s.pushWaitFor(q, otherAgentID, uint32(stripeToWaitFor))
		}
	}
}

// insertReadDependencies emits a wait against the producer stripe that must be
// complete before this stripe can start, skipping any dependency on ignoreType
// (the MCE-to-PLE dependency is scheduling-only: the hardware's own buffer-freed
// signal handles that handoff) — Scheduler::InsertReadDependencies.
func (s *Scheduler) insertReadDependencies(deps []model.Dependency, agentID, stripeID uint32, ignoreType *model.AgentType, q *commandQueue) {
	for _, dep := range deps {
		if !dep.UseForCommandStream {
			continue
		}
		otherAgentID := agentID - uint32(dep.RelativeAgentID)
		otherType := s.agents[otherAgentID].Agent.Type
		if ignoreType != nil && otherType == *ignoreType {
			continue
		}

		stripeToWaitFor := dependency.GetLargestNeededStripeId(dep, stripeID)
		if stripeToWaitFor < 0 {
			continue
		}
		if stripeID == 0 || stripeToWaitFor != dependency.GetLargestNeededStripeId(dep, stripeID-1) {
			s.pushWaitFor(q, otherAgentID, uint32(stripeToWaitFor))
		}
	}
}

// pushWaitFor translates a (agent, stripe) reference into the firmware counter
// value it corresponds to and pushes a WaitForCounter for it on q.
func (s *Scheduler) pushWaitFor(q *commandQueue, otherAgentID, otherStripeID uint32) {
	otherType := s.agents[otherAgentID].Agent.Type
	name := model.AgentTypeCounter(otherType)
	key := stripeKey{otherAgentID, otherStripeID}

	var value uint32
	switch name {
	case model.CounterDmaRd:
		value = s.dmaRdCounters[key]
	case model.CounterDmaWr:
		value = s.dmaWrCounters[key]
	case model.CounterMceStripe:
		value = s.mceStripeCounters[key]
	case model.CounterPleCodeLoadedIntoPleSram:
		value = s.pleCodeCounters[key]
	case model.CounterPleStripe:
		value = s.pleStripeCounters[key]
	}
	q.pushWaitForCounter(name, value)
}

func (s *Scheduler) scheduleIfmStreamerStripe(agentID, stripeID uint32) {
	ad := s.agents[agentID]
	ifm := ad.Agent.IFM()

	tileSize := ifm.FmData.Tile.NumSlots
	s.insertWriteDependencies(ad.Deps.WriteDependencies, agentID, stripeID, tileSize, &s.dmaRd)
	s.insertReadDependencies(ad.Deps.ReadDependencies, agentID, stripeID, nil, &s.dmaRd)

	numChunks := s.builder.NumIfmChunks(ifm, stripeID)
	for i := uint32(0); i < numChunks; i++ {
		cmd := s.builder.LoadIfmStripe(ifm, stripeID, i)
		s.dmaRd.push(model.CommandVariant{Type: model.CmdLoadIfmStripe, Dma: cmd})
		s.counters.DmaRd++
	}
	s.dmaRdCounters[stripeKey{agentID, stripeID}] = s.counters.DmaRd
	s.dmaRd.recordCounterReached(model.CounterDmaRd, s.counters.DmaRd)
}

func (s *Scheduler) scheduleWgtStreamerStripe(agentID, stripeID uint32) {
	ad := s.agents[agentID]
	wgt := ad.Agent.Wgt()

	tileSize := wgt.Tile.NumSlots
	s.insertWriteDependencies(ad.Deps.WriteDependencies, agentID, stripeID, tileSize, &s.dmaRd)
	s.insertReadDependencies(ad.Deps.ReadDependencies, agentID, stripeID, nil, &s.dmaRd)

	cmd := s.builder.LoadWgtStripe(wgt, stripeID)
	s.dmaRd.push(model.CommandVariant{Type: model.CmdLoadWgtStripe, Dma: cmd})
	s.counters.DmaRd++
	s.dmaRdCounters[stripeKey{agentID, stripeID}] = s.counters.DmaRd
	s.dmaRd.recordCounterReached(model.CounterDmaRd, s.counters.DmaRd)
}

func (s *Scheduler) scheduleMceSchedulerStripe(agentID, stripeID uint32) {
	ad := s.agents[agentID]
	mce := ad.Agent.Mce()

	if mce.PleKernelID != model.PleKernelNone && s.mceifConfiguration != mce.PleKernelID {
		s.mceQ.push(model.CommandVariant{Type: model.CmdConfigMceif, ConfigMceif: s.builder.ConfigMceif(mce)})
		s.mceifConfiguration = mce.PleKernelID
	}

	program := s.builder.ProgramMceStripe(mce, stripeID)
	s.mceQ.push(model.CommandVariant{Type: model.CmdProgramMceStripe, ProgramMce: program})
	s.counters.Mceif += program.NumBlocksProgrammedForMce

	s.insertReadDependencies(ad.Deps.ReadDependencies, agentID, stripeID, nil, &s.mceQ)

	s.mceQ.push(model.CommandVariant{Type: model.CmdStartMceStripe, StartMce: s.builder.StartMceStripe(mce, stripeID)})
	s.counters.MceStripe++
	s.mceStripeCounters[stripeKey{agentID, stripeID}] = s.counters.MceStripe
	s.mceQ.recordCounterReached(model.CounterMceStripe, s.counters.MceStripe)
}

func (s *Scheduler) schedulePleLoaderStripe(agentID, stripeID uint32) {
	ad := s.agents[agentID]
	pleL := ad.Agent.PleL()

	if pleL.PleKernelID == s.lastLoadedPleKernel {
		// Already resident on the PLE queue from an earlier load: nothing to emit,
		// and any waiter is satisfied by the counter levels that load already reached.
		s.dmaRdCounters[stripeKey{agentID, stripeID}] = s.counters.DmaRd
		s.pleCodeCounters[stripeKey{agentID, stripeID}] = s.counters.PleCodeLoadedIntoPleSram
		return
	}

	const tileSize = 1 // no tile backs a PLE loader stripe
	s.insertWriteDependencies(ad.Deps.WriteDependencies, agentID, stripeID, tileSize, &s.dmaRd)
	s.insertReadDependencies(ad.Deps.ReadDependencies, agentID, stripeID, nil, &s.dmaRd)

	s.dmaRd.push(model.CommandVariant{Type: model.CmdLoadPleCodeIntoSram, Dma: s.builder.LoadPleCodeIntoSram(pleL)})
	s.counters.DmaRd++
	s.dmaRdCounters[stripeKey{agentID, stripeID}] = s.counters.DmaRd
	s.dmaRd.recordCounterReached(model.CounterDmaRd, s.counters.DmaRd)

	s.dmaRd.push(model.CommandVariant{
		Type:               model.CmdLoadPleCodeIntoPleSram,
		PleCodeIntoPleSram: model.LoadPleCodeIntoPleSramCommand{AgentID: agentID},
	})
	s.counters.PleCodeLoadedIntoPleSram++
	s.pleCodeCounters[stripeKey{agentID, stripeID}] = s.counters.PleCodeLoadedIntoPleSram
	s.dmaRd.recordCounterReached(model.CounterPleCodeLoadedIntoPleSram, s.counters.PleCodeLoadedIntoPleSram)

	s.lastLoadedPleKernel = pleL.PleKernelID
}

func (s *Scheduler) schedulePleSchedulerStripe(agentID, stripeID uint32) {
	ad := s.agents[agentID]
	pleS := ad.Agent.PleS()

	tileSize := pleS.OfmTile.NumSlots
	s.insertWriteDependencies(ad.Deps.WriteDependencies, agentID, stripeID, tileSize, &s.pleQ)

	ignore := model.MceScheduler
	s.insertReadDependencies(ad.Deps.ReadDependencies, agentID, stripeID, &ignore, &s.pleQ)

	s.pleQ.push(model.CommandVariant{Type: model.CmdStartPleStripe, StartPle: s.builder.StartPleStripe(pleS, stripeID)})
	s.counters.PleStripe++
	s.pleStripeCounters[stripeKey{agentID, stripeID}] = s.counters.PleStripe
	s.pleQ.recordCounterReached(model.CounterPleStripe, s.counters.PleStripe)
}

func (s *Scheduler) scheduleOfmStreamerStripe(agentID, stripeID uint32) {
	ad := s.agents[agentID]
	ofm := ad.Agent.OFM()

	s.insertReadDependencies(ad.Deps.ReadDependencies, agentID, stripeID, nil, &s.dmaWr)

	numChunks := s.builder.NumOfmChunks(ofm, stripeID)
	for i := uint32(0); i < numChunks; i++ {
		cmd := s.builder.StoreOfmStripe(ofm, stripeID, i)
		s.dmaWr.push(model.CommandVariant{Type: model.CmdStoreOfmStripe, Dma: cmd})
		s.counters.DmaWr++
	}
	s.dmaWrCounters[stripeKey{agentID, stripeID}] = s.counters.DmaWr
	s.dmaWr.recordCounterReached(model.CounterDmaWr, s.counters.DmaWr)
}
