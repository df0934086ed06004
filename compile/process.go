package compile

import "github.com/npucs/npucs/model"

func totalStripes(t model.TensorSize) uint32 {
	n := t.Height * t.Width * t.Channels
	if n == 0 {
		return 1
	}
	return n
}

func wgtTotalStripes(w model.WgtSWorkSize) uint32 {
	n := w.OfmChannels * w.IfmChannels
	if n == 0 {
		return 1
	}
	return n
}

// ProcessDmaOp handles one DMA op: a weight load, an IFM load, or an OFM store
// (spec.md §4.8).
func (d *driver) ProcessDmaOp(ops []Op, idx int) {
	op := ops[idx]
	switch op.Kind {
	case OpDmaLoadWeights:
		agentIdx := d.addAgent(model.NewWgtAgent(wgtTotalStripes(op.Wgt.NumStripes), *op.Wgt))
		d.agentOf[idx] = agentIdx

	case OpDmaLoadIfm:
		numStripes := totalStripes(op.Ifm.FmData.NumStripes)
		agentIdx := d.addAgent(model.NewIfmAgent(numStripes, *op.Ifm))
		d.agentOf[idx] = agentIdx

		// RAW: this load must wait for the OfmS that last wrote the DRAM buffer it
		// reads, if any (an external input has no producer in this graph).
		if op.IfmProducerOp != noProducer {
			producerIdx := d.agentOf[op.IfmProducerOp]
			producerStripes := d.agents[producerIdx].Agent.NumStripesTotal
			d.addRAW(agentIdx, producerIdx, numStripes, producerStripes)
		}

		d.recordSramOverlap(agentIdx, numStripes, op.IfmSram)
		d.pushSramHistory(agentIdx, numStripes, op.IfmSram, true)
		if op.IfmProducerOp != noProducer {
			d.noteDramRead(op.IfmDramID, agentIdx)
		}

	case OpDmaStoreOfm:
		numStripes := totalStripes(op.Ofm.FmData.NumStripes)
		agentIdx := d.addAgent(model.NewOfmAgent(numStripes, *op.Ofm))
		d.agentOf[idx] = agentIdx

		producerIdx := d.agentOf[op.OfmProducerOp]
		producerStripes := d.agents[producerIdx].Agent.NumStripesTotal
		d.addRAW(agentIdx, producerIdx, numStripes, producerStripes)
		d.addWAR(producerIdx, agentIdx, producerStripes, numStripes, op.Ofm.FmData.Tile.NumSlots)

		d.noteDramWrite(op.OfmDramID, agentIdx)

	default:
		model.Violate("compile", "ProcessDmaOp: op %d has non-DMA kind %s", idx, op.Kind)
	}
}

// ProcessMceOp handles one MCE op: optionally preloads a PLE kernel, then adds the
// MceS agent with RAW deps on its IFM/weight producers and WAR deps back onto them,
// plus a schedule-only dependency steering the kernel preload ahead of the IFM/
// weight DMA traffic (spec.md §4.8).
func (d *driver) ProcessMceOp(ops []Op, idx int) {
	op := ops[idx]
	if op.Kind != OpMce {
		model.Violate("compile", "ProcessMceOp: op %d has kind %s", idx, op.Kind)
	}

	var kernelAgentIdx int
	hasKernelAgent := false
	if op.LoadKernel {
		kernelAgentIdx = d.addAgent(model.NewPleLAgent(1, op.KernelSram))
		d.kernelAgentOf[idx] = kernelAgentIdx
		hasKernelAgent = true
	}

	numStripes := totalStripes(op.Mce.NumStripes)
	agentIdx := d.addAgent(model.NewMceAgent(numStripes, *op.Mce))
	d.agentOf[idx] = agentIdx

	if op.MceIfmProducerOp != noProducer {
		ifmAgentIdx := d.agentOf[op.MceIfmProducerOp]
		ifmStripes := d.agents[ifmAgentIdx].Agent.NumStripesTotal
		d.addRAW(agentIdx, ifmAgentIdx, numStripes, ifmStripes)
		d.addWAR(ifmAgentIdx, agentIdx, ifmStripes, numStripes, ops[op.MceIfmProducerOp].Ifm.FmData.Tile.NumSlots)
		if hasKernelAgent {
			d.addScheduleOnly(ifmAgentIdx, kernelAgentIdx, ifmStripes, 1)
		}
	}
	if op.MceWgtProducerOp != noProducer {
		wgtAgentIdx := d.agentOf[op.MceWgtProducerOp]
		wgtStripes := d.agents[wgtAgentIdx].Agent.NumStripesTotal
		d.addRAW(agentIdx, wgtAgentIdx, numStripes, wgtStripes)
		d.addWAR(wgtAgentIdx, agentIdx, wgtStripes, numStripes, ops[op.MceWgtProducerOp].Wgt.Tile.NumSlots)
		if hasKernelAgent {
			d.addScheduleOnly(wgtAgentIdx, kernelAgentIdx, wgtStripes, 1)
		}
	}

	d.recordSramOverlap(agentIdx, numStripes, op.MceSram)
	d.pushSramHistory(agentIdx, numStripes, op.MceSram, false)
}

// ProcessPleOp handles one PLE op: a fused op consumes the immediately preceding
// Mce op's accumulator output; a standalone op consumes one or two SRAM-resident
// producers named in ascending agent-id order (spec.md §4.8).
func (d *driver) ProcessPleOp(ops []Op, idx int) {
	op := ops[idx]
	if op.Kind != OpPle {
		model.Violate("compile", "ProcessPleOp: op %d has kind %s", idx, op.Kind)
	}

	numStripes := totalStripes(op.Ple.NumStripes)
	agentIdx := d.addAgent(model.NewPleSAgent(numStripes, *op.Ple))
	d.agentOf[idx] = agentIdx

	if op.Fused {
		mceAgentIdx := d.agentOf[idx-1]
		mceStripes := d.agents[mceAgentIdx].Agent.NumStripesTotal
		d.addRAW(agentIdx, mceAgentIdx, numStripes, mceStripes)
	} else {
		producers := []int{}
		if op.PleIn0Op != noProducer {
			producers = append(producers, d.agentOf[op.PleIn0Op])
		}
		if op.HasPleIn1 && op.PleIn1Op != noProducer {
			producers = append(producers, d.agentOf[op.PleIn1Op])
		}
		// ascending agent-id order
		if len(producers) == 2 && producers[0] > producers[1] {
			producers[0], producers[1] = producers[1], producers[0]
		}
		for _, producerIdx := range producers {
			producerStripes := d.agents[producerIdx].Agent.NumStripesTotal
			d.addRAW(agentIdx, producerIdx, numStripes, producerStripes)
			d.addWAR(producerIdx, agentIdx, producerStripes, numStripes, op.Ple.OfmTile.NumSlots)
		}
	}

	d.recordSramOverlap(agentIdx, numStripes, op.PleSram)
	d.pushSramHistory(agentIdx, numStripes, op.PleSram, false)
}
