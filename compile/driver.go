package compile

import "github.com/npucs/npucs/model"

// driver accumulates the agent list and dependency info while walking a Graph.
// agentOf maps an Op's index to the primary agent it produced (a Dma or Ple op
// produces exactly one; an Mce op that also preloads a PLE kernel produces two,
// the kernel loader tracked separately in kernelAgentOf).
type driver struct {
	agents      []model.AgentDescAndDeps
	agentOf     map[int]int
	kernelAgentOf map[int]int

	sramHistory []sramEntry

	dramFirstWrite map[int]int // DRAM buffer id -> earliest agent index that could write it
	dramLastRead   map[int]int // DRAM buffer id -> latest agent index that could read it
}

// sramEntry records one past agent's SRAM footprint, for overlap-dependency
// lookback. crossesDramBuffer marks the entries immediately following a DRAM
// round-trip (a Load op) — the lookback stops after passing two of these, per
// spec.md §4.8's "stop after traversing past two DRAM buffers" rule.
type sramEntry struct {
	agentIdx          int
	lastStripe        uint32
	numStripes        uint32
	rng               SramRange
	crossesDramBuffer bool
}

func newDriver() *driver {
	return &driver{
		agentOf:        make(map[int]int),
		kernelAgentOf:  make(map[int]int),
		dramFirstWrite: make(map[int]int),
		dramLastRead:   make(map[int]int),
	}
}

func (d *driver) addAgent(a model.Agent) int {
	d.agents = append(d.agents, model.AgentDescAndDeps{Agent: a})
	return len(d.agents) - 1
}

func (d *driver) dep(idx int) *model.AgentDependencyInfo {
	return &d.agents[idx].Deps
}

// ratioFor derives {OuterRatio, Boundary} for a Dependency whose "self" stripe
// space has selfStripes stripes and whose "other" stripe space has otherStripes,
// assuming the common case of an even stripe-count ratio between producer and
// consumer (spec.md's full derivation walks the actual stripe-shape geometry; this
// compiler derives the ratio from stripe counts alone, which covers 1:1 and simple
// N:1/1:N tiling, documented as a scoped-down approximation in the design ledger).
func ratioFor(selfStripes, otherStripes uint32) (model.Ratio, int32) {
	switch {
	case selfStripes == 0 || otherStripes == 0:
		return model.Ratio{Self: 1, Other: 1}, 0
	case otherStripes%selfStripes == 0:
		k := int32(otherStripes / selfStripes)
		return model.Ratio{Self: 1, Other: k}, k - 1
	case selfStripes%otherStripes == 0:
		k := int32(selfStripes / otherStripes)
		return model.Ratio{Self: k, Other: 1}, 0
	default:
		return model.Ratio{Self: 1, Other: 1}, 0
	}
}

// addRAW records a read-after-write dependency owned by the consumer agent on the
// producer agent.
func (d *driver) addRAW(consumerIdx, producerIdx int, consumerStripes, producerStripes uint32) {
	outer, boundary := ratioFor(consumerStripes, producerStripes)
	d.dep(consumerIdx).ReadDependencies = append(d.dep(consumerIdx).ReadDependencies, model.Dependency{
		RelativeAgentID:     int32(consumerIdx - producerIdx),
		OuterRatio:          outer,
		InnerRatio:          model.Ratio{Self: 1, Other: 1},
		Boundary:            boundary,
		WritesToTileSize:    -1,
		UseForScheduling:    true,
		UseForCommandStream: true,
	})
}

// addWAR records a write-after-read (tile eviction safety) dependency owned by the
// producer agent, pointing forward at the consumer that must finish reading a slot
// before the producer's tile is allowed to overwrite it.
func (d *driver) addWAR(producerIdx, consumerIdx int, producerStripes, consumerStripes uint32, tileSize uint16) {
	outer, boundary := ratioFor(producerStripes, consumerStripes)
	d.dep(producerIdx).WriteDependencies = append(d.dep(producerIdx).WriteDependencies, model.Dependency{
		RelativeAgentID:     int32(consumerIdx - producerIdx),
		OuterRatio:          outer,
		InnerRatio:          model.Ratio{Self: 1, Other: 1},
		Boundary:            boundary,
		WritesToTileSize:    int32(tileSize),
		UseForScheduling:    false,
		UseForCommandStream: true,
	})
}

// addScheduleOnly records a progress-ordering-only dependency (never emitted as a
// WaitForCounter) from producerIdx onto consumerIdx.
func (d *driver) addScheduleOnly(producerIdx, consumerIdx int, producerStripes, consumerStripes uint32) {
	outer, boundary := ratioFor(producerStripes, consumerStripes)
	d.dep(producerIdx).ScheduleDependencies = append(d.dep(producerIdx).ScheduleDependencies, model.Dependency{
		RelativeAgentID:     int32(consumerIdx - producerIdx),
		OuterRatio:          outer,
		InnerRatio:          model.Ratio{Self: 1, Other: 1},
		Boundary:            boundary,
		WritesToTileSize:    -1,
		UseForScheduling:    true,
		UseForCommandStream: false,
	})
}

// lastStripeRAW records an overlap dependency that always waits for producerIdx's
// very last stripe, regardless of which consumer stripe asks — the ratio that makes
// GetLargestNeededStripeId constant at producerStripes-1 for every x in
// [0, consumerStripes) (SPEC_FULL.md §4.8 "SRAM-overlap dependency insertion").
func (d *driver) lastStripeRAW(consumerIdx, producerIdx int, consumerStripes, producerStripes uint32) {
	if consumerStripes == 0 {
		consumerStripes = 1
	}
	if producerStripes == 0 {
		producerStripes = 1
	}
	d.dep(consumerIdx).ReadDependencies = append(d.dep(consumerIdx).ReadDependencies, model.Dependency{
		RelativeAgentID:     int32(consumerIdx - producerIdx),
		OuterRatio:          model.Ratio{Self: int32(consumerStripes), Other: int32(producerStripes)},
		InnerRatio:          model.Ratio{Self: 1, Other: 1},
		Boundary:            int32(producerStripes) - 1,
		WritesToTileSize:    -1,
		UseForScheduling:    false,
		UseForCommandStream: true,
	})
}

// recordSramOverlap walks sramHistory backwards looking for prior agents whose SRAM
// footprint overlaps rng, stopping once two DRAM round-trips have been crossed, and
// inserts a lastStripeRAW dependency for each overlap found (spec.md §4.8).
func (d *driver) recordSramOverlap(consumerIdx int, consumerStripes uint32, rng SramRange) {
	crossed := 0
	for i := len(d.sramHistory) - 1; i >= 0; i-- {
		e := d.sramHistory[i]
		if e.crossesDramBuffer {
			crossed++
			if crossed > 2 {
				break
			}
		}
		if e.rng.Overlaps(rng) {
			d.lastStripeRAW(consumerIdx, e.agentIdx, consumerStripes, e.numStripes)
		}
	}
}

func (d *driver) pushSramHistory(agentIdx int, numStripes uint32, rng SramRange, crossesDramBuffer bool) {
	d.sramHistory = append(d.sramHistory, sramEntry{
		agentIdx:          agentIdx,
		numStripes:        numStripes,
		rng:               rng,
		crossesDramBuffer: crossesDramBuffer,
	})
}

// noteDramWrite/noteDramRead track the agent-id lifetime of an intermediate DRAM
// buffer for the buffer manager (spec.md §4.8 "Intermediate DRAM buffer lifetime").
func (d *driver) noteDramWrite(dramID, agentIdx int) {
	if _, ok := d.dramFirstWrite[dramID]; !ok {
		d.dramFirstWrite[dramID] = agentIdx
	}
}

func (d *driver) noteDramRead(dramID, agentIdx int) {
	d.dramLastRead[dramID] = agentIdx
}

// BufferLifetime is the agent-id half-open range [Start, End) during which an
// intermediate DRAM buffer must remain allocated.
type BufferLifetime struct {
	DramID     int
	Start, End int
}

// lifetimes returns the computed lifetime of every intermediate DRAM buffer seen
// during the walk, sorted by DramID.
func (d *driver) lifetimes() []BufferLifetime {
	out := make([]BufferLifetime, 0, len(d.dramFirstWrite))
	for id, start := range d.dramFirstWrite {
		end := start + 1
		if last, ok := d.dramLastRead[id]; ok && last+1 > end {
			end = last + 1
		}
		out = append(out, BufferLifetime{DramID: id, Start: start, End: end})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].DramID > out[j].DramID; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
