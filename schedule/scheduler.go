// Package schedule implements the single-threaded instruction scheduler: it walks
// a list of agents with their dependency info and produces four command lists (one
// per hardware queue) in firmware execution order, inserting WaitForCounter
// commands wherever one agent's stripe depends on another's. Grounded on
// Scheduler.cpp/.hpp (driver/support_library/src/cascading) — the per-agent-type
// Schedule*Stripe bodies and the top-level rewind loop are carried over near
// verbatim; the counter/CounterImplications translation layer that turns a
// (agentId, stripeId) reference into a WaitForCounter is our own implementation of
// the behaviour the header's comments describe (SPEC_FULL.md §4.6).
package schedule

import (
	"github.com/npucs/npucs/dependency"
	"github.com/npucs/npucs/model"
)

func largestNeeded(dep model.Dependency, x uint32) int32 {
	return dependency.GetLargestNeededStripeId(dep, x)
}

func firstReader(dep model.Dependency, x uint32) int32 {
	return dependency.GetFirstReaderStripeId(dep, x)
}

type stripeKey struct {
	AgentID, StripeID uint32
}

// Scheduler converts a compiled agent list into the four firmware command queues.
type Scheduler struct {
	agents   []model.AgentDescAndDeps
	progress []uint32
	baseID   uint32
	builder  CommandBuilder

	dmaRd, dmaWr, mceQ, pleQ commandQueue

	dmaRdCounters     map[stripeKey]uint32
	dmaWrCounters     map[stripeKey]uint32
	mceStripeCounters map[stripeKey]uint32
	pleCodeCounters   map[stripeKey]uint32
	pleStripeCounters map[stripeKey]uint32

	counters model.Counters

	mceifConfiguration  model.PleKernelID
	lastLoadedPleKernel model.PleKernelID
}

// NewScheduler constructs a Scheduler over agents, using builder to produce each
// command's register payload.
func NewScheduler(agents []model.AgentDescAndDeps, builder CommandBuilder) *Scheduler {
	implications := newCounterImplications()
	return &Scheduler{
		agents:   agents,
		progress: make([]uint32, len(agents)),
		builder:  builder,

		dmaRd: newCommandQueue(implications),
		dmaWr: newCommandQueue(implications),
		mceQ:  newCommandQueue(implications),
		pleQ:  newCommandQueue(implications),

		dmaRdCounters:     make(map[stripeKey]uint32),
		dmaWrCounters:     make(map[stripeKey]uint32),
		mceStripeCounters: make(map[stripeKey]uint32),
		pleCodeCounters:   make(map[stripeKey]uint32),
		pleStripeCounters: make(map[stripeKey]uint32),

		mceifConfiguration:  model.PleKernelNone,
		lastLoadedPleKernel: model.PleKernelNone,
	}
}

// DmaRdCommands returns the DmaRd queue's commands, in emission order.
func (s *Scheduler) DmaRdCommands() []model.CommandVariant { return s.dmaRd.commands }

// DmaWrCommands returns the DmaWr queue's commands, in emission order.
func (s *Scheduler) DmaWrCommands() []model.CommandVariant { return s.dmaWr.commands }

// MceCommands returns the Mce queue's commands, in emission order.
func (s *Scheduler) MceCommands() []model.CommandVariant { return s.mceQ.commands }

// PleCommands returns the Ple queue's commands, in emission order.
func (s *Scheduler) PleCommands() []model.CommandVariant { return s.pleQ.commands }

func (s *Scheduler) finished() bool { return s.baseID >= uint32(len(s.agents)) }

// Schedule runs the scheduling algorithm to completion, populating the four queues.
// It is the direct translation of Scheduler::Schedule in Scheduler.cpp: walk
// forward from baseAgentId, spin each ready agent until it stalls or finishes, and
// rewind to baseAgentId whenever the walk runs off the end or hits an agent that
// hasn't started and still can't.
func (s *Scheduler) Schedule() {
	currentID := uint32(0)
	for !s.finished() {
		if currentID >= uint32(len(s.agents)) {
			currentID = s.baseID
			continue
		}

		stripeID := s.progress[currentID]
		if stripeID == s.agents[currentID].Agent.NumStripesTotal {
			if s.baseID == currentID {
				s.baseID++
			}
			currentID++
			continue
		}

		if !s.isStripeReady(currentID, 0) && stripeID == 0 {
			currentID = s.baseID
			continue
		}

		s.spinAgent(currentID)

		if s.baseID == currentID && s.progress[currentID] == s.agents[currentID].Agent.NumStripesTotal {
			s.baseID++
		}
		currentID++
	}
}

func (s *Scheduler) spinAgent(agentID uint32) {
	for s.isStripeReady(agentID, 0) && s.isStripeNeeded(agentID) {
		s.scheduleOneStripe(agentID)
	}
}

func (s *Scheduler) scheduleOneStripe(agentID uint32) {
	ad := s.agents[agentID]
	stripeID := s.progress[agentID]

	switch ad.Agent.Type {
	case model.IfmStreamer:
		if ad.Agent.EstimateOnly {
			break
		}
		s.scheduleIfmStreamerStripe(agentID, stripeID)
	case model.WgtStreamer:
		s.scheduleWgtStreamerStripe(agentID, stripeID)
	case model.MceScheduler:
		s.scheduleMceSchedulerStripe(agentID, stripeID)
	case model.PleLoader:
		s.schedulePleLoaderStripe(agentID, stripeID)
	case model.PleScheduler:
		s.schedulePleSchedulerStripe(agentID, stripeID)
	case model.OfmStreamer:
		s.scheduleOfmStreamerStripe(agentID, stripeID)
	default:
		model.Violate("schedule", "unknown agent type %s", ad.Agent.Type)
	}

	s.progress[agentID] = stripeID + 1
}

// isStripeReady reports whether agentID's next stripe has all of its read
// dependencies (further than distanceThreshold agents away) satisfied.
func (s *Scheduler) isStripeReady(agentID uint32, distanceThreshold int32) bool {
	deps := s.agents[agentID].Deps.ReadDependencies
	stripeID := s.progress[agentID]
	for _, dep := range deps {
		if dep.RelativeAgentID <= distanceThreshold {
			continue
		}
		otherID := agentID - uint32(dep.RelativeAgentID)
		otherStripeID := s.progress[otherID]
		if int32(otherStripeID) <= largestNeeded(dep, stripeID) {
			return false
		}
	}
	return true
}

// isStripeNeeded reports whether agentID's next stripe is needed yet — i.e. some
// downstream agent (named by a ScheduleDependency) is ready to consume it, or the
// agent has no schedule dependencies at all (the tail of the stream).
func (s *Scheduler) isStripeNeeded(agentID uint32) bool {
	stripeID := s.progress[agentID]
	if stripeID >= s.agents[agentID].Agent.NumStripesTotal {
		return false
	}

	hasDependency := false
	for _, dep := range s.agents[agentID].Deps.ScheduleDependencies {
		hasDependency = true
		otherID := agentID + uint32(dep.RelativeAgentID)
		otherStripeID := s.progress[otherID]

		if s.isStripeReady(otherID, dep.RelativeAgentID) && firstReader(dep, stripeID) <= int32(otherStripeID) {
			return true
		}
	}
	return !hasDependency
}
