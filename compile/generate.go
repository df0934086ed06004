package compile

import (
	"fmt"

	"github.com/npucs/npucs/config"
	"github.com/npucs/npucs/dma"
	"github.com/npucs/npucs/mce"
	"github.com/npucs/npucs/model"
	"github.com/npucs/npucs/ple"
	"github.com/npucs/npucs/register"
	"github.com/npucs/npucs/schedule"
	"github.com/npucs/npucs/stream"
	"github.com/sirupsen/logrus"
)

// combinedBuilder composes the three per-engine register builders into the single
// schedule.CommandBuilder the Scheduler needs, matching the teacher's
// sim/cluster/cluster.go pattern of a top-level orchestrator gluing together
// independently-testable subsystems (SPEC_FULL.md §1-3, row H). All three
// component builders happen to be named Builder in their own packages, so they are
// held as named fields here rather than embedded (embedding all three would collide
// on the promoted field name).
type combinedBuilder struct {
	d dma.Builder
	m mce.Builder
	p ple.Builder
}

func newCombinedBuilder(caps register.Capabilities) combinedBuilder {
	return combinedBuilder{
		d: dma.Builder{Caps: caps},
		m: mce.Builder{Caps: caps},
		p: ple.Builder{},
	}
}

func (b combinedBuilder) NumIfmChunks(ifm *model.IfmSDesc, stripeID uint32) uint32 {
	return b.d.NumIfmChunks(ifm, stripeID)
}
func (b combinedBuilder) NumOfmChunks(ofm *model.OfmSDesc, stripeID uint32) uint32 {
	return b.d.NumOfmChunks(ofm, stripeID)
}
func (b combinedBuilder) LoadIfmStripe(ifm *model.IfmSDesc, stripeID, chunkID uint32) model.DmaCommand {
	return b.d.LoadIfmStripe(ifm, stripeID, chunkID)
}
func (b combinedBuilder) LoadWgtStripe(wgt *model.WgtSDesc, stripeID uint32) model.DmaCommand {
	return b.d.LoadWgtStripe(wgt, stripeID)
}
func (b combinedBuilder) StoreOfmStripe(ofm *model.OfmSDesc, stripeID, chunkID uint32) model.DmaCommand {
	return b.d.StoreOfmStripe(ofm, stripeID, chunkID)
}
func (b combinedBuilder) LoadPleCodeIntoSram(pleL *model.PleLDesc) model.DmaCommand {
	return b.d.LoadPleCodeIntoSram(pleL)
}
func (b combinedBuilder) ProgramMceStripe(m *model.MceSDesc, stripeID uint32) model.ProgramMceStripeCommand {
	return b.m.ProgramMceStripe(m, stripeID)
}
func (b combinedBuilder) StartMceStripe(m *model.MceSDesc, stripeID uint32) model.StartMceStripeCommand {
	return b.m.StartMceStripe(m, stripeID)
}
func (b combinedBuilder) ConfigMceif(m *model.MceSDesc) model.ConfigMceifCommand {
	return b.m.ConfigMceif(m)
}
func (b combinedBuilder) StartPleStripe(pleS *model.PleSDesc, stripeID uint32) model.StartPleStripeCommand {
	return b.p.StartPleStripe(pleS, stripeID)
}

var _ schedule.CommandBuilder = combinedBuilder{}

// Result is the output of a successful Generate call: the packaged command stream
// plus the intermediate DRAM buffer lifetimes the caller's buffer manager needs.
type Result struct {
	CommandStream []byte
	Lifetimes     []BufferLifetime
}

// Generate walks graph, computes every agent and dependency, schedules the four
// command queues, and packages them into the binary command-stream format. Any
// internal contract violation raised below this point (a *model.ContractViolation
// panic) is recovered here and reported as an error instead of an empty result, per
// spec.md §7's "Generate... catches domain exceptions from below it" — this
// compiler reports the cause rather than silently returning nothing, since a silent
// empty result is harder to diagnose than a logged, wrapped error.
func Generate(graph Graph, opts config.Options, caps register.Capabilities) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if cv, ok := r.(*model.ContractViolation); ok {
				logrus.WithField("component", cv.Component).Errorf("[compile] contract violation: %s", cv.Message)
				err = fmt.Errorf("compile: %w", cv)
				return
			}
			panic(r)
		}
	}()

	d := newDriver()
	for idx, op := range graph.Ops {
		switch op.Kind {
		case OpDmaLoadWeights, OpDmaLoadIfm, OpDmaStoreOfm:
			d.ProcessDmaOp(graph.Ops, idx)
		case OpMce:
			d.ProcessMceOp(graph.Ops, idx)
		case OpPle:
			d.ProcessPleOp(graph.Ops, idx)
		default:
			model.Violate("compile", "Generate: op %d has unrecognised kind %d", idx, op.Kind)
		}
	}
	logrus.Debugf("[compile] built %d agents from %d ops", len(d.agents), len(graph.Ops))

	sched := schedule.NewScheduler(d.agents, newCombinedBuilder(caps))
	sched.Schedule()

	cs := stream.CommandStream{
		Agents: agentsOf(d.agents),
		DmaRd:  sched.DmaRdCommands(),
		DmaWr:  sched.DmaWrCommands(),
		Mce:    sched.MceCommands(),
		Ple:    sched.PleCommands(),
	}

	if opts.SaveCachedNetwork && opts.CachedNetworkFilePath == "" {
		return Result{}, fmt.Errorf("compile: SaveCachedNetwork is set but CachedNetworkFilePath is empty")
	}

	return Result{
		CommandStream: stream.Package(cs),
		Lifetimes:     d.lifetimes(),
	}, nil
}

func agentsOf(ad []model.AgentDescAndDeps) []model.Agent {
	out := make([]model.Agent, len(ad))
	for i, a := range ad {
		out[i] = a.Agent
	}
	return out
}
