package model

import "fmt"

// AgentType tags which descriptor an Agent carries.
type AgentType uint32

const (
	IfmStreamer AgentType = iota
	WgtStreamer
	MceScheduler
	PleLoader
	PleScheduler
	OfmStreamer
)

func (t AgentType) String() string {
	switch t {
	case IfmStreamer:
		return "IfmStreamer"
	case WgtStreamer:
		return "WgtStreamer"
	case MceScheduler:
		return "MceScheduler"
	case PleLoader:
		return "PleLoader"
	case PleScheduler:
		return "PleScheduler"
	case OfmStreamer:
		return "OfmStreamer"
	default:
		return "Unknown"
	}
}

// Agent is a compile-time description of one hardware engine's workload for one
// sub-operation. It is a sum type over the six descriptor kinds; Type reports which
// field of the payload is valid. Use the matching accessor (IFM, Wgt, Mce, PleL,
// PleS, Ofm) only after checking Type — accessors panic on mismatch, matching the
// fail-fast posture of the rest of this package.
type Agent struct {
	NumStripesTotal uint32
	Type            AgentType

	ifm  *IfmSDesc
	wgt  *WgtSDesc
	mce  *MceSDesc
	pleL *PleLDesc
	pleS *PleSDesc
	ofm  *OfmSDesc

	// EstimateOnly marks a placeholder agent substituted for an operator the
	// process driver could not lower while running in estimate-only mode (see
	// SPEC_FULL.md §6.1). A placeholder contributes no stripes and no commands.
	EstimateOnly bool
}

func NewIfmAgent(numStripes uint32, d IfmSDesc) Agent {
	return Agent{NumStripesTotal: numStripes, Type: IfmStreamer, ifm: &d}
}

func NewWgtAgent(numStripes uint32, d WgtSDesc) Agent {
	return Agent{NumStripesTotal: numStripes, Type: WgtStreamer, wgt: &d}
}

func NewMceAgent(numStripes uint32, d MceSDesc) Agent {
	return Agent{NumStripesTotal: numStripes, Type: MceScheduler, mce: &d}
}

func NewPleLAgent(numStripes uint32, d PleLDesc) Agent {
	return Agent{NumStripesTotal: numStripes, Type: PleLoader, pleL: &d}
}

func NewPleSAgent(numStripes uint32, d PleSDesc) Agent {
	return Agent{NumStripesTotal: numStripes, Type: PleScheduler, pleS: &d}
}

func NewOfmAgent(numStripes uint32, d OfmSDesc) Agent {
	return Agent{NumStripesTotal: numStripes, Type: OfmStreamer, ofm: &d}
}

// NewEstimateOnlyAgent builds a zero-stripe placeholder for an operator the process
// driver cannot lower while running in estimate-only mode (SPEC_FULL.md §6.1).
func NewEstimateOnlyAgent() Agent {
	return Agent{NumStripesTotal: 0, Type: IfmStreamer, EstimateOnly: true}
}

func (a Agent) IFM() *IfmSDesc {
	if a.Type != IfmStreamer || a.ifm == nil {
		panic(fmt.Sprintf("model: Agent.IFM() called on %s agent", a.Type))
	}
	return a.ifm
}

func (a Agent) Wgt() *WgtSDesc {
	if a.Type != WgtStreamer {
		panic(fmt.Sprintf("model: Agent.Wgt() called on %s agent", a.Type))
	}
	return a.wgt
}

func (a Agent) Mce() *MceSDesc {
	if a.Type != MceScheduler {
		panic(fmt.Sprintf("model: Agent.Mce() called on %s agent", a.Type))
	}
	return a.mce
}

func (a Agent) PleL() *PleLDesc {
	if a.Type != PleLoader {
		panic(fmt.Sprintf("model: Agent.PleL() called on %s agent", a.Type))
	}
	return a.pleL
}

func (a Agent) PleS() *PleSDesc {
	if a.Type != PleScheduler {
		panic(fmt.Sprintf("model: Agent.PleS() called on %s agent", a.Type))
	}
	return a.pleS
}

func (a Agent) OFM() *OfmSDesc {
	if a.Type != OfmStreamer || a.ofm == nil {
		panic(fmt.Sprintf("model: Agent.OFM() called on %s agent", a.Type))
	}
	return a.ofm
}

// AgentDescAndDeps bundles an agent with the dependencies it owns.
type AgentDescAndDeps struct {
	Agent Agent
	Deps  AgentDependencyInfo
}
