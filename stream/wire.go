package stream

import (
	"bytes"
	"encoding/gob"

	"github.com/npucs/npucs/model"
)

// agentWire mirrors model.Agent with exported descriptor fields so it can round
// trip through encoding/gob: Agent's descriptor pointers are unexported (accessed
// only through its panic-on-mismatch accessors), which is the right shape for the
// in-memory sum type but not something gob can see into directly.
type agentWire struct {
	NumStripesTotal uint32
	Type            model.AgentType
	EstimateOnly    bool

	Ifm  *model.IfmSDesc
	Wgt  *model.WgtSDesc
	Mce  *model.MceSDesc
	PleL *model.PleLDesc
	PleS *model.PleSDesc
	Ofm  *model.OfmSDesc
}

func toWire(a model.Agent) agentWire {
	w := agentWire{NumStripesTotal: a.NumStripesTotal, Type: a.Type, EstimateOnly: a.EstimateOnly}
	if a.EstimateOnly {
		return w
	}
	switch a.Type {
	case model.IfmStreamer:
		w.Ifm = a.IFM()
	case model.WgtStreamer:
		w.Wgt = a.Wgt()
	case model.MceScheduler:
		w.Mce = a.Mce()
	case model.PleLoader:
		w.PleL = a.PleL()
	case model.PleScheduler:
		w.PleS = a.PleS()
	case model.OfmStreamer:
		w.Ofm = a.OFM()
	}
	return w
}

func fromWire(w agentWire) model.Agent {
	if w.EstimateOnly {
		return model.NewEstimateOnlyAgent()
	}
	switch w.Type {
	case model.IfmStreamer:
		return model.NewIfmAgent(w.NumStripesTotal, *w.Ifm)
	case model.WgtStreamer:
		return model.NewWgtAgent(w.NumStripesTotal, *w.Wgt)
	case model.MceScheduler:
		return model.NewMceAgent(w.NumStripesTotal, *w.Mce)
	case model.PleLoader:
		return model.NewPleLAgent(w.NumStripesTotal, *w.PleL)
	case model.PleScheduler:
		return model.NewPleSAgent(w.NumStripesTotal, *w.PleS)
	case model.OfmStreamer:
		return model.NewOfmAgent(w.NumStripesTotal, *w.Ofm)
	default:
		return model.Agent{}
	}
}

// encodeAgents gob-encodes the agent array into a standalone byte slice. Agent
// descriptors carry variable-length fields (WgtSDesc.Metadata, PleSDesc.Op.Params)
// that have no fixed register-file layout of their own — gob is the teacher's
// idiomatic tool for a self-describing variable-shape payload, used here instead of
// hand-rolling a TLV scheme for each descriptor kind.
func encodeAgents(agents []model.Agent) []byte {
	wires := make([]agentWire, len(agents))
	for i, a := range agents {
		wires[i] = toWire(a)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wires); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func decodeAgents(raw []byte) ([]model.Agent, error) {
	var wires []agentWire
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&wires); err != nil {
		return nil, err
	}
	agents := make([]model.Agent, len(wires))
	for i, w := range wires {
		agents[i] = fromWire(w)
	}
	return agents, nil
}

// encodeCommands gob-encodes one command queue. CommandVariant's own fields are
// all fixed-width, but encoding it alongside the agent array through the same
// mechanism keeps the container format's one rule simple: everything past the
// header is a gob blob located by the header's offset table.
func encodeCommands(cmds []model.CommandVariant) []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cmds); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func decodeCommands(raw []byte) ([]model.CommandVariant, error) {
	var cmds []model.CommandVariant
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&cmds); err != nil {
		return nil, err
	}
	return cmds, nil
}
