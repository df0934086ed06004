// Package compile is the Process Driver (spec.md §4.8): it walks a planned
// operator graph, instantiates one or more agents per Op, computes every RAW/WAR/
// schedule dependency (including SRAM-overlap and intermediate-DRAM-buffer
// lifetime analysis), hands the result to the scheduler, and packages the four
// resulting queues into a command stream. Grounded on original_source
// CascadingCommandStreamGenerator.cpp's per-op-kind dispatch; the top-level
// Generate entry point's panic recovery follows the teacher's
// sim/simulator.go / sim/cluster/cluster.go posture of never letting an internal
// invariant violation escape to the caller (SPEC_FULL.md §4.2/§4.8).
//
// The planner that produces a Graph (buffer placement, stripe shapes, which PLE
// kernel a consumer wants preloaded) is out of this package's scope — spec.md §4.8
// describes the Process Driver as consuming an *already planned* operator graph,
// not doing the planning itself.
package compile

import (
	"fmt"
	"strings"

	"github.com/npucs/npucs/model"
	"gopkg.in/yaml.v3"
)

// OpKind tags which of the three Process* methods handles an Op, and which of Op's
// fields are populated.
type OpKind int

const (
	OpDmaLoadWeights OpKind = iota
	OpDmaLoadIfm
	OpDmaStoreOfm
	OpMce
	OpPle
)

func (k OpKind) String() string {
	switch k {
	case OpDmaLoadWeights:
		return "DmaLoadWeights"
	case OpDmaLoadIfm:
		return "DmaLoadIfm"
	case OpDmaStoreOfm:
		return "DmaStoreOfm"
	case OpMce:
		return "Mce"
	case OpPle:
		return "Ple"
	default:
		return "Unknown"
	}
}

// MarshalYAML renders an OpKind by name rather than by its underlying integer.
func (k OpKind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// UnmarshalYAML accepts any of the OpKind.String() names, case-insensitively, so a
// hand-written graph file reads "kind: Mce" rather than a bare integer.
func (k *OpKind) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	for _, candidate := range []OpKind{OpDmaLoadWeights, OpDmaLoadIfm, OpDmaStoreOfm, OpMce, OpPle} {
		if strings.EqualFold(candidate.String(), raw) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("compile: invalid op kind %q", raw)
}

// SramRange is a half-open byte range [Start, End) within SRAM, used for overlap
// detection between agents sharing physical SRAM across unrelated cascades.
type SramRange struct {
	Start, End uint32
}

// Overlaps reports whether r and o share any byte.
func (r SramRange) Overlaps(o SramRange) bool {
	return r.Start < o.End && o.Start < r.End
}

// noProducer marks an Op reference field as "no producer in this graph" (an
// external input, or simply absent).
const noProducer = -1

// Op is one node of the planner's already-topologically-ordered operator graph.
// Only the fields relevant to Kind are populated. Field tags let a planner hand a
// Graph to the generate subcommand as YAML (cmd/generate.go) without a separate
// wire type.
type Op struct {
	Kind OpKind `yaml:"kind"`

	// OpDmaLoadWeights
	Wgt *model.WgtSDesc `yaml:"wgt,omitempty"`

	// OpDmaLoadIfm
	Ifm           *model.IfmSDesc `yaml:"ifm,omitempty"`
	IfmProducerOp int             `yaml:"ifmProducerOp"` // index into the Graph's Ops of the OfmS op that wrote this DRAM buffer, or noProducer
	IfmDramID     int             `yaml:"ifmDramID"`     // stable DRAM buffer identity, for intermediate-buffer lifetime analysis
	IfmSram       SramRange       `yaml:"ifmSram"`        // the SRAM range this load will occupy, for overlap dependency insertion

	// OpDmaStoreOfm
	Ofm           *model.OfmSDesc `yaml:"ofm,omitempty"`
	OfmProducerOp int             `yaml:"ofmProducerOp"` // index of the producing Mce or Ple op
	OfmDramID     int             `yaml:"ofmDramID"`

	// OpMce
	Mce              *model.MceSDesc `yaml:"mce,omitempty"`
	MceIfmProducerOp int             `yaml:"mceIfmProducerOp"` // index of the OpDmaLoadIfm op, or noProducer
	MceWgtProducerOp int             `yaml:"mceWgtProducerOp"` // index of the OpDmaLoadWeights op, or noProducer
	MceSram          SramRange       `yaml:"mceSram"`
	LoadKernel       bool            `yaml:"loadKernel"`          // the consumer Ple op wants this kernel identity preloaded
	KernelSram       model.PleLDesc  `yaml:"kernelSram,omitempty"` // only meaningful when LoadKernel is true

	// OpPle
	Ple       *model.PleSDesc `yaml:"ple,omitempty"`
	Fused     bool            `yaml:"fused"` // input is the immediately preceding Mce op's accumulator output (PleInputSram)
	PleIn0Op  int             `yaml:"pleIn0Op"` // standalone mode: producer op index of the first input, or noProducer
	PleIn1Op  int             `yaml:"pleIn1Op"` // standalone mode: producer op index of an optional second input
	HasPleIn1 bool            `yaml:"hasPleIn1"`
	PleSram   SramRange       `yaml:"pleSram"`
}

// Graph is the planner's operator DAG. Ops must already be in an order where every
// producer appears before the Ops that reference it by index.
type Graph struct {
	Ops []Op `yaml:"ops"`
}
