package model

// CounterName identifies one of the firmware's monotonic progress counters.
type CounterName uint32

const (
	CounterDmaRd CounterName = iota
	CounterDmaWr
	CounterMceif
	CounterMceStripe
	CounterPleCodeLoadedIntoPleSram
	CounterPleStripe
)

func (c CounterName) String() string {
	switch c {
	case CounterDmaRd:
		return "DmaRd"
	case CounterDmaWr:
		return "DmaWr"
	case CounterMceif:
		return "Mceif"
	case CounterMceStripe:
		return "MceStripe"
	case CounterPleCodeLoadedIntoPleSram:
		return "PleCodeLoadedIntoPleSram"
	case CounterPleStripe:
		return "PleStripe"
	default:
		return "Unknown"
	}
}

// Counters is a snapshot of all six firmware progress counters. Values are
// monotonically non-decreasing along each queue.
type Counters struct {
	DmaRd                    uint32
	DmaWr                    uint32
	Mceif                    uint32
	MceStripe                uint32
	PleCodeLoadedIntoPleSram uint32
	PleStripe                uint32
}

// Get reads the counter named by name.
func (c Counters) Get(name CounterName) uint32 {
	switch name {
	case CounterDmaRd:
		return c.DmaRd
	case CounterDmaWr:
		return c.DmaWr
	case CounterMceif:
		return c.Mceif
	case CounterMceStripe:
		return c.MceStripe
	case CounterPleCodeLoadedIntoPleSram:
		return c.PleCodeLoadedIntoPleSram
	case CounterPleStripe:
		return c.PleStripe
	default:
		return 0
	}
}

// Set returns a copy of c with the counter named by name set to value.
func (c Counters) Set(name CounterName, value uint32) Counters {
	switch name {
	case CounterDmaRd:
		c.DmaRd = value
	case CounterDmaWr:
		c.DmaWr = value
	case CounterMceif:
		c.Mceif = value
	case CounterMceStripe:
		c.MceStripe = value
	case CounterPleCodeLoadedIntoPleSram:
		c.PleCodeLoadedIntoPleSram = value
	case CounterPleStripe:
		c.PleStripe = value
	}
	return c
}

// Max returns the element-wise maximum of a and b.
func Max(a, b Counters) Counters {
	return Counters{
		DmaRd:                    maxU32(a.DmaRd, b.DmaRd),
		DmaWr:                    maxU32(a.DmaWr, b.DmaWr),
		Mceif:                    maxU32(a.Mceif, b.Mceif),
		MceStripe:                maxU32(a.MceStripe, b.MceStripe),
		PleCodeLoadedIntoPleSram: maxU32(a.PleCodeLoadedIntoPleSram, b.PleCodeLoadedIntoPleSram),
		PleStripe:                maxU32(a.PleStripe, b.PleStripe),
	}
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// AgentTypeCounter maps the agent type whose stripes are tallied by a given
// counter, used by the scheduler to convert an (agentId, stripeId) wait target into
// a counter wait. MceScheduler maps to MceStripe (StartMceStripe events); the Mceif
// counter, which the scheduler advances by each ProgramMceStripe's
// NumBlocksProgrammedForMce, is never the target of a wait.
func AgentTypeCounter(t AgentType) CounterName {
	switch t {
	case IfmStreamer, WgtStreamer:
		return CounterDmaRd
	case OfmStreamer:
		return CounterDmaWr
	case MceScheduler:
		return CounterMceStripe
	case PleLoader:
		return CounterPleCodeLoadedIntoPleSram
	case PleScheduler:
		return CounterPleStripe
	default:
		return CounterDmaRd
	}
}
