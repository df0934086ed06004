package schedule

import "github.com/npucs/npucs/model"

// counterImplications records, for a counter reaching a given value, the minimum
// values every other counter is guaranteed to have already reached. A command
// queue consults this before emitting a WaitForCounter so it can skip one that a
// prior wait already implies — SPEC_FULL.md §4.6 / §8 invariant 5, grounded on the
// CounterImplications class documented in Scheduler.hpp (the only comment on it,
// since no .cpp definition was available to copy from, describes exactly this: "a
// trivial example... waiting for MceStripe=2... means you are implicitly waiting
// for DmaRd=1 as well").
type counterImplications struct {
	byCounter map[model.CounterName]map[uint32]model.Counters
}

func newCounterImplications() *counterImplications {
	return &counterImplications{byCounter: make(map[model.CounterName]map[uint32]model.Counters)}
}

// Get returns the minimum guaranteed values of every counter once name reaches
// value. Returns the zero Counters if nothing has been recorded.
func (c *counterImplications) Get(name model.CounterName, value uint32) model.Counters {
	byValue, ok := c.byCounter[name]
	if !ok {
		return model.Counters{}
	}
	return byValue[value]
}

// Update records that once name reaches value, every counter in counters is
// guaranteed reached. Merges with (rather than replaces) any existing record, since
// later stripes may add further-refined guarantees.
func (c *counterImplications) Update(name model.CounterName, value uint32, counters model.Counters) {
	byValue, ok := c.byCounter[name]
	if !ok {
		byValue = make(map[uint32]model.Counters)
		c.byCounter[name] = byValue
	}
	byValue[value] = model.Max(byValue[value], counters)
}
