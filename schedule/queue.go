package schedule

import "github.com/npucs/npucs/model"

var allCounters = [...]model.CounterName{
	model.CounterDmaRd,
	model.CounterDmaWr,
	model.CounterMceif,
	model.CounterMceStripe,
	model.CounterPleCodeLoadedIntoPleSram,
	model.CounterPleStripe,
}

// commandQueue is one of the four physical firmware command queues (DmaRd, DmaWr,
// Mce, Ple). It tracks which counter values have already been waited for on this
// queue so PushWaitForCounter can drop a redundant wait (SPEC_FULL.md §4.6).
type commandQueue struct {
	commands     []model.CommandVariant
	implications *counterImplications

	// lastWaited is the maximum value of each counter this queue is already
	// guaranteed to have reached, combining direct waits and their implications.
	lastWaited model.Counters
}

func newCommandQueue(implications *counterImplications) commandQueue {
	return commandQueue{implications: implications}
}

func (q *commandQueue) push(c model.CommandVariant) {
	q.commands = append(q.commands, c)
}

// pushWaitForCounter appends a WaitForCounter(name, value) command unless a
// previous wait on this queue already guarantees it (directly, or via a recorded
// implication).
func (q *commandQueue) pushWaitForCounter(name model.CounterName, value uint32) {
	if value == 0 {
		return
	}
	if q.lastWaited.Get(name) >= value {
		return
	}
	for _, n := range allCounters {
		waited := q.lastWaited.Get(n)
		if waited == 0 {
			continue
		}
		if q.implications.Get(n, waited).Get(name) >= value {
			return
		}
	}

	q.push(model.CommandVariant{
		Type: model.CmdWaitForCounter,
		Wait: model.WaitForCounterCommand{CounterName: name, Value: value},
	})
	q.lastWaited = q.lastWaited.Set(name, value)
}

// recordCounterReached stores, for a just-completed stripe, how far every counter
// this queue has waited on has progressed — the guarantee future consumers can rely
// on once the given counter reaches newValue.
func (q *commandQueue) recordCounterReached(name model.CounterName, newValue uint32) {
	q.implications.Update(name, newValue, q.lastWaited)
}
