// Package dependency implements the pure stripe-reference arithmetic used by both
// the scheduler (readiness / liveness checks) and the command-stream builder
// (WaitForCounter / eviction-safety emission). Every function here is grounded on
// the anonymous-namespace helpers in Scheduler.cpp and must not allocate or touch
// agent state — they are closed-form functions of a Dependency and a stripe index
// (SPEC_FULL.md §4.5).
package dependency

import "github.com/npucs/npucs/model"

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GetFirstReaderStripeId returns the stripe id of the consuming agent that first
// needs stripe x of the producing (self) agent.
func GetFirstReaderStripeId(dep model.Dependency, x uint32) int32 {
	if x == 0 {
		return 0
	}
	xi := int32(x)
	outer := dep.OuterRatio.Other * (xi / dep.OuterRatio.Self)

	inner := (xi % dep.OuterRatio.Self) - dep.Boundary
	inner = dep.InnerRatio.Other * (inner / dep.InnerRatio.Self)
	inner = clamp(inner, 0, dep.OuterRatio.Other-1)

	return outer + inner
}

// GetLargestNeededStripeId returns the largest stripe id of the producing agent
// that must be complete before stripe x of the consuming (self) agent can start.
func GetLargestNeededStripeId(dep model.Dependency, x uint32) int32 {
	xi := int32(x)
	outer := dep.OuterRatio.Other * (xi / dep.OuterRatio.Self)

	inner := xi % dep.OuterRatio.Self
	inner = dep.InnerRatio.Other * (inner / dep.InnerRatio.Self)
	inner = inner + dep.InnerRatio.Other - 1 + dep.Boundary
	inner = clamp(inner, 0, dep.OuterRatio.Other-1)

	return outer + inner
}

// GetLastReaderStripeId returns the stripe id of the consuming agent that last uses
// stripe x of the producing (self) agent.
func GetLastReaderStripeId(dep model.Dependency, x uint32) int32 {
	xi := int32(x)
	outer := dep.OuterRatio.Other * (xi / dep.OuterRatio.Self)

	inner := (xi % dep.OuterRatio.Self) + dep.Boundary
	inner = dep.InnerRatio.Other * (inner / dep.InnerRatio.Self)
	inner = inner + dep.InnerRatio.Other - 1
	inner = clamp(inner, 0, dep.OuterRatio.Other-1)

	return outer + inner
}

// GetLastReaderOfEvictedStripeId returns the stripe id of the consuming agent that
// last used the stripe about to be evicted from slot (x - tileSize). x must be at
// least tileSize; callers check stripeId >= tileSize before calling (the first
// tileSize stripes never evict anything).
func GetLastReaderOfEvictedStripeId(dep model.Dependency, x uint32, tileSize uint32) int32 {
	if x < tileSize {
		model.Violate("dependency", "GetLastReaderOfEvictedStripeId: x=%d < tileSize=%d", x, tileSize)
	}
	return GetLastReaderStripeId(dep, x-tileSize)
}
