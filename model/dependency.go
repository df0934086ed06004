package model

// Ratio expresses how many stripes of "self" correspond to how many stripes of
// "other" along a Dependency relation.
type Ratio struct {
	Self, Other int32
}

// Dependency declares a many-to-many relation between stripes of two agents, owned
// by the agent whose stripe index is "self" in the formulas below (package
// dependency). RelativeAgentID is a non-negative distance; its direction is
// implicit in which list the Dependency lives in: a read dependency points that
// many agents back, a write or schedule dependency that many agents forward.
type Dependency struct {
	RelativeAgentID int32
	OuterRatio      Ratio
	InnerRatio      Ratio
	Boundary        int32

	// WritesToTileSize is the producer's tile size when this dependency also
	// guards tile-slot eviction safety; -1 when not applicable.
	WritesToTileSize int32

	UseForScheduling    bool
	UseForCommandStream bool
}

// AgentDependencyInfo groups the three dependency lists an agent owns: read-after-
// write on its producers, write-after-read on its consumers (tile eviction), and
// schedule-only dependencies used purely to decide progress order.
type AgentDependencyInfo struct {
	ReadDependencies     []Dependency
	WriteDependencies    []Dependency
	ScheduleDependencies []Dependency
}
