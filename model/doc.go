// Package model defines the compile-time data model shared by every stage of the
// command-stream compiler: tile/tensor geometry, per-agent-type descriptors, the
// Agent tagged union, Dependency relations, and the Counters/CommandVariant types
// that the scheduler and packager operate on.
//
// Descriptors and dependencies are built once by the process driver (package compile)
// and are read-only for the remainder of compilation; nothing in this package mutates
// shared state after construction.
package model
