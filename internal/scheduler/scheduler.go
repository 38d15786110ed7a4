// Package scheduler drives an actor.Registry turn by turn: flip and
// drain inboxes, run every critical message across all types before any
// non-critical one, apply deaths, and reclaim the chunks last turn's
// reads finished with. It intentionally runs every type's dispatch on a
// single goroutine; parallel actor execution across types is out of
// scope for this runtime (see SPEC_FULL.md).
package scheduler

import "github.com/citybound/citybound-sub001/internal/actor"

// RunTurn advances reg by exactly one turn against world.
func RunTurn(reg *actor.Registry, world *actor.World) {
	reg.BeginTurn()
	reg.RunCritical(world)
	reg.RunNonCritical(world)
	reg.ApplyDeaths()
	reg.DropOldChunks()
}

// RunTurns advances reg by n turns, in sequence.
func RunTurns(reg *actor.Registry, world *actor.World, n int) {
	for i := 0; i < n; i++ {
		RunTurn(reg, world)
	}
}
