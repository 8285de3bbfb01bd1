// Package ecs implements an entity-component-system runtime: a
// component store with schema validation and object pooling, entities
// as mutable component bags with deferred-removal and ghost-retention
// lifecycle, materialized queries with reactive add/remove/changed
// events, and a priority-ordered system scheduler. The runtime is
// single-threaded and cooperative: nothing here spawns a goroutine or
// drives its own clock. Host applications call World.Execute once per
// tick.
package ecs
