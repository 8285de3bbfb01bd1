package ecs

import "errors"

// Sentinel errors returned synchronously at the call site. Callers compare
// with errors.Is since several operations wrap these with context via
// fmt.Errorf("%w: ...", ...).
var (
	// ErrSchemaInvalid is returned by RegisterComponent when a field
	// descriptor is missing a type, a default, or clone/copy functions.
	ErrSchemaInvalid = errors.New("ecs: invalid component schema")

	// ErrEmptyQuery is returned by World.GetQuery when a query's include
	// set is empty (an all-exclusion or zero-term query matches nothing
	// meaningful and is rejected rather than silently returning every
	// entity).
	ErrEmptyQuery = errors.New("ecs: query has no include terms")

	// ErrMutabilityViolation is returned by ReadOnlyView.Set, the
	// write-trap a caller hits when it tries to mutate a component
	// obtained through Entity.GetComponent instead of GetMutableComponent.
	ErrMutabilityViolation = errors.New("ecs: write attempted through a read-only component view")

	// ErrPoolExhausted is returned when a component pool's growth step
	// itself fails (the prototype's Clone produced an unexpected type).
	ErrPoolExhausted = errors.New("ecs: component pool exhausted")
)
