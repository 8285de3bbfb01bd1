package ecs

import "fmt"

// ComponentTypeID identifies a registered component type. Callers assign
// their own ids (typically a small package-level iota block); the
// runtime never derives ids by reflection.
type ComponentTypeID int32

// Component is the minimal contract every component instance satisfies.
type Component interface {
	Type() ComponentTypeID
}

// Field describes one schema entry: a property-type descriptor and an
// optional override of that descriptor's default.
type Field struct {
	Kind    PropertyType
	Default any
}

// Schema documents a component type's fields for validation and
// introspection. It does not construct instances -- pooled components
// build themselves through Clone/CopyFrom -- it only lets
// RegisterComponent catch an incomplete descriptor before anything is
// created from it.
type Schema map[string]Field

func validateSchema(schema Schema) error {
	for field, descriptor := range schema {
		if descriptor.Kind.Name == "" {
			return fmt.Errorf("%w: field %q has no type descriptor", ErrSchemaInvalid, field)
		}
		if descriptor.Kind.Default == nil {
			return fmt.Errorf("%w: field %q's type descriptor has no default", ErrSchemaInvalid, field)
		}
		if descriptor.Kind.Clone == nil || descriptor.Kind.Copy == nil {
			return fmt.Errorf("%w: field %q's type descriptor is missing clone/copy", ErrSchemaInvalid, field)
		}
	}
	return nil
}

type componentConfig struct {
	name        string
	schema      Schema
	tag         bool
	systemState bool
	noPool      bool
}

// ComponentOption configures a call to RegisterComponent.
type ComponentOption func(*componentConfig)

// WithName attaches a human-readable name to a component type, used in
// query keys and JSON views in place of the bare numeric id.
func WithName(name string) ComponentOption { return func(c *componentConfig) { c.name = name } }

// WithSchema attaches field descriptors used for registration-time
// validation and introspection.
func WithSchema(schema Schema) ComponentOption { return func(c *componentConfig) { c.schema = schema } }

// Tag marks a component type as a zero-field presence marker.
func Tag() ComponentOption { return func(c *componentConfig) { c.tag = true } }

// SystemStateComponent marks a component type as one whose presence
// keeps a disposed entity alive as a ghost until the component is
// explicitly removed.
func SystemStateComponent() ComponentOption { return func(c *componentConfig) { c.systemState = true } }

// WithoutPool disables pooling for a component type even though its
// instances implement Poolable. The registration prototype is not kept,
// so AddComponent for such a type clones the props instance it is given;
// called without props it returns an error instead of constructing one.
func WithoutPool() ComponentOption { return func(c *componentConfig) { c.noPool = true } }

// ComponentStore is the per-type registry entry: schema, optional pool,
// and the live attachment count the world maintains as entities gain and
// lose instances of this type.
type ComponentStore struct {
	id          ComponentTypeID
	Name        string
	schema      Schema
	tag         bool
	systemState bool
	pool        componentPool
	count       int64
}

func (s *ComponentStore) ID() ComponentTypeID     { return s.id }
func (s *ComponentStore) IsTag() bool             { return s.tag }
func (s *ComponentStore) IsSystemState() bool     { return s.systemState }
func (s *ComponentStore) Count() int64            { return s.count }
func (s *ComponentStore) Schema() Schema          { return s.schema }
func (s *ComponentStore) Pooled() bool            { return s.pool != nil }

func (s *ComponentStore) PoolStats() (PoolStats, bool) {
	if s.pool == nil {
		return PoolStats{}, false
	}
	return s.pool.stats(), true
}

// RegisterComponent registers a component type on w, keyed by id, using
// prototype as the seed a pool (if enabled) clones from. Validation covers
// only the schema supplied through WithSchema. Re-registering an id is a no-op with a logged
// warning, not an error -- callers that register components at package
// init time in multiple places should not have to coordinate.
func RegisterComponent[T Poolable](w *World, id ComponentTypeID, prototype T, opts ...ComponentOption) error {
	cfg := &componentConfig{name: fmt.Sprintf("#%d", id)}
	for _, o := range opts {
		o(cfg)
	}
	if err := validateSchema(cfg.schema); err != nil {
		return err
	}
	if _, exists := w.componentStores[id]; exists {
		w.warnf("component type %s already registered", cfg.name)
		return nil
	}
	var pool componentPool
	if !cfg.noPool {
		pool = newPool[T](prototype)
	}
	store := &ComponentStore{
		id:          id,
		Name:        cfg.name,
		schema:      cfg.schema,
		tag:         cfg.tag,
		systemState: cfg.systemState,
		pool:        pool,
	}
	w.componentStores[id] = store
	w.notifyComponentRegistered(store)
	return nil
}
