package ecs

// PropertyType is a small descriptor vtable for one kind of component
// field value: how to produce a fresh default, clone an existing value,
// and copy one instance's value onto another. It mirrors the
// default/clone/copy triple a component schema needs per field, kept
// separate from the Go struct fields that actually hold the data so the
// same descriptor can back introspection and schema validation.
type PropertyType struct {
	Name    string
	Default func() any
	Clone   func(value any) any
	Copy    func(src, dst any) any
}

// NewPropertyType builds a PropertyType from its three behaviors.
func NewPropertyType(name string, def func() any, clone func(any) any, copy func(src, dst any) any) PropertyType {
	return PropertyType{Name: name, Default: def, Clone: clone, Copy: copy}
}

func identityClone(v any) any    { return v }
func overwriteCopy(src, _ any) any { return src }

func cloneMap(v any) any {
	m, ok := v.(map[string]any)
	if !ok || m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = val
	}
	return out
}

func cloneSlice(v any) any {
	s, ok := v.([]any)
	if !ok || s == nil {
		return []any{}
	}
	out := make([]any, len(s))
	copy(out, s)
	return out
}

// Built-in property types, one per primitive kind a field descriptor can
// name. Object and Array get shallow-copying clone functions since Go
// maps and slices are reference types; Number/Boolean/String/JSON are
// copied by value.
var (
	Number  = NewPropertyType("Number", func() any { return 0.0 }, identityClone, overwriteCopy)
	Boolean = NewPropertyType("Boolean", func() any { return false }, identityClone, overwriteCopy)
	String  = NewPropertyType("String", func() any { return "" }, identityClone, overwriteCopy)
	Object  = NewPropertyType("Object", func() any { return map[string]any{} }, cloneMap, overwriteCopy)
	Array   = NewPropertyType("Array", func() any { return []any{} }, cloneSlice, overwriteCopy)
	JSON    = NewPropertyType("JSON", func() any { return nil }, identityClone, overwriteCopy)
)
