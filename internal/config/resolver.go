// internal/config/resolver.go
//
// Resolver: environment lookup → ResolvedField.
//
// The lookup is injected so tests and the loader can hand in a snapshot
// instead of the live process environment.  Resolution never fails; a
// required field with nothing to fall back on comes out as Missing and the
// validator reports it.

package config

// LookupFunc mirrors os.LookupEnv.
type LookupFunc func(name string) (string, bool)

// MapLookup adapts a plain map, mostly for tests.
func MapLookup(m map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// Resolve returns one ResolvedField per spec, in spec order.  A variable
// that is set but empty counts as unset.
func Resolve(specs []FieldSpec, lookup LookupFunc) []ResolvedField {
	out := make([]ResolvedField, 0, len(specs))
	for _, s := range specs {
		if v, ok := lookup(s.EnvVar); ok && v != "" {
			out = append(out, ResolvedField{Spec: s, Value: v, Origin: Explicit})
			continue
		}
		if s.HasDefault() {
			out = append(out, ResolvedField{Spec: s, Value: *s.Default, Origin: Defaulted})
			continue
		}
		out = append(out, ResolvedField{Spec: s, Origin: Missing})
	}
	return out
}
