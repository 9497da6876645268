// internal/config/report.go
//
// Human-facing view of one pipeline run, shared by `wpconfig print` and the
// /healthz endpoint.  Sensitive values are masked unless the caller asks.

package config

import "strings"

// FieldReport is one resolved field as shown to operators.
type FieldReport struct {
	Name   string `json:"name"    yaml:"name"`
	EnvVar string `json:"env_var" yaml:"env_var"`
	Kind   string `json:"kind"    yaml:"kind"`
	Origin string `json:"origin"  yaml:"origin"`
	Value  string `json:"value"   yaml:"value"`
}

// Report summarises a Result.
type Report struct {
	Mode   string        `json:"mode"             yaml:"mode"`
	Valid  bool          `json:"valid"            yaml:"valid"`
	Fields []FieldReport `json:"fields,omitempty" yaml:"fields,omitempty"`
	Issues []Issue       `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// NewReport builds a Report.  withFields=false leaves Fields empty.
func NewReport(res Result, withFields, showSecrets bool) Report {
	r := Report{
		Mode:   res.Mode.String(),
		Valid:  res.Err == nil && res.Config != nil,
		Issues: res.Issues,
	}
	if !withFields {
		return r
	}
	for _, f := range res.Fields {
		val := f.Value
		if f.Spec.Kind.Sensitive() && !showSecrets {
			val = Mask(val)
		}
		r.Fields = append(r.Fields, FieldReport{
			Name:   f.Spec.Name,
			EnvVar: f.Spec.EnvVar,
			Kind:   f.Spec.Kind.String(),
			Origin: f.Origin.String(),
			Value:  val,
		})
	}
	return r
}

// Mask hides a value while keeping enough shape to spot the placeholder
// and obviously short entries.
func Mask(v string) string {
	r := []rune(v)
	switch {
	case v == "":
		return ""
	case v == Placeholder:
		return v
	case len(r) <= 8:
		return strings.Repeat("*", len(r))
	}
	return string(r[:2]) + strings.Repeat("*", len(r)-4) + string(r[len(r)-2:])
}
