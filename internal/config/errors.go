// internal/config/errors.go
//
// Issue taxonomy and the aggregated failure returned by Build.

package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig matches any *ConfigurationError via errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

// Code classifies an Issue.
type Code string

const (
	MissingRequiredValue Code = "missing_required_value"
	InvalidFormat        Code = "invalid_format"
	WeakSecret           Code = "weak_secret"
	UnrecognizedCharset  Code = "unrecognized_charset"
	InsecureDefault      Code = "insecure_default"
	UnsafeSetting        Code = "unsafe_setting"
	SecretSourceFailure  Code = "secret_source_failure"
)

// Severity separates blocking issues from advisory ones.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// MarshalText renders the severity by name in JSON and YAML output.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts the names MarshalText produces.
func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	default:
		return fmt.Errorf("unknown severity %q", b)
	}
	return nil
}

// Issue is one validation finding.
type Issue struct {
	Field    string   `json:"field"    yaml:"field"`
	EnvVar   string   `json:"env_var"  yaml:"env_var"`
	Code     Code     `json:"code"     yaml:"code"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message"  yaml:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s (%s): %s [%s]", i.Field, i.EnvVar, i.Message, i.Code)
}

// Fatal reports whether the issue blocks Build.
func (i Issue) Fatal() bool { return i.Severity == SeverityError }

// Warnings filters issues down to the advisory ones, order kept.
func Warnings(issues []Issue) []Issue {
	var out []Issue
	for _, i := range issues {
		if !i.Fatal() {
			out = append(out, i)
		}
	}
	return out
}

func hasFatal(issues []Issue) bool {
	for _, i := range issues {
		if i.Fatal() {
			return true
		}
	}
	return false
}

// ConfigurationError carries every issue one pass produced, in field
// declaration order.  Warnings are included so operators see the whole
// picture in one message.
type ConfigurationError struct {
	Issues []Issue
}

func (e *ConfigurationError) Error() string {
	fatal := 0
	for _, i := range e.Issues {
		if i.Fatal() {
			fatal++
		}
	}
	if len(e.Issues) == 1 {
		return "configuration invalid: " + e.Issues[0].String()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration invalid with %d error(s)", fatal)
	for _, i := range e.Issues {
		fmt.Fprintf(&sb, "\n  - %s: %s", i.Severity, i)
	}
	return sb.String()
}

// Is lets errors.Is(err, ErrInvalidConfig) match.
func (e *ConfigurationError) Is(target error) bool { return target == ErrInvalidConfig }

// Fatal returns only the blocking issues.
func (e *ConfigurationError) Fatal() []Issue {
	var out []Issue
	for _, i := range e.Issues {
		if i.Fatal() {
			out = append(out, i)
		}
	}
	return out
}
