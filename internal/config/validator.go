// internal/config/validator.go
//
// Per-field rules on top of go-playground/validator.
//
// Context
// -------
// Validate walks the resolved fields once, in declaration order, and emits at
// most one Issue per field.  Every field is checked regardless of what
// happened to the others, so a single run surfaces every problem.  Syntactic
// checks go through the package-level validator instance with two custom
// tags:
//
//   • wp_identifier – `^[A-Za-z_][A-Za-z0-9_]*$`, for the table prefix,
//   • wp_collation  – lowercase identifier, for DB_COLLATE,
//   • wp_hostname   – RFC 1123 labels that may also carry underscores, so
//     Compose service names like `wordpress_db` pass.
//
// Host and port parsing is done by hand because the message needs to say
// which half is wrong; the host half is then handed to the validator.
//
// After the per-field pass, the table as a whole is checked: every value a
// Config carries must come from exactly one field, so a trimmed or
// duplicated table cannot produce a half-filled Config.

package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var (
	identifierRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	collationRE  = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)+$`)
	hostnameRE   = regexp.MustCompile(`^[A-Za-z0-9_]([A-Za-z0-9_-]{0,61}[A-Za-z0-9_])?(\.[A-Za-z0-9_]([A-Za-z0-9_-]{0,61}[A-Za-z0-9_])?)*\.?$`)

	v = newValidator()
)

// Charsets is the accepted DB_CHARSET whitelist.
var Charsets = []string{"utf8mb4", "utf8"}

func newValidator() *validator.Validate {
	val := validator.New()
	must := func(tag string, re *regexp.Regexp) {
		if err := val.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	}
	must("wp_identifier", identifierRE)
	must("wp_collation", collationRE)
	must("wp_hostname", hostnameRE)
	return val
}

func check(value, tag string) bool { return v.Var(value, tag) == nil }

//
// public API
//

// Validate returns every issue found in fields, ordered as the fields are.
// The charset field, when present, feeds the collation prefix check.
func Validate(fields []ResolvedField, mode Mode) []Issue {
	charset := ""
	for _, f := range fields {
		if f.Spec.Kind == KindCharset {
			charset = f.Value
		}
	}

	var issues []Issue
	for _, f := range fields {
		if is, ok := validateField(f, mode, charset); ok {
			issues = append(issues, is)
		}
	}
	return append(issues, tableIssues(fields, issues)...)
}

// configNames lists every field a Config is assembled from.  Debug flags
// are left out; a table without them simply leaves debugging off.
func configNames() []string {
	names := []string{"DB_NAME", "DB_USER", "DB_PASSWORD", "DB_HOST", "DB_CHARSET", "DB_COLLATE", "TABLE_PREFIX"}
	return append(names, SecretNames...)
}

// tableIssues reports Config fields that the table leaves out, declares more
// than once, or resolves to nothing, skipping fields that already carry an
// issue.  Absent fields come last, in configNames order.
func tableIssues(fields []ResolvedField, issues []Issue) []Issue {
	reported := make(map[string]bool, len(issues))
	for _, is := range issues {
		reported[is.Field] = true
	}
	wanted := make(map[string]bool)
	for _, n := range configNames() {
		wanted[n] = true
	}
	for _, n := range []string{"WP_DEBUG", "WP_DEBUG_LOG", "WP_DEBUG_DISPLAY"} {
		wanted[n] = true
	}

	var out []Issue
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		name := f.Spec.Name
		if !wanted[name] {
			continue
		}
		switch {
		case seen[name]:
			if !reported[name] {
				out = append(out, Issue{Field: name, EnvVar: f.Spec.EnvVar, Code: InvalidFormat, Severity: SeverityError,
					Message: "field is declared more than once"})
				reported[name] = true
			}
		case f.Origin == Missing && !reported[name]:
			out = append(out, Issue{Field: name, EnvVar: f.Spec.EnvVar, Code: MissingRequiredValue, Severity: SeverityError,
				Message: fmt.Sprintf("%s is not set and has no default", f.Spec.EnvVar)})
			reported[name] = true
		}
		seen[name] = true
	}
	for _, n := range configNames() {
		if !seen[n] && !reported[n] {
			out = append(out, Issue{Field: n, EnvVar: EnvPrefix + n, Code: MissingRequiredValue, Severity: SeverityError,
				Message: "field is not declared"})
		}
	}
	return out
}

func validateField(f ResolvedField, mode Mode, charset string) (Issue, bool) {
	issue := func(code Code, sev Severity, format string, args ...any) (Issue, bool) {
		return Issue{
			Field:    f.Spec.Name,
			EnvVar:   f.Spec.EnvVar,
			Code:     code,
			Severity: sev,
			Message:  fmt.Sprintf(format, args...),
		}, true
	}

	if f.Origin == Missing {
		if f.Spec.Required {
			return issue(MissingRequiredValue, SeverityError, "%s is not set and has no default", f.Spec.EnvVar)
		}
		return Issue{}, false
	}

	val := f.Value
	switch f.Spec.Kind {
	case KindDatabaseName, KindCredential:
		if !check(strings.TrimSpace(val), "required") {
			return issue(InvalidFormat, SeverityError, "must not be blank")
		}
		if f.Spec.Kind == KindCredential && mode == Production && f.Origin == Defaulted {
			return issue(InsecureDefault, SeverityWarning, "using the built-in default %q in production", val)
		}

	case KindTablePrefix:
		if !check(strings.TrimSpace(val), "required") {
			return issue(InvalidFormat, SeverityError, "must not be blank")
		}
		if !check(val, "wp_identifier") {
			return issue(InvalidFormat, SeverityError, "%q is not a valid identifier (letters, digits, underscore; no leading digit)", val)
		}

	case KindHostPort:
		if msg := hostPortProblem(val); msg != "" {
			return issue(InvalidFormat, SeverityError, "%s", msg)
		}

	case KindSecret:
		if !check(strings.TrimSpace(val), "required") {
			return issue(InvalidFormat, SeverityError, "must not be blank")
		}
		if mode == Production {
			if val == Placeholder {
				return issue(WeakSecret, SeverityError, "still set to the placeholder phrase")
			}
			if !check(val, fmt.Sprintf("min=%d", MinSecretLength)) {
				return issue(WeakSecret, SeverityError, "shorter than %d characters", MinSecretLength)
			}
			return Issue{}, false
		}
		if val == Placeholder {
			return issue(WeakSecret, SeverityWarning, "still set to the placeholder phrase")
		}

	case KindCharset:
		if !check(val, "oneof="+strings.Join(Charsets, " ")) {
			return issue(UnrecognizedCharset, SeverityError, "%q is not one of %s", val, strings.Join(Charsets, ", "))
		}

	case KindCollation:
		if val == "" {
			return Issue{}, false
		}
		if !check(val, "wp_collation") {
			return issue(InvalidFormat, SeverityError, "%q is not a valid collation name", val)
		}
		if charset != "" && check(charset, "oneof="+strings.Join(Charsets, " ")) &&
			!strings.HasPrefix(val, charset+"_") {
			return issue(InvalidFormat, SeverityError, "collation %q does not belong to charset %q", val, charset)
		}

	case KindFlag:
		if !check(val, "boolean") {
			return issue(InvalidFormat, SeverityError, "%q is not a boolean", val)
		}
		if mode == Production && f.Spec.Name == "WP_DEBUG_DISPLAY" && parseBool(val) {
			return issue(UnsafeSetting, SeverityWarning, "debug output is displayed to visitors in production")
		}
	}
	return Issue{}, false
}

// hostPortProblem returns "" for a valid host or host:port.
func hostPortProblem(val string) string {
	if strings.TrimSpace(val) == "" {
		return "must not be blank"
	}
	host, port, err := splitHostPort(val)
	if err != nil {
		return fmt.Sprintf("%q is not host or host:port", val)
	}
	if host == "" {
		return fmt.Sprintf("%q has an empty host", val)
	}
	if !check(host, "wp_hostname|ip") {
		return fmt.Sprintf("%q is not a valid hostname or IP address", host)
	}
	if strings.Contains(val, "]:") || (!strings.HasPrefix(val, "[") && strings.Count(val, ":") == 1) {
		if port < 1 || port > 65535 {
			return fmt.Sprintf("port %d out of range 1-65535", port)
		}
	}
	return ""
}
