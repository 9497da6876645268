// internal/config/model.go
//
// Typed configuration model for wpenv.
//
// Context
// -------
// The resolution pipeline moves through three shapes:
//
//   • FieldSpec      – static description of one environment variable,
//   • ResolvedField  – the value a lookup produced plus where it came from,
//   • Config         – the immutable aggregate handed to the CMS.
//
// A Config is only ever constructed by Build, and only when validation
// produced no error-severity issues.  Secrets live in an unexported map and
// leave the struct through copying accessors, so a caller holding *Config
// cannot mutate what another caller sees.
//
// Notes
// -----
//   • Field names mirror the constants the CMS expects (DB_NAME, AUTH_KEY).
//   • Two spaces after periods.

package config

import (
	"net"
	"strconv"
	"strings"
)

//
// Field kinds
//

// Kind selects the validation rule applied to a field.
type Kind int

const (
	KindDatabaseName Kind = iota
	KindCredential
	KindHostPort
	KindSecret
	KindCharset
	KindTablePrefix
	KindCollation
	KindFlag
)

var kindNames = [...]string{
	KindDatabaseName: "database_name",
	KindCredential:   "credential",
	KindHostPort:     "host_port",
	KindSecret:       "secret",
	KindCharset:      "charset",
	KindTablePrefix:  "table_prefix",
	KindCollation:    "collation",
	KindFlag:         "flag",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Sensitive reports whether values of this kind must be redacted when
// rendered for humans.
func (k Kind) Sensitive() bool { return k == KindSecret || k == KindCredential }

//
// Field specification
//

// FieldSpec describes one environment-backed setting.  Default is nil when
// the field has no fallback; a non-nil pointer to "" is a real (empty)
// fallback.
type FieldSpec struct {
	Name     string
	EnvVar   string
	Default  *string
	Required bool
	Kind     Kind
}

// HasDefault reports whether a fallback is declared.
func (s FieldSpec) HasDefault() bool { return s.Default != nil }

//
// Resolution result
//

// Origin records how a ResolvedField obtained its value.
type Origin int

const (
	// Explicit means the environment supplied a non-empty value.
	Explicit Origin = iota
	// Defaulted means the lookup came back empty and the fallback was used.
	Defaulted
	// Missing means the lookup came back empty and no fallback exists.
	Missing
)

func (o Origin) String() string {
	switch o {
	case Explicit:
		return "explicit"
	case Defaulted:
		return "defaulted"
	case Missing:
		return "missing"
	}
	return "origin(" + strconv.Itoa(int(o)) + ")"
}

// ResolvedField pairs a spec with the value one resolution pass produced.
type ResolvedField struct {
	Spec   FieldSpec
	Value  string
	Origin Origin
}

//
// Mode
//

// Mode gates secret-strength enforcement.
type Mode int

const (
	// Development accepts placeholder secrets with a warning.
	Development Mode = iota
	// Production rejects placeholder or short secrets.
	Production
)

func (m Mode) String() string {
	if m == Production {
		return "production"
	}
	return "development"
}

// ParseMode maps an APP_ENV style value to a Mode.  Anything that is not
// recognisably production is treated as Development.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return Production
	}
	return Development
}

//
// Root aggregate
//

// Debug mirrors the WP_DEBUG family of switches.
type Debug struct {
	Enabled bool
	Log     bool
	Display bool
}

// Config is the immutable aggregate returned by Build.  Scalar fields are
// plain values; secrets and origins are reachable only through accessors.
type Config struct {
	Mode        Mode
	DBName      string
	DBUser      string
	DBPassword  string
	DBHost      string
	DBCharset   string
	DBCollate   string
	TablePrefix string
	Debug       Debug

	secrets map[string]string
	origins map[string]Origin
}

// Secret returns the key or salt registered under name (e.g. "AUTH_KEY").
func (c *Config) Secret(name string) (string, bool) {
	v, ok := c.secrets[name]
	return v, ok
}

// Secrets returns a copy of all eight keys and salts.
func (c *Config) Secrets() map[string]string {
	out := make(map[string]string, len(c.secrets))
	for k, v := range c.secrets {
		out[k] = v
	}
	return out
}

// Origin reports how the named field was resolved.  Unknown names report
// Missing.
func (c *Config) Origin(name string) Origin {
	if o, ok := c.origins[name]; ok {
		return o
	}
	return Missing
}

// HostPort splits DBHost into host and port.  The port is zero when the
// host carries none; callers pick the driver default in that case.
func (c *Config) HostPort() (string, int) {
	host, port, err := splitHostPort(c.DBHost)
	if err != nil {
		return c.DBHost, 0
	}
	return host, port
}

// splitHostPort accepts "host", "host:port", "[v6]" and "[v6]:port".  A bare
// IPv6 literal without brackets is taken as a host with no port.
func splitHostPort(v string) (host string, port int, err error) {
	if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
		return v[1 : len(v)-1], 0, nil
	}
	if strings.Count(v, ":") > 1 && !strings.HasPrefix(v, "[") {
		return v, 0, nil
	}
	if !strings.Contains(v, ":") {
		return v, 0, nil
	}
	h, p, err := net.SplitHostPort(v)
	if err != nil {
		return "", 0, err
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, err
	}
	return h, n, nil
}
