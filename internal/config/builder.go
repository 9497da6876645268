// internal/config/builder.go
//
// Builder: validated fields → *Config, or *ConfigurationError.
//
// Build never returns a partially populated Config.  Run ties the three
// stages together for callers that do not need the intermediate values.

package config

import "strconv"

// Build assembles a Config when issues holds no error-severity entries and
// fields covers every Config value exactly once.  Otherwise it returns a
// *ConfigurationError carrying every issue, table gaps included.
func Build(fields []ResolvedField, issues []Issue, mode Mode) (*Config, error) {
	gaps := tableIssues(fields, issues)
	if hasFatal(issues) || len(gaps) > 0 {
		cp := make([]Issue, 0, len(issues)+len(gaps))
		cp = append(cp, issues...)
		cp = append(cp, gaps...)
		return nil, &ConfigurationError{Issues: cp}
	}

	cfg := &Config{
		Mode:    mode,
		secrets: make(map[string]string, len(SecretNames)),
		origins: make(map[string]Origin, len(fields)),
	}
	for _, f := range fields {
		cfg.origins[f.Spec.Name] = f.Origin
		switch f.Spec.Kind {
		case KindSecret:
			cfg.secrets[f.Spec.Name] = f.Value
			continue
		case KindFlag:
			assignFlag(&cfg.Debug, f.Spec.Name, parseBool(f.Value))
			continue
		}
		switch f.Spec.Name {
		case "DB_NAME":
			cfg.DBName = f.Value
		case "DB_USER":
			cfg.DBUser = f.Value
		case "DB_PASSWORD":
			cfg.DBPassword = f.Value
		case "DB_HOST":
			cfg.DBHost = f.Value
		case "DB_CHARSET":
			cfg.DBCharset = f.Value
		case "DB_COLLATE":
			cfg.DBCollate = f.Value
		case "TABLE_PREFIX":
			cfg.TablePrefix = f.Value
		}
	}
	return cfg, nil
}

func assignFlag(d *Debug, name string, on bool) {
	switch name {
	case "WP_DEBUG":
		d.Enabled = on
	case "WP_DEBUG_LOG":
		d.Log = on
	case "WP_DEBUG_DISPLAY":
		d.Display = on
	}
}

// parseBool treats anything unparsable as false; Validate has already
// rejected such values before Build sees them.
func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

//
// Pipeline
//

// Option tweaks a Run call.
type Option func(*options)

type options struct {
	specs   []FieldSpec
	mode    Mode
	modeSet bool
}

// WithFields replaces the WordPress field table.
func WithFields(specs []FieldSpec) Option {
	return func(o *options) { o.specs = specs }
}

// WithMode pins the mode instead of reading APP_ENV through the lookup.
func WithMode(m Mode) Option {
	return func(o *options) { o.mode, o.modeSet = m, true }
}

// ModeFrom reads APP_ENV through lookup.
func ModeFrom(lookup LookupFunc) Mode {
	s, _ := lookup(ModeEnvVar)
	return ParseMode(s)
}

// Result is everything one pass produced.  Config is nil when Err is set.
type Result struct {
	Mode   Mode
	Fields []ResolvedField
	Issues []Issue
	Config *Config
	Err    error
}

// Run resolves, validates, and builds in one call.
func Run(lookup LookupFunc, opts ...Option) Result {
	o := options{specs: WordPressFields()}
	for _, fn := range opts {
		fn(&o)
	}
	if !o.modeSet {
		o.mode = ModeFrom(lookup)
	}

	fields := Resolve(o.specs, lookup)
	issues := Validate(fields, o.mode)
	cfg, err := Build(fields, issues, o.mode)
	return Result{Mode: o.mode, Fields: fields, Issues: issues, Config: cfg, Err: err}
}
