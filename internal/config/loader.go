// internal/config/loader.go
//
// Environment loader and hot-reloader.
//
/*
Context
--------
`Loader.Load()` builds one immutable `Config` from two layers (highest
precedence last):

  1. Optional `.env` file, read with godotenv.Read so the process
     environment is never mutated and a later reload sees file edits.
  2. The process environment, `WORDPRESS_` and `APP_` variables only,
     snapshotted through koanf env providers.

Values of the form `vault:<mount>/<path>#<key>` are then swapped for the
secret they point at, the snapshot is handed to the pure Resolve →
Validate → Build pipeline, and a successful Config is cached in an
`atomic.Pointer` for lock-free reads.  `Reload()` calls `Load()` again and
swaps the pointer only when the new Config is valid.

Instrumentation
---------------
  • DEBUG spans — dotenv read, snapshot size, mode.
  • WARN  spans — one per warning-severity issue.
  • ERROR spans — dotenv parse, secret lookups, rejected configuration.
  • INFO  span  — final "config loaded" with key highlights.
  • Logs use the global sugared logger (`zap.S()`), so early boot issues
    surface even before the file logger is installed.

The core (resolver.go, validator.go, builder.go) never logs; everything
observable happens here.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/AdeptTravel/wpenv/internal/metrics"
)

// SecretRefPrefix marks a value that must be fetched from a SecretSource.
const SecretRefPrefix = "vault:"

// snapshotPrefixes limits which variables the loader sees.
var snapshotPrefixes = []string{EnvPrefix, "APP_"}

// SecretSource resolves a reference (the part after "vault:").
type SecretSource interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Loader snapshots the environment and runs the pipeline.  The zero value
// reads the process environment with no .env file and no secret source.
type Loader struct {
	EnvFile string
	Secrets SecretSource
	Options []Option

	// environ is swapped in tests; nil means the process environment via
	// koanf.
	environ func() (map[string]string, error)

	// mu serialises Load so a slow run over an older snapshot cannot
	// overwrite a newer result.
	mu      sync.Mutex
	current atomic.Pointer[Config]
	last    atomic.Pointer[Result]
}

/*──────────────────────────── snapshot ────────────────────────────────────*/

func (l *Loader) snapshot() (*koanf.Koanf, error) {
	k := koanf.New(".")

	if l.EnvFile != "" {
		vals, err := godotenv.Read(l.EnvFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			zap.S().Debugw("dotenv not found", "file", l.EnvFile)
		case err != nil:
			zap.S().Errorw("dotenv parse failed", "file", l.EnvFile, "err", err)
			return nil, fmt.Errorf("read %s: %w", l.EnvFile, err)
		default:
			for key, val := range vals {
				if wanted(key) {
					_ = k.Set(key, val)
				}
			}
			zap.S().Debugw("dotenv loaded", "file", l.EnvFile, "keys", len(vals))
		}
	}

	if l.environ != nil {
		vals, err := l.environ()
		if err != nil {
			return nil, err
		}
		for key, val := range vals {
			if wanted(key) {
				_ = k.Set(key, val)
			}
		}
		return k, nil
	}

	for _, p := range snapshotPrefixes {
		if err := k.Load(env.Provider(p, ".", func(s string) string { return s }), nil); err != nil {
			zap.S().Errorw("config env snapshot failed", "prefix", p, "err", err)
			return nil, err
		}
	}
	return k, nil
}

func wanted(key string) bool {
	for _, p := range snapshotPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load snapshots, resolves secret references, and runs the pipeline.
// Concurrent calls are serialised.  The
// returned Result always carries the issue list; Result.Err is a
// *ConfigurationError when validation failed.  The error return is reserved
// for failures that happen before validation (unreadable .env).
func (l *Loader) Load(ctx context.Context) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k, err := l.snapshot()
	if err != nil {
		metrics.ObserveLoad(metrics.ResultError, 0)
		return Result{}, err
	}
	zap.S().Debugw("config snapshot taken", "keys", len(k.Keys()))

	values := make(map[string]string, len(k.Keys()))
	for _, key := range k.Keys() {
		values[key] = k.String(key)
	}
	failed := l.resolveRefs(ctx, values)

	res := Run(MapLookup(values), l.Options...)
	if len(failed) > 0 {
		res = mergeSourceFailures(res, failed)
	}
	zap.S().Debugw("config mode", "mode", res.Mode.String())

	for _, is := range res.Issues {
		metrics.ObserveIssue(string(is.Code), is.Severity.String())
		if !is.Fatal() {
			zap.S().Warnw("config warning", "field", is.Field, "env", is.EnvVar, "code", is.Code, "msg", is.Message)
		}
	}

	l.last.Store(&res)
	if res.Err != nil {
		metrics.ObserveLoad(metrics.ResultInvalid, 0)
		zap.S().Errorw("config validation failed", "err", res.Err)
		return res, nil
	}

	defaulted := 0
	for _, f := range res.Fields {
		if f.Origin == Defaulted {
			defaulted++
		}
	}
	l.current.Store(res.Config)
	metrics.ObserveLoad(metrics.ResultOK, defaulted)
	zap.S().Infow("config loaded",
		"mode", res.Mode.String(),
		"db_host", res.Config.DBHost,
		"db_name", res.Config.DBName,
		"table_prefix", res.Config.TablePrefix,
		"defaulted", defaulted,
	)
	return res, nil
}

// resolveRefs replaces vault: references in place and returns the
// variables whose lookup failed, with the reason.
func (l *Loader) resolveRefs(ctx context.Context, values map[string]string) map[string]string {
	failed := map[string]string{}
	for key, val := range values {
		if !strings.HasPrefix(val, SecretRefPrefix) {
			continue
		}
		ref := strings.TrimPrefix(val, SecretRefPrefix)
		if l.Secrets == nil {
			failed[key] = "references a secret store but none is configured"
			continue
		}
		start := time.Now()
		sec, err := l.Secrets.Resolve(ctx, ref)
		if err != nil {
			zap.S().Errorw("secret lookup failed", "env", key, "ref", ref, "err", err)
			failed[key] = fmt.Sprintf("secret lookup failed: %v", err)
			continue
		}
		zap.S().Debugw("secret resolved", "env", key, "ref", ref, "took", time.Since(start))
		values[key] = sec
	}
	return failed
}

// mergeSourceFailures rewrites the result so every failed reference the
// pipeline reads is reported as SecretSourceFailure on its own field, in
// field order.  A failed APP_ENV leads the list: the mode it would have
// selected is unknown, so the result cannot be trusted either way.
func mergeSourceFailures(res Result, failed map[string]string) Result {
	sourceIssue := func(field, envVar, msg string) Issue {
		return Issue{Field: field, EnvVar: envVar, Code: SecretSourceFailure, Severity: SeverityError, Message: msg}
	}

	var merged []Issue
	hit := false
	if msg, ok := failed[ModeEnvVar]; ok {
		merged = append(merged, sourceIssue(ModeEnvVar, ModeEnvVar, msg))
		hit = true
	}

	done := map[string]bool{}
	for _, f := range res.Fields {
		name := f.Spec.Name
		if done[name] {
			continue
		}
		done[name] = true
		if msg, ok := failed[f.Spec.EnvVar]; ok {
			merged = append(merged, sourceIssue(name, f.Spec.EnvVar, msg))
			hit = true
			continue
		}
		for _, is := range res.Issues {
			if is.Field == name {
				merged = append(merged, is)
			}
		}
	}
	if !hit {
		// Only variables the pipeline never reads failed.
		return res
	}
	// Table-level issues for fields that were never declared.
	for _, is := range res.Issues {
		if !done[is.Field] {
			merged = append(merged, is)
		}
	}

	res.Issues = merged
	res.Config = nil
	res.Err = &ConfigurationError{Issues: merged}
	return res
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Current returns the last Config that loaded cleanly, or nil.
func (l *Loader) Current() *Config { return l.current.Load() }

// Last returns the most recent Result, valid or not, or nil before the
// first Load.
func (l *Loader) Last() *Result { return l.last.Load() }

// Reload runs Load and reports the validation error, if any.  The cached
// Config is left untouched on failure.
func (l *Loader) Reload(ctx context.Context) error {
	res, err := l.Load(ctx)
	if err != nil {
		return err
	}
	return res.Err
}
