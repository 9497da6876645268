package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource map[string]string

func (f fakeSource) Resolve(_ context.Context, ref string) (string, error) {
	if v, ok := f[ref]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func staticEnv(env map[string]string) func() (map[string]string, error) {
	return func() (map[string]string, error) { return env, nil }
}

func TestLoader_LoadCachesConfig(t *testing.T) {
	l := &Loader{environ: staticEnv(validEnv())}
	require.Nil(t, l.Current())

	res, err := l.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Same(t, res.Config, l.Current())
}

func TestLoader_ReloadKeepsPreviousOnFailure(t *testing.T) {
	env := validEnv()
	l := &Loader{environ: staticEnv(env)}
	require.NoError(t, l.Reload(context.Background()))
	prev := l.Current()

	env["WORDPRESS_DB_HOST"] = "db:70000"
	err := l.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Same(t, prev, l.Current())
}

func TestLoader_IgnoresUnrelatedVariables(t *testing.T) {
	env := validEnv()
	env["HOME"] = "vault:should/not#matter"
	l := &Loader{environ: staticEnv(env)}

	res, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.NoError(t, res.Err)
}

func TestLoader_DotenvUnderEnvironment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	content := strings.Join([]string{
		"WORDPRESS_DB_NAME=fromfile",
		"WORDPRESS_TABLE_PREFIX=site2_",
		"UNRELATED=1",
	}, "\n")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	env := validEnv()
	l := &Loader{EnvFile: file, environ: staticEnv(env)}

	res, err := l.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, "blog", res.Config.DBName, "process environment wins")
	assert.Equal(t, "site2_", res.Config.TablePrefix)
}

func TestLoader_MissingDotenvIsFine(t *testing.T) {
	l := &Loader{EnvFile: filepath.Join(t.TempDir(), "absent.env"), environ: staticEnv(validEnv())}

	_, err := l.Load(context.Background())
	assert.NoError(t, err)
}

func TestLoader_SecretReferences(t *testing.T) {
	env := validEnv()
	env["WORDPRESS_AUTH_KEY"] = "vault:secret/wordpress#auth_key"
	env["WORDPRESS_DB_PASSWORD"] = "vault:secret/wordpress#db_password"

	want := strings.Repeat("k", 48)
	l := &Loader{
		environ: staticEnv(env),
		Secrets: fakeSource{
			"secret/wordpress#auth_key":    want,
			"secret/wordpress#db_password": "hunter2-but-longer",
		},
	}

	res, err := l.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err)
	got, _ := res.Config.Secret("AUTH_KEY")
	assert.Equal(t, want, got)
	assert.Equal(t, "hunter2-but-longer", res.Config.DBPassword)
}

func TestLoader_SecretReferenceFailures(t *testing.T) {
	env := validEnv()
	env["WORDPRESS_NONCE_KEY"] = "vault:secret/wordpress#missing"
	env["WORDPRESS_DB_HOST"] = "db:0"

	l := &Loader{environ: staticEnv(env), Secrets: fakeSource{}}
	res, err := l.Load(context.Background())
	require.NoError(t, err)

	var ce *ConfigurationError
	require.True(t, errors.As(res.Err, &ce))
	require.Len(t, ce.Issues, 2)
	assert.Equal(t, "DB_HOST", ce.Issues[0].Field)
	assert.Equal(t, "NONCE_KEY", ce.Issues[1].Field)
	assert.Equal(t, SecretSourceFailure, ce.Issues[1].Code)
	assert.Nil(t, res.Config)
	assert.Nil(t, l.Current())
}

func TestLoader_SecretReferenceWithoutSource(t *testing.T) {
	env := validEnv()
	env["WORDPRESS_AUTH_SALT"] = "vault:secret/wordpress#auth_salt"

	l := &Loader{environ: staticEnv(env)}
	res, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "none is configured")
}

func TestLoader_ProcessEnvironment(t *testing.T) {
	for k, v := range validEnv() {
		t.Setenv(k, v)
	}
	t.Setenv("WORDPRESS_TABLE_PREFIX", "live_")

	l := &Loader{}
	res, err := l.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, "live_", res.Config.TablePrefix)
	assert.Equal(t, Production, res.Config.Mode)
}

func TestLoader_UnresolvedModeFailsClosed(t *testing.T) {
	env := validEnv()
	env["APP_ENV"] = "vault:secret/app#env"
	for _, n := range SecretNames {
		delete(env, EnvPrefix+n)
	}

	l := &Loader{environ: staticEnv(env), Secrets: fakeSource{}}
	res, err := l.Load(context.Background())
	require.NoError(t, err)

	var ce *ConfigurationError
	require.True(t, errors.As(res.Err, &ce))
	require.NotEmpty(t, ce.Issues)
	assert.Equal(t, ModeEnvVar, ce.Issues[0].Field)
	assert.Equal(t, SecretSourceFailure, ce.Issues[0].Code)
	assert.Nil(t, res.Config)
	assert.Nil(t, l.Current())
}

func TestLoader_ResolvedModeFromSecretSource(t *testing.T) {
	env := validEnv()
	env["APP_ENV"] = "vault:secret/app#env"

	l := &Loader{environ: staticEnv(env), Secrets: fakeSource{"secret/app#env": "production"}}
	res, err := l.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, Production, res.Config.Mode)
}

func TestLoader_ConcurrentReloadsKeepNewest(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})

	l := &Loader{environ: func() (map[string]string, error) {
		env := validEnv()
		if calls.Add(1) == 1 {
			close(entered)
			<-release
			env["WORDPRESS_DB_NAME"] = "older"
			return env, nil
		}
		env["WORDPRESS_DB_NAME"] = "newer"
		return env, nil
	}}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, l.Reload(context.Background()))
	}()
	<-entered
	go func() {
		defer wg.Done()
		assert.NoError(t, l.Reload(context.Background()))
	}()

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load(), "second load must wait for the first")
	close(release)
	wg.Wait()

	require.NotNil(t, l.Current())
	assert.Equal(t, "newer", l.Current().DBName)
}
