// internal/vault/vault.go
//
// Vault-backed secret source for `vault:` environment references.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK behind the config.SecretSource
//     interface, so WORDPRESS_AUTH_KEY=vault:secret/wordpress#auth_key is
//     swapped for the stored value before validation.
//   - Reads are KV-v2 only and cached per path#key for a fixed TTL, so a
//     burst of reloads does not hammer the server.
//   - Token renewal runs in the background when the token is renewable.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx, vault.Options{CacheTTL: time.Minute})
//  2. loader := &config.Loader{Secrets: cli}
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – token (falls back to ~/.vault-token via the SDK).
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

//
// SECTION 1.  Public façade
//

// ErrBadRef is returned for references that are not "<mount>/<path>#<key>".
var ErrBadRef = errors.New("vault: reference must look like <mount>/<path>#<key>")

// Options tunes New.  Zero values are usable.
type Options struct {
	// Address overrides VAULT_ADDR.
	Address string
	// CacheTTL keeps resolved values for this long; zero disables caching.
	CacheTTL time.Duration
	// Renew starts the background token-renewal loop.
	Renew bool
}

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api *vault.Client
	ttl time.Duration
	log *zap.SugaredLogger

	cacheMu sync.RWMutex
	cache   map[string]cached // path#key → value + expiry.
	now     func() time.Time
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Client from the standard Vault environment.
func New(ctx context.Context, opts Options) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	if opts.Address != "" {
		cfg.Address = opts.Address
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}

	c := newClient(apiCli, opts.CacheTTL)
	if opts.Renew {
		go c.renewLoop(ctx)
	}
	return c, nil
}

func newClient(api *vault.Client, ttl time.Duration) *Client {
	return &Client{
		api:   api,
		ttl:   ttl,
		log:   zap.S().Named("vault"),
		cache: make(map[string]cached),
		now:   time.Now,
	}
}

// Resolve implements config.SecretSource.  ref is the part after "vault:".
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	path, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	return c.GetKV(ctx, path, key)
}

// GetKV fetches a single key from a KV-v2 secret, through the cache.
func (c *Client) GetKV(ctx context.Context, secretPath, key string) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("vault: secret path and key must be non-empty")
	}

	canonical := secretPath + "#" + key
	if v, ok := c.cached(canonical); ok {
		return v, nil
	}

	mount, rel := splitMount(secretPath)
	if rel == "" {
		return "", fmt.Errorf("vault: %q has no path below the mount", secretPath)
	}
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("vault: key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault: value at %s is not a string", canonical)
	}

	c.store(canonical, sval)
	return sval, nil
}

//
// SECTION 2.  Cache
//

func (c *Client) cached(canonical string) (string, bool) {
	if c.ttl <= 0 {
		return "", false
	}
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	cv, ok := c.cache[canonical]
	if !ok || !c.now().Before(cv.exp) {
		return "", false
	}
	return cv.val, true
}

func (c *Client) store(canonical, val string) {
	if c.ttl <= 0 {
		return
	}
	c.cacheMu.Lock()
	c.cache[canonical] = cached{val: val, exp: c.now().Add(c.ttl)}
	c.cacheMu.Unlock()
}

//
// SECTION 3.  Background token renewal
//

func (c *Client) renewLoop(ctx context.Context) {
	for ctx.Err() == nil {
		wait := c.renewOnce(ctx)
		backoff(ctx, wait)
	}
}

// renewOnce drives one renewer until it stops and returns how long to wait
// before probing again.
func (c *Client) renewOnce(ctx context.Context) time.Duration {
	sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
	if err != nil {
		c.log.Warnw("token renew self failed", "err", err)
		return 30 * time.Second
	}
	if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
		c.log.Infow("token is not renewable")
		return time.Hour
	}

	watcher, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: sec})
	if err != nil {
		c.log.Warnw("lifetime watcher init failed", "err", err)
		return 30 * time.Second
	}
	go watcher.Start()
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0
		case err := <-watcher.DoneCh():
			if err != nil {
				c.log.Warnw("token renewal stopped", "err", err)
			}
			return 15 * time.Second
		case ev := <-watcher.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.log.Debugw("token renewed", "ttl_s", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

//
// SECTION 4.  Helpers
//

// ParseRef splits "<mount>/<path>#<key>" into the secret path and key.
func ParseRef(ref string) (path, key string, err error) {
	i := strings.LastIndexByte(ref, '#')
	if i <= 0 || i == len(ref)-1 {
		return "", "", ErrBadRef
	}
	path, key = ref[:i], ref[i+1:]
	if _, rel := splitMount(path); rel == "" {
		return "", "", ErrBadRef
	}
	return path, key, nil
}

func splitMount(p string) (mount, rel string) {
	p = strings.Trim(p, "/")
	if p == "" {
		return "", ""
	}
	parts := strings.SplitN(p, "/", 2)
	mount = parts[0]
	if len(parts) == 2 {
		rel = parts[1]
	}
	return
}

func backoff(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
