// internal/vault/vault_test.go
//
// Unit-tests for reference parsing, the TTL cache, and KV-v2 reads against
// an httptest server that speaks just enough of the Vault API.

package vault

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseRef(t *testing.T) {
	cases := []struct {
		in        string
		path, key string
		ok        bool
	}{
		{"secret/wordpress#auth_key", "secret/wordpress", "auth_key", true},
		{"kv/prod/site1#db#password", "kv/prod/site1#db", "password", true},
		{"secret#key", "", "", false},
		{"secret/wordpress", "", "", false},
		{"secret/wordpress#", "", "", false},
		{"#key", "", "", false},
	}
	for _, tc := range cases {
		path, key, err := ParseRef(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("ParseRef(%q) err = %v, want ok=%v", tc.in, err, tc.ok)
		}
		if !tc.ok {
			if !errors.Is(err, ErrBadRef) {
				t.Fatalf("ParseRef(%q) err = %v, want ErrBadRef", tc.in, err)
			}
			continue
		}
		if path != tc.path || key != tc.key {
			t.Fatalf("ParseRef(%q) = %q, %q", tc.in, path, key)
		}
	}
}

func TestCacheExpiry(t *testing.T) {
	c := newClient(nil, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.store("secret/wp#k", "v")

	got, err := c.GetKV(context.Background(), "secret/wp", "k")
	if err != nil || got != "v" {
		t.Fatalf("cached GetKV = %q, %v", got, err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.cached("secret/wp#k"); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestCacheDisabled(t *testing.T) {
	c := newClient(nil, 0)
	c.store("secret/wp#k", "v")
	if _, ok := c.cached("secret/wp#k"); ok {
		t.Fatalf("cache should be off with zero TTL")
	}
}

func fakeVault(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path != "/v1/secret/data/wordpress" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"data": {"auth_key": "from-vault-0123456789-0123456789-0123", "count": 3},
				"metadata": {"created_time": "2026-01-01T00:00:00Z", "deletion_time": "", "destroyed": false}
			}
		}`))
	}))
}

func TestResolveAgainstServer(t *testing.T) {
	var hits int32
	srv := fakeVault(t, &hits)
	defer srv.Close()

	c, err := New(context.Background(), Options{Address: srv.URL, CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 2; i++ {
		got, err := c.Resolve(context.Background(), "secret/wordpress#auth_key")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if got != "from-vault-0123456789-0123456789-0123" {
			t.Fatalf("Resolve = %q", got)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("server hits = %d, want 1 (second read cached)", n)
	}

	if _, err := c.Resolve(context.Background(), "secret/wordpress#nope"); err == nil {
		t.Fatalf("expected missing key error")
	}
	if _, err := c.Resolve(context.Background(), "secret/wordpress#count"); err == nil {
		t.Fatalf("expected non-string error")
	}
	if _, err := c.Resolve(context.Background(), "secret/other#auth_key"); err == nil {
		t.Fatalf("expected not-found error")
	}
}
