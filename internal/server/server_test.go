package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AdeptTravel/wpenv/internal/config"
)

// fakeLoader runs the real pipeline over a swappable environment.
type fakeLoader struct {
	env  map[string]string
	last *config.Result
}

func (f *fakeLoader) Reload(context.Context) error {
	res := config.Run(config.MapLookup(f.env))
	f.last = &res
	return res.Err
}

func (f *fakeLoader) Last() *config.Result { return f.last }

func get(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, config.Report) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, nil))

	var rep config.Report
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &rep); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return rr, rep
}

func TestHealthz_BeforeFirstLoad(t *testing.T) {
	rr, _ := get(t, Router(&fakeLoader{}), http.MethodGet, "/healthz")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestHealthz_ValidThenInvalid(t *testing.T) {
	l := &fakeLoader{env: map[string]string{}}
	h := Router(l)
	_ = l.Reload(context.Background())

	rr, rep := get(t, h, http.MethodGet, "/healthz")
	if rr.Code != http.StatusOK || !rep.Valid {
		t.Fatalf("status = %d valid = %v, want 200 true", rr.Code, rep.Valid)
	}
	if rep.Mode != "development" {
		t.Fatalf("mode = %q", rep.Mode)
	}

	l.env["APP_ENV"] = "production"
	rr, rep = get(t, h, http.MethodPost, "/reload")
	if rr.Code != http.StatusServiceUnavailable || rep.Valid {
		t.Fatalf("status = %d valid = %v, want 503 false", rr.Code, rep.Valid)
	}
	var fatal []config.Issue
	for _, is := range rep.Issues {
		if is.Fatal() {
			fatal = append(fatal, is)
		}
	}
	if len(fatal) != len(config.SecretNames) {
		t.Fatalf("fatal issues = %d, want %d", len(fatal), len(config.SecretNames))
	}
	if fatal[0].Field != "AUTH_KEY" || fatal[0].Code != config.WeakSecret {
		t.Fatalf("first fatal issue = %+v", fatal[0])
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("security headers not applied")
	}
}

func TestMetricsRoute(t *testing.T) {
	rr := httptest.NewRecorder()
	Router(&fakeLoader{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}
