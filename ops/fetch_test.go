package ops

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caffeineduck/ssrsandbox/sandboxerr"
)

func TestFetchBlockedWhenOriginNotAllowed(t *testing.T) {
	f := NewFetch(FetchConfig{AllowedOrigins: nil})
	_, err := f.Request(context.Background(), map[string]any{"url": "https://example.com"})
	if !errors.Is(err, sandboxerr.ErrOriginNotAllowed) {
		t.Errorf("err = %v, want ErrOriginNotAllowed", err)
	}
}

func TestFetchBlockedForUnallowedOrigin(t *testing.T) {
	f := NewFetch(FetchConfig{AllowedOrigins: []string{"https://allowed.com"}})
	_, err := f.Request(context.Background(), map[string]any{"url": "https://evil.com"})
	if !errors.Is(err, sandboxerr.ErrOriginNotAllowed) {
		t.Errorf("err = %v, want ErrOriginNotAllowed", err)
	}
}

func TestFetchSubdomainNotImplicitlyAllowed(t *testing.T) {
	f := NewFetch(FetchConfig{AllowedOrigins: []string{"https://allowed.com"}})
	_, err := f.Request(context.Background(), map[string]any{"url": "https://sub.allowed.com"})
	if !errors.Is(err, sandboxerr.ErrOriginNotAllowed) {
		t.Errorf("err = %v, want ErrOriginNotAllowed (exact origin match only)", err)
	}
}

func TestFetchAllowsExactOrigin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	f := NewFetch(FetchConfig{AllowedOrigins: []string{server.URL}})
	result, err := f.Request(context.Background(), map[string]any{"url": server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := result.(map[string]any)
	if data["status"].(int) != 200 {
		t.Errorf("status = %v, want 200", data["status"])
	}
}

func TestFetchCrossOriginRedirectRejected(t *testing.T) {
	evil := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer evil.Close()

	entry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, evil.URL+"/landed", http.StatusFound)
	}))
	defer entry.Close()

	f := NewFetch(FetchConfig{AllowedOrigins: []string{entry.URL, evil.URL}})
	_, err := f.Request(context.Background(), map[string]any{"url": entry.URL})
	if err == nil {
		t.Fatal("expected cross-origin redirect to be rejected")
	}
}

func TestFetchSameOriginRedirectFollowed(t *testing.T) {
	var mux http.ServeMux
	server := httptest.NewServer(&mux)
	defer server.Close()

	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/landed", http.StatusFound)
	})
	mux.HandleFunc("/landed", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("landed"))
	})

	f := NewFetch(FetchConfig{AllowedOrigins: []string{server.URL}})
	result, err := f.Request(context.Background(), map[string]any{"url": server.URL + "/start"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := result.(map[string]any)
	if data["body"] != "landed" {
		t.Errorf("body = %q, want %q", data["body"], "landed")
	}
}

func TestFetchMissingURL(t *testing.T) {
	f := NewFetch(FetchConfig{AllowedOrigins: []string{"https://example.com"}})
	_, err := f.Request(context.Background(), map[string]any{})
	if err == nil || err.Error() != "url required" {
		t.Errorf("err = %v, want 'url required'", err)
	}
}

func TestNormalizeOrigin(t *testing.T) {
	cases := map[string]string{
		"https://Example.com:443": "https://example.com",
		"http://Example.com:80":   "http://example.com",
		"https://example.com:8443": "https://example.com:8443",
	}
	for in, want := range cases {
		if got := normalizeOrigin(in); got != want {
			t.Errorf("normalizeOrigin(%q) = %q, want %q", in, got, want)
		}
	}
}
