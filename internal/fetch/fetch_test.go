package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.Error(w, "not here", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("DistrictA\nClosed: 1\n"))
	}))
	defer srv.Close()

	data, err := FromURL(context.Background(), srv.Client(), srv.URL+"/feed")
	if err != nil {
		t.Fatalf("FromURL failed: %v", err)
	}
	if string(data) != "DistrictA\nClosed: 1\n" {
		t.Fatalf("unexpected body %q", data)
	}

	_, err = FromURL(context.Background(), srv.Client(), srv.URL+"/missing")
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("expected status 404 error, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.txt")
	if err := os.WriteFile(path, []byte("X\nOpen: 2"), 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}

	data, err := Load(context.Background(), nil, Source{File: path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "X\nOpen: 2" {
		t.Fatalf("unexpected data %q", data)
	}

	if _, err := Load(context.Background(), nil, Source{}); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
	if _, err := Load(context.Background(), nil, Source{File: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSourceString(t *testing.T) {
	if got := (Source{URL: "http://x", File: "f"}).String(); got != "http://x" {
		t.Fatalf("String() = %q", got)
	}
	if got := (Source{File: "f"}).String(); got != "f" {
		t.Fatalf("String() = %q", got)
	}
}

func TestFromURLRejectsOversizedFeed(t *testing.T) {
	original := maxBodyBytes
	t.Cleanup(func() { maxBodyBytes = original })
	maxBodyBytes = 16

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/exact" {
			_, _ = w.Write([]byte(strings.Repeat("x", 16)))
			return
		}
		_, _ = w.Write([]byte(`{"districts":[{"name":"DistrictA","closed":1}]}`))
	}))
	defer srv.Close()

	_, err := FromURL(context.Background(), srv.Client(), srv.URL+"/big")
	if !errors.Is(err, ErrFeedTooLarge) {
		t.Fatalf("expected ErrFeedTooLarge, got %v", err)
	}

	data, err := FromURL(context.Background(), srv.Client(), srv.URL+"/exact")
	if err != nil {
		t.Fatalf("feed at the limit should load: %v", err)
	}
	if len(data) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(data))
	}
}
