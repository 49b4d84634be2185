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

func TestFetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/scenes/arm.xml":
			w.Write([]byte("<mujoco/>"))
		case "/big.xml":
			w.Write([]byte(strings.Repeat("x", 100)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := &Fetcher{Client: srv.Client(), MaxBytes: 50}
	data, err := f.Fetch(context.Background(), srv.URL+"/scenes/arm.xml")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "<mujoco/>" {
		t.Fatalf("body = %q", data)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"not found", "/missing.xml", ErrStatus},
		{"too large", "/big.xml", ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.Fetch(context.Background(), srv.URL+tt.path); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v want %v", err, tt.want)
			}
		})
	}
}

func TestFetch_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&Fetcher{Client: srv.Client()}).Fetch(ctx, srv.URL); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestFetch_File(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "box.xml"), []byte("box"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		src  string
		base string
	}{
		{"relative", "box.xml", dir},
		{"absolute", filepath.Join(dir, "box.xml"), ""},
		{"file url", "file://" + filepath.ToSlash(filepath.Join(dir, "box.xml")), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Fetch(context.Background(), tt.src, tt.base)
			if err != nil || string(data) != "box" {
				t.Fatalf("Fetch = %q, %v", data, err)
			}
		})
	}

	if _, err := Fetch(context.Background(), "nope.xml", dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err = %v", err)
	}
	if _, err := Fetch(context.Background(), "", dir); !errors.Is(err, ErrEmptySource) {
		t.Fatalf("empty source err = %v", err)
	}
}

func TestBaseNameAndSibling(t *testing.T) {
	tests := []struct {
		src, base, sibling string
	}{
		{"https://example.com/env/coop.xml?v=2", "coop.xml", "https://example.com/env/tex/wood.png"},
		{"file:///data/env/coop.xml", "coop.xml", "file:///data/env/tex/wood.png"},
		{"/data/env/coop.xml", "coop.xml", "/data/env/tex/wood.png"},
		{"coop.xml", "coop.xml", "tex/wood.png"},
	}
	for _, tt := range tests {
		if got := BaseName(tt.src); got != tt.base {
			t.Fatalf("BaseName(%q) = %q", tt.src, got)
		}
		if got := filepath.ToSlash(Sibling(tt.src, "tex/wood.png")); got != tt.sibling {
			t.Fatalf("Sibling(%q) = %q", tt.src, got)
		}
	}
}
