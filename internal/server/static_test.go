package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeStaticFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
}

// TestStaticHandlerServesFiles verifies content-type mapping and the cache
// header on served assets.
func TestStaticHandlerServesFiles(t *testing.T) {
	dir := t.TempDir()
	writeStaticFixture(t, dir, "index.html", "<html></html>")
	writeStaticFixture(t, dir, "chat.js", "console.log('hi')")
	writeStaticFixture(t, dir, "data.bin", "\x00\x01")

	handler := NewStaticHandler(dir)

	tests := []struct {
		name            string
		path            string
		wantContentType string
		wantBody        string
	}{
		{"html file", "/index.html", "text/html; charset=utf-8", "<html></html>"},
		{"root serves index", "/", "text/html; charset=utf-8", "<html></html>"},
		{"javascript file", "/chat.js", "application/javascript", "console.log('hi')"},
		{"unknown extension", "/data.bin", "application/octet-stream", "\x00\x01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("Status = %d, want %d", rr.Code, http.StatusOK)
			}
			if got := rr.Header().Get("Content-Type"); got != tt.wantContentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantContentType)
			}
			if got := rr.Header().Get("Cache-Control"); got != "max-age=3600" {
				t.Errorf("Cache-Control = %q, want max-age=3600", got)
			}
			if rr.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", rr.Body.String(), tt.wantBody)
			}
		})
	}
}

// TestStaticHandlerMissingFile verifies the 404 response for unknown paths.
func TestStaticHandlerMissingFile(t *testing.T) {
	handler := NewStaticHandler(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/missing.css", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// TestStaticHandlerRejectsTraversal verifies that paths pointing outside the
// base directory are never served.
func TestStaticHandlerRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	writeStaticFixture(t, dir, "index.html", "safe")

	outside := filepath.Join(filepath.Dir(dir), "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatalf("Failed to write outside file: %v", err)
	}

	handler := NewStaticHandler(dir)

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.URL.Path = "/../secret.txt"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code == http.StatusOK && rr.Body.String() == "secret" {
		t.Error("Handler served a file outside the base directory")
	}
}

// TestStaticHandlerRejectsNonGet verifies the method restriction.
func TestStaticHandlerRejectsNonGet(t *testing.T) {
	handler := NewStaticHandler(t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/index.html", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
}
