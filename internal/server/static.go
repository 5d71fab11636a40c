// Package server serves the front-end assets from a configured directory,
// mapping file extensions to content types and setting cache headers.
package server

import (
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// contentTypes maps file extensions to the Content-Type header served for
// them. Unlisted extensions fall back to application/octet-stream.
var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".htm":  "text/html; charset=utf-8",
	".css":  "text/css",
	".js":   "application/javascript",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".json": "application/json",
	".txt":  "text/plain",
}

// StaticHandler serves files from a base directory. It rejects paths that
// escape the directory and advertises a one hour client cache.
type StaticHandler struct {
	baseDir string
}

// NewStaticHandler creates a StaticHandler rooted at the given directory.
func NewStaticHandler(baseDir string) *StaticHandler {
	return &StaticHandler{baseDir: baseDir}
}

func (s *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/")
	if name == "" {
		name = "index.html"
	}

	cleaned := path.Clean("/" + name)
	if cleaned == "/" || strings.Contains(cleaned, "..") {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	filePath := filepath.Join(s.baseDir, filepath.FromSlash(cleaned))
	content, err := os.ReadFile(filePath)
	if err != nil {
		log.Printf("Static file not found: %s", filePath)
		http.Error(w, "File not found: "+name, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", lookupContentType(cleaned))
	w.Header().Set("Cache-Control", "max-age=3600")
	if _, err := w.Write(content); err != nil {
		log.Printf("Error writing static file %s: %v", filePath, err)
	}
}

func lookupContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if contentType, ok := contentTypes[ext]; ok {
		return contentType
	}
	return "application/octet-stream"
}
