package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StaticHandler serves the bundled pairing pages and their assets. Unlike a
// SPA there is no index fallback: unknown paths are 404.
type StaticHandler struct {
	staticDir string
	pages     map[string]string // clean URL -> file
}

func NewStaticHandler(staticDir string) *StaticHandler {
	return &StaticHandler{
		staticDir: staticDir,
		pages: map[string]string{
			"/":        "index.html",
			"/premium": "premium.html",
		},
	}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	urlPath := path.Clean("/" + r.URL.Path)

	if urlPath == "/api" || strings.HasPrefix(urlPath, "/api/") {
		http.NotFound(w, r)
		return
	}

	name, ok := h.pages[urlPath]
	if !ok {
		name = strings.TrimPrefix(urlPath, "/")
	}

	filePath := filepath.Join(h.staticDir, filepath.FromSlash(name))
	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}
