package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/yegors/vidscribe/pkg/logger"
)

// StaticFileHandler serves the browser front end, falling back to index.html
type StaticFileHandler struct {
	dir        string
	fileServer http.Handler
	logger     *logger.Logger
}

// NewStaticFileHandler creates a handler rooted at dir
func NewStaticFileHandler(dir string, logger *logger.Logger) *StaticFileHandler {
	return &StaticFileHandler{
		dir:        dir,
		fileServer: http.FileServer(http.Dir(dir)),
		logger:     logger.Named("static-files"),
	}
}

func (h *StaticFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := filepath.Clean("/" + strings.TrimPrefix(r.URL.Path, "/"))
	if _, err := os.Stat(filepath.Join(h.dir, clean)); err != nil {
		if !os.IsNotExist(err) {
			h.logger.Warn("Failed to stat static file", logger.String("path", clean), logger.Error(err))
		}
		http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
		return
	}
	h.fileServer.ServeHTTP(w, r)
}
