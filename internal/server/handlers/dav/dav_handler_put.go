package dav

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openmined/davbox/internal/server/handlers/api"
	"github.com/openmined/davbox/internal/webdav"
)

// Put streams the request body into a staging file next to the target and
// renames it into place, so an aborted upload never leaves partial content.
// Missing ancestors are not created.
func (h *DavHandler) Put(c *gin.Context) {
	t, ok := target(c)
	if !ok {
		return
	}

	exists, err := checkPutTarget(t)
	if err != nil {
		api.AbortWithError(c, err)
		return
	}

	tmpPath := filepath.Join(filepath.Dir(t.FSPath), webdav.StagingName(uuid.NewString()))
	written, err := writeStaged(tmpPath, c.Request.Body)
	if err != nil {
		slog.Warn("put aborted", "path", t.Href, "written", written, "error", err)
		api.AbortWithError(c, classify("put", t, err))
		return
	}

	if err := os.Rename(tmpPath, t.FSPath); err != nil {
		os.Remove(tmpPath)
		api.AbortWithError(c, classify("put rename", t, err))
		return
	}

	slog.Debug("put", "path", t.Href, "size", written, "overwrite", exists)
	if exists {
		c.Status(http.StatusNoContent)
		return
	}
	c.String(http.StatusCreated, http.StatusText(http.StatusCreated))
}

// checkPutTarget verifies the parent collection exists and the target is not
// a collection. It reports whether a file is being replaced.
func checkPutTarget(t *webdav.Target) (bool, error) {
	parent, err := os.Stat(filepath.Dir(t.FSPath))
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return false, fmt.Errorf("put %s: %w", t.Href, webdav.ErrConflict)
	case err != nil:
		return false, fmt.Errorf("put %s: stat parent: %w", t.Href, err)
	case !parent.IsDir():
		return false, fmt.Errorf("put %s: %w", t.Href, webdav.ErrConflict)
	}

	info, err := os.Stat(t.FSPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("put %s: stat target: %w", t.Href, err)
	case info.IsDir():
		return false, fmt.Errorf("put %s: target is a collection: %w", t.Href, webdav.ErrMethodConflict)
	}
	return true, nil
}

// writeStaged copies body into a new file at path. The file is removed on any failure.
func writeStaged(path string, body io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, defaultFilePerm)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, body)
	if err != nil {
		f.Close()
		os.Remove(path)
		return n, fmt.Errorf("write body: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return n, fmt.Errorf("close staged file: %w", err)
	}
	return n, nil
}
