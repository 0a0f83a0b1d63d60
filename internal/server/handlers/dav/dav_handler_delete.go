package dav

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/openmined/davbox/internal/server/handlers/api"
	"github.com/openmined/davbox/internal/webdav"
)

// Delete unlinks a file or removes a collection with everything below it.
// The removal is not atomic: concurrent readers may see a partially removed tree.
func (h *DavHandler) Delete(c *gin.Context) {
	t, ok := target(c)
	if !ok {
		return
	}

	if t.IsRoot() {
		api.AbortWithError(c, fmt.Errorf("delete %s: refusing to remove the root: %w", t.Href, webdav.ErrForbidden))
		return
	}

	res, err := webdav.Stat(t.FSPath)
	if err != nil {
		api.AbortWithError(c, err)
		return
	}

	if res.IsCollection {
		err = os.RemoveAll(t.FSPath)
	} else {
		err = os.Remove(t.FSPath)
	}
	if err != nil {
		api.AbortWithError(c, classify("delete", t, err))
		return
	}

	slog.Debug("delete", "path", t.Href, "collection", res.IsCollection)
	c.Status(http.StatusNoContent)
}
