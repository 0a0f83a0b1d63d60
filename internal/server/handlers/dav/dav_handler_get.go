package dav

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openmined/davbox/internal/server/handlers/api"
	"github.com/openmined/davbox/internal/webdav"
)

func (h *DavHandler) Get(c *gin.Context) {
	h.serveResource(c, true)
}

func (h *DavHandler) Head(c *gin.Context) {
	h.serveResource(c, false)
}

func (h *DavHandler) serveResource(c *gin.Context, withBody bool) {
	t, ok := target(c)
	if !ok {
		return
	}

	res, err := webdav.Stat(t.FSPath)
	if err != nil {
		api.AbortWithError(c, err)
		return
	}

	if res.IsCollection {
		h.serveListing(c, t, withBody)
	} else {
		h.serveFile(c, t, res, withBody)
	}
}

// Serve the "Index of" page
func (h *DavHandler) serveListing(c *gin.Context, t *webdav.Target, withBody bool) {
	body, err := webdav.RenderListing(c.Request.Context(), t, h.hide)
	if err != nil {
		api.AbortWithError(c, err)
		return
	}

	c.Header(headerContentLength, strconv.Itoa(len(body)))
	if !withBody {
		c.Header("Content-Type", contentTypeHTML)
		c.Status(http.StatusOK)
		return
	}
	c.Data(http.StatusOK, contentTypeHTML, body)
}

func (h *DavHandler) serveFile(c *gin.Context, t *webdav.Target, res *webdav.Resource, withBody bool) {
	f, err := os.Open(t.FSPath)
	if err != nil {
		api.AbortWithError(c, classify("open", t, err))
		return
	}
	defer f.Close()

	c.Header(headerETag, res.ETag)
	c.Header(headerLastModified, res.ModifiedAt.UTC().Format(http.TimeFormat))

	if etagMatches(c.GetHeader(headerIfNoneMatch), res.ETag) {
		c.Status(http.StatusNotModified)
		return
	}

	c.Header("Content-Type", webdav.ContentTypeFile)
	c.Header(headerContentLength, strconv.FormatUint(res.Size, 10))
	c.Status(http.StatusOK)
	if !withBody {
		return
	}

	// headers are gone by now, a failed copy can only be logged
	if _, err := io.Copy(c.Writer, f); err != nil {
		slog.Warn("file stream aborted", "path", t.Href, "error", err)
		c.Error(err)
	}
}

// etagMatches evaluates an If-None-Match header against the current tag.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
