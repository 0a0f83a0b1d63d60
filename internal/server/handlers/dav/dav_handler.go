package dav

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/openmined/davbox/internal/server/handlers/api"
	"github.com/openmined/davbox/internal/server/middlewares"
	"github.com/openmined/davbox/internal/webdav"
)

const (
	MethodPropfind = "PROPFIND"
	MethodMkcol    = "MKCOL"

	// DAVCompliance is advertised in the DAV header
	DAVCompliance = "1,2"

	contentTypeHTML       = "text/html; charset=utf-8"
	contentTypeMultiXML   = `application/xml; charset="utf-8"`
	headerDAV             = "DAV"
	headerAllow           = "Allow"
	headerMSAuthorVia     = "MS-Author-Via"
	headerDepth           = "Depth"
	headerIfNoneMatch     = "If-None-Match"
	headerContentLength   = "Content-Length"
	headerLastModified    = "Last-Modified"
	headerETag            = "ETag"
	defaultFilePerm       = 0o644
	defaultCollectionPerm = 0o755
)

// Methods lists every verb the handler serves, in the order they are advertised.
var Methods = []string{
	http.MethodOptions,
	http.MethodGet,
	http.MethodHead,
	http.MethodPut,
	http.MethodDelete,
	MethodMkcol,
	MethodPropfind,
}

// AllowedMethods is the value of the Allow header.
var AllowedMethods = strings.Join(Methods, ", ")

// DavHandler dispatches WebDAV requests onto the sandboxed filesystem.
// It keeps no per-request state.
type DavHandler struct {
	hide webdav.HideFunc
}

func New(hide webdav.HideFunc) *DavHandler {
	return &DavHandler{hide: hide}
}

// Register wires every supported method on a catch-all route and answers
// unknown verbs with 405.
func (h *DavHandler) Register(r *gin.Engine) {
	handlers := map[string]gin.HandlerFunc{
		http.MethodOptions: h.Options,
		http.MethodGet:     h.Get,
		http.MethodHead:    h.Head,
		http.MethodPut:     h.Put,
		http.MethodDelete:  h.Delete,
		MethodMkcol:        h.Mkcol,
		MethodPropfind:     h.Propfind,
	}
	for _, method := range Methods {
		r.Handle(method, "/*filepath", handlers[method])
	}

	r.HandleMethodNotAllowed = true
	r.NoMethod(h.MethodNotAllowed)
	r.NoRoute(func(c *gin.Context) {
		api.AbortWithStatus(c, http.StatusNotFound)
	})
}

func (h *DavHandler) Options(c *gin.Context) {
	c.Header(headerAllow, AllowedMethods)
	c.Header(headerDAV, DAVCompliance)
	c.Header(headerMSAuthorVia, "DAV")
	c.Header(headerContentLength, "0")
	c.Status(http.StatusOK)
}

func (h *DavHandler) MethodNotAllowed(c *gin.Context) {
	c.Header(headerAllow, AllowedMethods)
	api.AbortWithError(c, fmt.Errorf("%s %s: %w", c.Request.Method, c.Request.URL.Path, webdav.ErrMethodNotAllowed))
}

// target returns the sandboxed path resolved by the sandbox middleware.
func target(c *gin.Context) (*webdav.Target, bool) {
	t, ok := middlewares.GetTarget(c)
	if !ok {
		api.AbortWithError(c, errors.New("request reached dav handler without a resolved target"))
	}
	return t, ok
}

// classify maps a filesystem error onto the webdav taxonomy.
func classify(op string, t *webdav.Target, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return fmt.Errorf("%s %s: %w", op, t.Href, webdav.ErrNotFound)
	default:
		return fmt.Errorf("%s %s: %w", op, t.Href, err)
	}
}
