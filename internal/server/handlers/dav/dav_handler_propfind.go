package dav

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openmined/davbox/internal/server/handlers/api"
	"github.com/openmined/davbox/internal/webdav"
)

// Propfind answers with the allprop set of the resource, plus its immediate
// children when Depth is 1 or infinity. The request body is not inspected.
func (h *DavHandler) Propfind(c *gin.Context) {
	t, ok := target(c)
	if !ok {
		return
	}

	res, err := webdav.Stat(t.FSPath)
	if err != nil {
		api.AbortWithError(c, err)
		return
	}

	depth := webdav.ParseDepth(c.GetHeader(headerDepth))
	doc, err := webdav.RenderPropfind(c.Request.Context(), res, t, depth, h.hide)
	if err != nil {
		api.AbortWithError(c, err)
		return
	}

	c.Header(headerDAV, DAVCompliance)
	c.Header(headerContentLength, strconv.Itoa(len(doc)))
	c.Data(http.StatusMultiStatus, contentTypeMultiXML, doc)
}
