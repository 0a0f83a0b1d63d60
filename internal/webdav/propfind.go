package webdav

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Depth is the PROPFIND Depth header value after capping.
type Depth int

const (
	DepthZero Depth = 0
	DepthOne  Depth = 1
)

const statusOK = "HTTP/1.1 200 OK"

// ParseDepth interprets a Depth header. "infinity" is capped to one level;
// missing or unrecognized values mean zero.
func ParseDepth(header string) Depth {
	switch strings.ToLower(strings.TrimSpace(header)) {
	case "1", "infinity":
		return DepthOne
	default:
		return DepthZero
	}
}

type multistatus struct {
	XMLName   xml.Name   `xml:"D:multistatus"`
	XmlnsD    string     `xml:"xmlns:D,attr"`
	Responses []response `xml:"D:response"`
}

type response struct {
	Href     string   `xml:"D:href"`
	Propstat propstat `xml:"D:propstat"`
}

type propstat struct {
	Prop   prop   `xml:"D:prop"`
	Status string `xml:"D:status"`
}

type prop struct {
	CreationDate     string       `xml:"D:creationdate"`
	GetLastModified  string       `xml:"D:getlastmodified"`
	GetETag          string       `xml:"D:getetag"`
	GetContentLength uint64       `xml:"D:getcontentlength"`
	GetContentType   string       `xml:"D:getcontenttype"`
	ResourceType     resourceType `xml:"D:resourcetype"`
}

type resourceType struct {
	Collection *struct{} `xml:"D:collection"`
}

// RenderPropfind builds the multistatus document describing res and, for
// DepthOne on a collection, its visible immediate children.
func RenderPropfind(ctx context.Context, res *Resource, target *Target, depth Depth, hide HideFunc) ([]byte, error) {
	ms := multistatus{
		XmlnsD:    "DAV:",
		Responses: []response{newResponse(res, target.Href)},
	}

	if depth > DepthZero && res.IsCollection {
		children, err := ReadChildren(ctx, target, hide)
		if err != nil {
			return nil, fmt.Errorf("propfind children: %w", err)
		}
		for _, c := range children {
			ms.Responses = append(ms.Responses, newResponse(c.Resource, c.Href))
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(ms); err != nil {
		return nil, fmt.Errorf("encode multistatus: %w", err)
	}
	return buf.Bytes(), nil
}

func newResponse(res *Resource, href string) response {
	p := prop{
		CreationDate:     res.CreatedAt.UTC().Format(time.RFC3339),
		GetLastModified:  res.ModifiedAt.UTC().Format(http.TimeFormat),
		GetETag:          res.ETag,
		GetContentLength: res.Size,
		GetContentType:   res.ContentType(),
	}
	if res.IsCollection {
		p.ResourceType.Collection = &struct{}{}
	}

	return response{
		Href: EncodeHref(href, res.IsCollection),
		Propstat: propstat{
			Prop:   p,
			Status: statusOK,
		},
	}
}

// EncodeHref percent-encodes each segment of a logical path. Collections get a
// trailing slash.
func EncodeHref(href string, collection bool) string {
	segments := strings.Split(strings.Trim(href, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	out := "/" + strings.Join(segments, "/")
	if collection && !strings.HasSuffix(out, "/") {
		out += "/"
	}
	return out
}
