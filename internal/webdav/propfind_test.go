package webdav

import (
	"context"
	"encoding/xml"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decoded multistatus, namespace aware
type msDoc struct {
	XMLName   xml.Name `xml:"DAV: multistatus"`
	Responses []struct {
		Href     string `xml:"DAV: href"`
		Propstat struct {
			Status string `xml:"DAV: status"`
			Prop   struct {
				CreationDate     string `xml:"DAV: creationdate"`
				GetLastModified  string `xml:"DAV: getlastmodified"`
				GetETag          string `xml:"DAV: getetag"`
				GetContentLength uint64 `xml:"DAV: getcontentlength"`
				GetContentType   string `xml:"DAV: getcontenttype"`
				ResourceType     struct {
					Collection *struct{} `xml:"DAV: collection"`
				} `xml:"DAV: resourcetype"`
			} `xml:"DAV: prop"`
		} `xml:"DAV: propstat"`
	} `xml:"DAV: response"`
}

func fixtureTree(t *testing.T) *Resolver {
	t.Helper()
	r := newTestResolver(t)
	root := r.Root()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "sub dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "c&d.bin"), []byte("12345"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", ".davbox-1.tmp"), []byte("partial"), 0o644))
	return r
}

func propfind(t *testing.T, r *Resolver, raw string, depth Depth) msDoc {
	t.Helper()
	target, err := r.Resolve(raw)
	require.NoError(t, err)
	res, err := Stat(target.FSPath)
	require.NoError(t, err)

	hide, err := NewHideFunc(nil)
	require.NoError(t, err)

	body, err := RenderPropfind(context.Background(), res, target, depth, hide)
	require.NoError(t, err)
	assert.Contains(t, string(body), `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, string(body), `xmlns:D="DAV:"`)

	var doc msDoc
	require.NoError(t, xml.Unmarshal(body, &doc))
	return doc
}

func TestParseDepth(t *testing.T) {
	assert.Equal(t, DepthZero, ParseDepth(""))
	assert.Equal(t, DepthZero, ParseDepth("0"))
	assert.Equal(t, DepthOne, ParseDepth("1"))
	assert.Equal(t, DepthOne, ParseDepth("infinity"))
	assert.Equal(t, DepthOne, ParseDepth(" Infinity "))
	assert.Equal(t, DepthZero, ParseDepth("2"))
	assert.Equal(t, DepthZero, ParseDepth("bogus"))
}

func TestRenderPropfind_DepthZero(t *testing.T) {
	r := fixtureTree(t)

	doc := propfind(t, r, "/a", DepthZero)
	require.Len(t, doc.Responses, 1)

	resp := doc.Responses[0]
	assert.Equal(t, "/a/", resp.Href)
	assert.Equal(t, "HTTP/1.1 200 OK", resp.Propstat.Status)
	assert.NotNil(t, resp.Propstat.Prop.ResourceType.Collection)
	assert.Equal(t, ContentTypeCollection, resp.Propstat.Prop.GetContentType)
	assert.Zero(t, resp.Propstat.Prop.GetContentLength)

	_, err := time.Parse(time.RFC3339, resp.Propstat.Prop.CreationDate)
	assert.NoError(t, err)
	_, err = http.ParseTime(resp.Propstat.Prop.GetLastModified)
	assert.NoError(t, err)
}

func TestRenderPropfind_DepthOne(t *testing.T) {
	r := fixtureTree(t)

	doc := propfind(t, r, "/a/", DepthOne)
	require.Len(t, doc.Responses, 4)

	hrefs := make([]string, 0, len(doc.Responses))
	for _, resp := range doc.Responses {
		hrefs = append(hrefs, resp.Href)
	}
	assert.Equal(t, []string{"/a/", "/a/b.txt", "/a/c&d.bin", "/a/sub%20dir/"}, hrefs)

	file := doc.Responses[1].Propstat.Prop
	assert.EqualValues(t, 2, file.GetContentLength)
	assert.Equal(t, ContentTypeFile, file.GetContentType)
	assert.Nil(t, file.ResourceType.Collection)
	assert.Regexp(t, etagPattern, file.GetETag)

	assert.NotNil(t, doc.Responses[3].Propstat.Prop.ResourceType.Collection)
}

func TestRenderPropfind_Root(t *testing.T) {
	r := fixtureTree(t)

	doc := propfind(t, r, "/", DepthOne)
	require.Len(t, doc.Responses, 2)
	assert.Equal(t, "/", doc.Responses[0].Href)
	assert.Equal(t, "/a/", doc.Responses[1].Href)
}

func TestRenderPropfind_FileIgnoresDepth(t *testing.T) {
	r := fixtureTree(t)

	doc := propfind(t, r, "/a/b.txt", DepthOne)
	require.Len(t, doc.Responses, 1)
	assert.Equal(t, "/a/b.txt", doc.Responses[0].Href)
}

func TestRenderPropfind_EmptyCollection(t *testing.T) {
	r := newTestResolver(t)
	require.NoError(t, os.Mkdir(filepath.Join(r.Root(), "empty"), 0o755))

	doc := propfind(t, r, "/empty", DepthOne)
	require.Len(t, doc.Responses, 1)
	assert.Equal(t, "/empty/", doc.Responses[0].Href)
}

func TestEncodeHref(t *testing.T) {
	assert.Equal(t, "/", EncodeHref("/", true))
	assert.Equal(t, "/", EncodeHref("/", false))
	assert.Equal(t, "/a/b/", EncodeHref("/a/b", true))
	assert.Equal(t, "/a/b", EncodeHref("/a/b", false))
	assert.Equal(t, "/a%20b/%3F.txt", EncodeHref("/a b/?.txt", false))
	assert.Equal(t, "/%25/%23x", EncodeHref("/%/#x", false))
}
