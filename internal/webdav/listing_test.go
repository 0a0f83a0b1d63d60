package webdav

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type listingRow struct {
	Class string
	Href  string
	Name  string
	Size  string
}

// parseListing pulls the title and table rows out of a rendered listing.
func parseListing(t *testing.T, body []byte) (string, []listingRow) {
	t.Helper()
	doc, err := html.Parse(bytes.NewReader(body))
	require.NoError(t, err)

	var title string
	var rows []listingRow
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				title = text(n)
			case "tr":
				if class := attr(n, "class"); class != "" {
					row := listingRow{Class: class}
					var cells []*html.Node
					for c := n.FirstChild; c != nil; c = c.NextSibling {
						if c.Type == html.ElementNode && c.Data == "td" {
							cells = append(cells, c)
						}
					}
					require.Len(t, cells, 3)
					if a := find(cells[0], "a"); a != nil {
						row.Href = attr(a, "href")
					}
					row.Name = text(cells[0])
					row.Size = text(cells[1])
					rows = append(rows, row)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title, rows
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func find(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func text(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(sb.String())
}

func renderListing(t *testing.T, r *Resolver, raw string) []byte {
	t.Helper()
	target, err := r.Resolve(raw)
	require.NoError(t, err)
	hide, err := NewHideFunc(nil)
	require.NoError(t, err)
	body, err := RenderListing(context.Background(), target, hide)
	require.NoError(t, err)
	return body
}

func TestRenderListing(t *testing.T) {
	r := fixtureTree(t)

	title, rows := parseListing(t, renderListing(t, r, "/a"))
	assert.Equal(t, "Index of /a/", title)
	require.Len(t, rows, 4)

	assert.Equal(t, listingRow{Class: "parent", Href: "/", Name: "..", Size: "-"}, rows[0])
	assert.Equal(t, listingRow{Class: "entry", Href: "/a/b.txt", Name: "b.txt", Size: "2 B"}, rows[1])
	assert.Equal(t, listingRow{Class: "entry", Href: "/a/c&d.bin", Name: "c&d.bin", Size: "5 B"}, rows[2])
	assert.Equal(t, listingRow{Class: "entry", Href: "/a/sub%20dir/", Name: "sub dir/", Size: "-"}, rows[3])
}

func TestRenderListing_Root(t *testing.T) {
	r := fixtureTree(t)

	title, rows := parseListing(t, renderListing(t, r, "/"))
	assert.Equal(t, "Index of /", title)
	require.Len(t, rows, 1)
	assert.Equal(t, "entry", rows[0].Class)
	assert.Equal(t, "/a/", rows[0].Href)
}

func TestRenderListing_Nested(t *testing.T) {
	r := fixtureTree(t)

	_, rows := parseListing(t, renderListing(t, r, "/a/sub%20dir"))
	require.Len(t, rows, 1)
	assert.Equal(t, "/a/", rows[0].Href)
}

func TestRenderListing_EscapesNames(t *testing.T) {
	r := newTestResolver(t)
	require.NoError(t, os.WriteFile(filepath.Join(r.Root(), "<script>.txt"), nil, 0o644))

	body := renderListing(t, r, "/")
	assert.NotContains(t, string(body), "<script>.txt")

	_, rows := parseListing(t, body)
	require.Len(t, rows, 1)
	assert.Equal(t, "<script>.txt", rows[0].Name)
	assert.Equal(t, "/%3Cscript%3E.txt", rows[0].Href)
}
