package webdav

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"path"
	"time"

	_ "embed"

	"github.com/dustin/go-humanize"
)

//go:embed listing.html.tmpl
var listingTmpl string

var tplListing = template.Must(template.New("listing").Funcs(template.FuncMap{
	"humanizeSize": humanize.Bytes,
	"formatTime": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04:05 UTC")
	},
}).Parse(listingTmpl))

// listingData contains data for the listing template
type listingData struct {
	Path    string
	Parent  string
	Entries []listingEntry
}

type listingEntry struct {
	*Resource
	Link string
}

// RenderListing renders the HTML index of the collection at target.
func RenderListing(ctx context.Context, target *Target, hide HideFunc) ([]byte, error) {
	children, err := ReadChildren(ctx, target, hide)
	if err != nil {
		return nil, fmt.Errorf("listing children: %w", err)
	}

	data := listingData{
		Path:    target.Href,
		Entries: make([]listingEntry, 0, len(children)),
	}
	if !target.IsRoot() {
		data.Path += "/"
		data.Parent = EncodeHref(path.Dir(target.Href), true)
	}

	for _, c := range children {
		data.Entries = append(data.Entries, listingEntry{
			Resource: c.Resource,
			Link:     EncodeHref(c.Href, c.IsCollection),
		})
	}

	var buf bytes.Buffer
	if err := tplListing.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute listing template: %w", err)
	}
	return buf.Bytes(), nil
}
