package webdav

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const stagingNamePattern = ".davbox-*.tmp"

// TempFilePattern matches the staging files PUT writes before renaming them into place.
const TempFilePattern = "**/" + stagingNamePattern

// StagingName returns the staging file name for the upload id.
func StagingName(id string) string {
	return ".davbox-" + id + ".tmp"
}

// IsStagingPath reports whether any segment of href is a staging file name.
// Such paths are reserved for the server and never addressable by clients.
func IsStagingPath(href string) bool {
	for _, segment := range strings.Split(href, "/") {
		if ok, _ := doublestar.Match(stagingNamePattern, segment); ok {
			return true
		}
	}
	return false
}

// HideFunc reports whether the entry at the logical path href is left out of
// listings and PROPFIND responses.
type HideFunc func(href string) bool

// NewHideFunc compiles doublestar patterns into a HideFunc. Patterns are matched
// against the logical path without its leading slash.
func NewHideFunc(patterns []string) (HideFunc, error) {
	all := append([]string{TempFilePattern}, patterns...)
	for _, p := range all {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid hide pattern %q", p)
		}
	}

	return func(href string) bool {
		name := path.Clean(href)
		if len(name) > 0 && name[0] == '/' {
			name = name[1:]
		}
		for _, p := range all {
			if ok, _ := doublestar.Match(p, name); ok {
				return true
			}
		}
		return false
	}, nil
}

func hideNone(string) bool { return false }
