package webdav

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Target is a request path mapped into the sandbox.
type Target struct {
	// FSPath is the absolute filesystem path, always inside the root.
	FSPath string
	// Href is the decoded, normalized request path. It starts with "/" and
	// carries no trailing slash except for the root itself.
	Href string

	// containRoot is set when symlinks must not lead outside of it.
	containRoot string
}

// IsRoot reports whether the target is the served root.
func (t *Target) IsRoot() bool {
	return t.Href == "/"
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithSymlinkEscape lets resolved paths follow symlinks that point outside the root.
func WithSymlinkEscape(allow bool) ResolverOption {
	return func(r *Resolver) {
		r.allowSymlinkEscape = allow
	}
}

// Resolver maps request URLs onto paths below a fixed root directory.
type Resolver struct {
	root               string
	allowSymlinkEscape bool
}

// NewResolver creates the root directory if it is absent and returns a resolver for it.
func NewResolver(root string, opts ...ResolverOption) (*Resolver, error) {
	if root == "" {
		return nil, errors.New("webdav root cannot be empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create root %q: %w", abs, err)
	}

	evaluated, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("evaluate root %q: %w", abs, err)
	}

	r := &Resolver{root: filepath.Clean(evaluated)}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Root returns the absolute root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve turns a raw request URL (request-target form, percent-encoded) into a
// sandboxed Target. It fails with ErrForbidden when the path cannot be kept
// inside the root or names a staging file.
func (r *Resolver) Resolve(rawURL string) (*Target, error) {
	href, err := cleanRequestPath(rawURL)
	if err != nil {
		return nil, err
	}
	if IsStagingPath(href) {
		return nil, ErrForbidden
	}

	// path.Clean on a rooted path cannot climb above "/", strip anyway
	rel := strings.TrimPrefix(href, "/")
	for strings.HasPrefix(rel, "../") {
		rel = strings.TrimPrefix(rel, "../")
	}
	if rel == ".." {
		rel = ""
	}

	fsPath := filepath.Join(r.root, filepath.FromSlash(rel))
	if !within(r.root, fsPath) {
		return nil, ErrForbidden
	}

	if !r.allowSymlinkEscape {
		evaluated, err := evalExisting(fsPath)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", href, err)
		}
		if !within(r.root, evaluated) {
			return nil, ErrForbidden
		}
	}

	t := &Target{FSPath: fsPath, Href: href}
	if !r.allowSymlinkEscape {
		t.containRoot = r.root
	}
	return t, nil
}

// cleanRequestPath decodes and lexically normalizes the path part of a request URL.
func cleanRequestPath(rawURL string) (string, error) {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	// absolute-form request targets carry scheme and host
	if strings.Contains(p, "://") {
		u, err := url.Parse(p)
		if err != nil {
			return "", ErrForbidden
		}
		p = u.EscapedPath()
	}

	decoded, err := url.PathUnescape(p)
	if err != nil {
		return "", ErrForbidden
	}
	if strings.ContainsRune(decoded, 0) {
		return "", ErrForbidden
	}

	decoded = strings.ReplaceAll(decoded, "\\", "/")
	return path.Clean("/" + decoded), nil
}

// within reports whether p is root or a descendant of it.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// evalExisting evaluates symlinks on the deepest existing ancestor of p and
// re-appends the missing tail.
func evalExisting(p string) (string, error) {
	tail := ""
	cur := p
	for {
		evaluated, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(evaluated, tail), nil
		}
		if !errors.Is(err, fs.ErrNotExist) && !isNotDir(err) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p, nil
		}
		tail = filepath.Join(filepath.Base(cur), tail)
		cur = parent
	}
}
