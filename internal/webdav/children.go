package webdav

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// maxStatWorkers bounds the concurrent stat calls of one enumeration
const maxStatWorkers = 16

// Child is an immediate child of a collection together with its logical path.
type Child struct {
	*Resource
	Href string
}

// ReadChildren lists the immediate children of the collection at target and
// stats each of them concurrently. The result keeps directory (name) order.
// Entries that disappear between listing and stat are skipped, as are symlinks
// leading outside a root that forbids escaping. Any other stat failure fails
// the whole call.
func ReadChildren(ctx context.Context, target *Target, hide HideFunc) ([]*Child, error) {
	if hide == nil {
		hide = hideNone
	}

	entries, err := os.ReadDir(target.FSPath)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", target.FSPath, err)
	}

	visible := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		if hide(path.Join(target.Href, e.Name())) {
			continue
		}
		visible = append(visible, e)
	}

	results := make([]*Child, len(visible))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxStatWorkers)

	for i, e := range visible {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			fsPath := filepath.Join(target.FSPath, e.Name())
			if e.Type()&fs.ModeSymlink != 0 && target.containRoot != "" {
				inside, err := linkWithin(target.containRoot, fsPath)
				if err != nil {
					return err
				}
				if !inside {
					return nil
				}
			}
			res, err := Stat(fsPath)
			if errors.Is(err, ErrNotFound) {
				return nil
			} else if err != nil {
				return err
			}
			results[i] = &Child{Resource: res, Href: path.Join(target.Href, e.Name())}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	children := make([]*Child, 0, len(results))
	for _, c := range results {
		if c != nil {
			children = append(children, c)
		}
	}
	return children, nil
}

// linkWithin reports whether the symlink at p resolves inside root.
// Dangling links count as inside and are dropped by the stat that follows.
func linkWithin(root, p string) (bool, error) {
	evaluated, err := filepath.EvalSymlinks(p)
	if errors.Is(err, fs.ErrNotExist) || (err != nil && isNotDir(err)) {
		return true, nil
	} else if err != nil {
		return false, fmt.Errorf("eval symlink %s: %w", p, err)
	}
	return within(root, evaluated), nil
}
