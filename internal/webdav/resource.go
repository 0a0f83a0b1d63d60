package webdav

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"syscall"
	"time"
)

const (
	ContentTypeCollection = "httpd/unix-directory"
	ContentTypeFile       = "application/octet-stream"
)

// Resource is the protocol-visible view of a filesystem entry.
// It is derived on every read and never cached.
type Resource struct {
	Name         string
	IsCollection bool
	Size         uint64
	ModifiedAt   time.Time
	CreatedAt    time.Time
	ETag         string
}

// ContentType returns the getcontenttype value for the resource.
func (r *Resource) ContentType() string {
	if r.IsCollection {
		return ContentTypeCollection
	}
	return ContentTypeFile
}

// Stat reads the metadata of the entry at fsPath.
// A missing entry yields ErrNotFound, any other failure is returned wrapped.
func Stat(fsPath string) (*Resource, error) {
	info, err := os.Stat(fsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || isNotDir(err) {
			return nil, fmt.Errorf("stat %s: %w", fsPath, ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", fsPath, err)
	}
	return FromFileInfo(info), nil
}

// FromFileInfo builds a Resource from an already fetched FileInfo.
func FromFileInfo(info fs.FileInfo) *Resource {
	res := &Resource{
		Name:         info.Name(),
		IsCollection: info.IsDir(),
		ModifiedAt:   info.ModTime(),
		CreatedAt:    createdAt(info),
	}
	if !res.IsCollection && info.Size() > 0 {
		res.Size = uint64(info.Size())
	}
	res.ETag = ETag(res.ModifiedAt, res.Size)
	return res
}

// ETag fingerprints an entry by modification time and size.
// The result is a quoted entity tag.
func ETag(modTime time.Time, size uint64) string {
	sum := md5.Sum([]byte(strconv.FormatInt(modTime.UnixNano(), 10) + "-" + strconv.FormatUint(size, 10)))
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func isNotDir(err error) bool {
	return errors.Is(err, syscall.ENOTDIR)
}
