package webdav

import "errors"

// Request outcomes the dispatcher maps onto HTTP status codes.
// Any error that is none of these is a server error.
var (
	ErrForbidden        = errors.New("path escapes the served root")
	ErrNotFound         = errors.New("resource not found")
	ErrConflict         = errors.New("parent collection missing")
	ErrMethodConflict   = errors.New("resource already exists")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrMethodNotAllowed = errors.New("method not allowed")
)
