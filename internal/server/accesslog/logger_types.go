package accesslog

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

const (
	MaxLogSize        = 10 * 1024 * 1024 // 10MB
	MaxLogFiles       = 5
	LogFilePermission = 0o600
	LogDirPermission  = 0o700

	anonymousUser   = "anonymous"
	timestampFormat = "2006-01-02 15:04:05.000 UTC"
)

type AccessType string

const (
	AccessTypeRead   AccessType = "read"
	AccessTypeWrite  AccessType = "write"
	AccessTypeDelete AccessType = "delete"
	AccessTypeMeta   AccessType = "meta"
)

// AccessTypeForMethod classifies a WebDAV verb.
func AccessTypeForMethod(method string) AccessType {
	switch method {
	case http.MethodGet, http.MethodHead, "PROPFIND":
		return AccessTypeRead
	case http.MethodPut, "MKCOL":
		return AccessTypeWrite
	case http.MethodDelete:
		return AccessTypeDelete
	default:
		return AccessTypeMeta
	}
}

// Entry is one line of a user's access log.
type Entry struct {
	Timestamp  time.Time
	User       string
	Method     string
	Path       string
	AccessType AccessType
	StatusCode int
	Bytes      int
	Duration   time.Duration
	IP         string
	UserAgent  string
}

type entryJSON struct {
	Timestamp  string     `json:"timestamp"`
	User       string     `json:"user"`
	Method     string     `json:"method"`
	Path       string     `json:"path"`
	AccessType AccessType `json:"access_type"`
	StatusCode int        `json:"status_code"`
	Bytes      int        `json:"bytes"`
	DurationMs int64      `json:"duration_ms"`
	IP         string     `json:"ip"`
	UserAgent  string     `json:"user_agent,omitempty"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(&entryJSON{
		Timestamp:  e.Timestamp.UTC().Format(timestampFormat),
		User:       e.User,
		Method:     e.Method,
		Path:       e.Path,
		AccessType: e.AccessType,
		StatusCode: e.StatusCode,
		Bytes:      e.Bytes,
		DurationMs: e.Duration.Milliseconds(),
		IP:         e.IP,
		UserAgent:  e.UserAgent,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var aux entryJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	ts, err := time.Parse(timestampFormat, aux.Timestamp)
	if err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}

	*e = Entry{
		Timestamp:  ts,
		User:       aux.User,
		Method:     aux.Method,
		Path:       aux.Path,
		AccessType: aux.AccessType,
		StatusCode: aux.StatusCode,
		Bytes:      aux.Bytes,
		Duration:   time.Duration(aux.DurationMs) * time.Millisecond,
		IP:         aux.IP,
		UserAgent:  aux.UserAgent,
	}
	return nil
}
