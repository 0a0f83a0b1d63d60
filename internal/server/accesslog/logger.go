package accesslog

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// AccessLogger keeps a JSON-lines audit trail of WebDAV requests, one
// directory per authenticated user.
type AccessLogger struct {
	baseDir string
	logger  *slog.Logger

	mu      sync.Mutex
	writers map[string]*userLogWriter
	closed  bool
}

func New(baseDir string, logger *slog.Logger) (*AccessLogger, error) {
	if err := os.MkdirAll(baseDir, LogDirPermission); err != nil {
		return nil, fmt.Errorf("create access log directory: %w", err)
	}

	return &AccessLogger{
		baseDir: baseDir,
		logger:  logger.With("component", "accesslog"),
		writers: make(map[string]*userLogWriter),
	}, nil
}

// Log appends entry to its user's log. Failures are reported through slog and
// never surface to the request.
func (al *AccessLogger) Log(entry Entry) {
	if entry.User == "" {
		entry.User = anonymousUser
	}

	writer, err := al.writer(entry.User)
	if err == nil {
		err = writer.write(entry)
	}
	if err != nil {
		al.logger.Error("write access log", "user", entry.User, "path", entry.Path, "error", err)
	}
}

func (al *AccessLogger) writer(user string) (*userLogWriter, error) {
	al.mu.Lock()
	defer al.mu.Unlock()

	if al.closed {
		return nil, errors.New("access logger closed")
	}
	if w, ok := al.writers[user]; ok {
		return w, nil
	}

	w, err := newUserLogWriter(al.userDir(user))
	if err != nil {
		return nil, err
	}
	al.writers[user] = w
	return w, nil
}

func (al *AccessLogger) userDir(user string) string {
	return filepath.Join(al.baseDir, sanitizeUsername(user))
}

// ReadUserLogs returns up to limit of the most recent entries from the active
// log file of user. A non positive limit returns everything.
func (al *AccessLogger) ReadUserLogs(user string, limit int) ([]Entry, error) {
	file, err := os.Open(filepath.Join(al.userDir(user), "access.log"))
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	entries := []Entry{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			al.logger.Warn("skip malformed access log line", "user", user, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// Close flushes and closes every open log file. Later Log calls are dropped.
func (al *AccessLogger) Close() error {
	al.mu.Lock()
	defer al.mu.Unlock()

	var errs []error
	for user, w := range al.writers {
		if err := w.close(); err != nil {
			errs = append(errs, fmt.Errorf("close log for %s: %w", user, err))
		}
	}
	al.writers = map[string]*userLogWriter{}
	al.closed = true
	return errors.Join(errs...)
}
