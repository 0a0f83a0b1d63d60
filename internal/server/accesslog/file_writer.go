package accesslog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// userLogWriter appends JSON lines to one user's log directory and rotates
// the active file once it grows past MaxLogSize.
type userLogWriter struct {
	mu          sync.Mutex
	logDir      string
	file        *os.File
	currentFile string
	currentSize int64
}

func newUserLogWriter(logDir string) (*userLogWriter, error) {
	if err := os.MkdirAll(logDir, LogDirPermission); err != nil {
		return nil, fmt.Errorf("create user log directory: %w", err)
	}
	w := &userLogWriter{logDir: logDir}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *userLogWriter) write(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentSize > 0 && w.currentSize+int64(len(data)) > MaxLogSize {
		if err := w.rotate(); err != nil {
			return fmt.Errorf("rotate log: %w", err)
		}
	}

	n, err := w.file.Write(data)
	w.currentSize += int64(n)
	if err != nil {
		return fmt.Errorf("write log entry: %w", err)
	}
	return nil
}

func (w *userLogWriter) open() error {
	logPath := filepath.Join(w.logDir, "access.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, LogFilePermission)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	w.file = file
	w.currentFile = logPath
	w.currentSize = stat.Size()
	return nil
}

func (w *userLogWriter) rotate() error {
	if w.file != nil {
		w.file.Close()
	}

	rotated := filepath.Join(w.logDir, fmt.Sprintf("access_%s.log", time.Now().UTC().Format("20060102_150405.000")))
	if err := os.Rename(w.currentFile, rotated); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename log file: %w", err)
	}

	if err := w.pruneRotated(); err != nil {
		return err
	}
	return w.open()
}

// pruneRotated keeps the newest MaxLogFiles rotated files.
func (w *userLogWriter) pruneRotated() error {
	rotated, err := filepath.Glob(filepath.Join(w.logDir, "access_*.log"))
	if err != nil {
		return err
	}
	if len(rotated) <= MaxLogFiles {
		return nil
	}

	// timestamped names sort chronologically
	sort.Strings(rotated)
	for _, old := range rotated[:len(rotated)-MaxLogFiles] {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("remove old log file: %w", err)
		}
	}
	return nil
}

func (w *userLogWriter) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
