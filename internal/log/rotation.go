package log

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RotatingFile is an io.WriteCloser for the audit log. When a write would
// push the file past MaxBytes the file is renamed to path.1, older backups
// shift up by one, and backups beyond MaxBackups are removed.
type RotatingFile struct {
	mu sync.Mutex

	path       string
	maxBytes   int64
	maxBackups int

	file *os.File
	size int64
}

// NewRotatingFile opens (or creates) path for appending. A maxBytes of
// zero or less disables rotation.
func NewRotatingFile(path string, maxBytes int64, maxBackups int) (*RotatingFile, error) {
	if path == "" {
		return nil, errors.New("log file path is required")
	}
	if maxBackups < 0 {
		maxBackups = 0
	}
	rf := &RotatingFile{path: path, maxBytes: maxBytes, maxBackups: maxBackups}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

// Path returns the active log file path.
func (rf *RotatingFile) Path() string { return rf.path }

func (rf *RotatingFile) open() error {
	if err := os.MkdirAll(filepath.Dir(rf.path), 0o750); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	// Audit logs may name users; keep them owner-only.
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	rf.file = f
	rf.size = info.Size()
	return nil
}

// Write implements io.Writer.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return 0, os.ErrClosed
	}
	if rf.maxBytes > 0 && rf.size > 0 && rf.size+int64(len(p)) > rf.maxBytes {
		if err := rf.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log: %w", err)
		}
	}
	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

func (rf *RotatingFile) backup(i int) string {
	return fmt.Sprintf("%s.%d", rf.path, i)
}

// rotate must be called with mu held.
func (rf *RotatingFile) rotate() error {
	if err := rf.file.Close(); err != nil {
		return err
	}
	rf.file = nil

	if rf.maxBackups == 0 {
		if err := os.Remove(rf.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return rf.open()
	}

	if err := os.Remove(rf.backup(rf.maxBackups)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove oldest backup: %w", err)
	}
	for i := rf.maxBackups - 1; i >= 1; i-- {
		if err := os.Rename(rf.backup(i), rf.backup(i+1)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("shift backup %d: %w", i, err)
		}
	}
	if err := os.Rename(rf.path, rf.backup(1)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("rename active log: %w", err)
	}
	return rf.open()
}

// Close implements io.Closer. Close is idempotent.
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}
