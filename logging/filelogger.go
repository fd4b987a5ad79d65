package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"
)

const (
	RunDirectoryPrefix = "run-" // Standardized prefix for run directories
	AllLogsFilename    = "all.log"
	logFileExtension   = ".log"
)

// FileLogger stores the output of every work item of a run on disk.
// Each item gets its own file and all output is also appended to a combined log.
type FileLogger struct {
	logDir  string   // Directory of the current run
	allLogs *os.File // Combined log of every item
	mu      sync.Mutex
	runID   string
}

// NewFileLogger creates the run directory under baseDir and opens the combined log
func NewFileLogger(baseDir string, runID string) (*FileLogger, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory cannot be empty")
	}
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}

	logDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	allLogs, err := os.Create(filepath.Join(logDir, AllLogsFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to create combined log file: %w", err)
	}

	return &FileLogger{
		logDir:  logDir,
		allLogs: allLogs,
		runID:   runID,
	}, nil
}

// LogDir returns the directory holding this run's logs
func (l *FileLogger) LogDir() string {
	return l.logDir
}

// ItemLogPath returns the log file path used for the item with the given label
func (l *FileLogger) ItemLogPath(label string) string {
	return filepath.Join(l.logDir, safeFilename(label)+logFileExtension)
}

// ItemWriter opens the log file for a work item. Everything written to it is
// stripped of ANSI escape codes and stored both in the item's file and the combined log.
func (l *FileLogger) ItemWriter(label string) (io.WriteCloser, error) {
	f, err := os.Create(l.ItemLogPath(label))
	if err != nil {
		return nil, fmt.Errorf("failed to create log file for %s: %w", label, err)
	}

	l.mu.Lock()
	_, err = fmt.Fprintf(l.allLogs, "===> %s\n", label)
	l.mu.Unlock()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write combined log: %w", err)
	}

	return &itemWriter{logger: l, file: f}, nil
}

// Close closes the combined log
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allLogs.Close()
}

func (l *FileLogger) writeAll(p []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.allLogs.Write(p)
	return err
}

// itemWriter buffers partial lines so escape sequences are never split before stripping.
// The command's stdout and stderr are copied from separate goroutines, hence the mutex.
type itemWriter struct {
	logger *FileLogger
	file   *os.File
	mu     sync.Mutex
	buf    bytes.Buffer
}

func (w *itemWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := w.buf.Next(idx + 1)
		if err := w.flushLine(line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (w *itemWriter) flushLine(line []byte) error {
	clean := []byte(stripansi.Strip(string(line)))
	if _, err := w.file.Write(clean); err != nil {
		return fmt.Errorf("failed to write item log: %w", err)
	}
	return w.logger.writeAll(clean)
}

func (w *itemWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var flushErr error
	if w.buf.Len() > 0 {
		rest := append(w.buf.Bytes(), '\n')
		w.buf.Reset()
		flushErr = w.flushLine(rest)
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	return flushErr
}

// safeFilename makes a label usable as a file name on every platform
func safeFilename(label string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return replacer.Replace(label)
}
