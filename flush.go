package sitecount

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Flusher appends records to the instrumentation log
type Flusher struct {
	path   string
	logger *zap.Logger
}

// NewFlusher creates a flusher for the log at path
func NewFlusher(path string, logger *zap.Logger) *Flusher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flusher{path: path, logger: logger}
}

// Path returns the log path
func (f *Flusher) Path() string {
	return f.path
}

// Flush appends one line per record with a single write, so the lines of
// one flush are never interleaved with another process's append.
func (f *Flusher) Flush(records ...Record) (err error) {
	if len(records) == 0 {
		return nil
	}

	var buf []byte
	for _, rec := range records {
		buf = rec.AppendText(buf)
	}

	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		f.logger.Error("Failed to open instrumentation log",
			zap.String("path", f.path), zap.Error(err))
		return fmt.Errorf("opening instrumentation log %s: %w", f.path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			f.logger.Error("Failed to close instrumentation log",
				zap.String("path", f.path), zap.Error(cerr))
			err = multierr.Append(err, fmt.Errorf("closing instrumentation log %s: %w", f.path, cerr))
		}
	}()

	if _, err := file.Write(buf); err != nil {
		f.logger.Error("Failed to write instrumentation log",
			zap.String("path", f.path), zap.Error(err))
		return fmt.Errorf("writing instrumentation log %s: %w", f.path, err)
	}

	f.logger.Debug("Flushed instrumentation counters",
		zap.String("path", f.path), zap.Int("records", len(records)))
	return nil
}
