package sitecount

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrRegister is returned by Run when the finalizer could not be registered
var ErrRegister = errors.New("registering finalizer")

// ErrFlush wraps every error raised while finalizing a session. Such an
// error happens after the workload has finished and does not say anything
// about the workload's own outcome.
var ErrFlush = errors.New("flushing counters")

// Session owns the counter tables of one run and flushes them exactly once
type Session struct {
	config   Config
	logger   *zap.Logger
	tables   []*Table
	byID     map[string]*Table
	flusher  *Flusher
	exporter *Exporter
	started  time.Time

	finalizeOnce sync.Once
	finalizeErr  error
}

// NewSession validates the config and creates one zeroed table per unit
func NewSession(config Config) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		config:  config,
		logger:  logger,
		byID:    make(map[string]*Table, len(config.Units)),
		flusher: NewFlusher(config.LogPath, logger),
		started: time.Now(),
	}

	for _, u := range config.Units {
		t := NewTable(u.Identifier, u.Sites)
		s.tables = append(s.tables, t)
		s.byID[u.Identifier] = t
	}

	if config.Export.Enabled() {
		s.exporter = NewExporter(config.Export, logger)
	}

	return s, nil
}

// Table returns the table of the unit, or nil if the unit is not configured
func (s *Session) Table(identifier string) *Table {
	return s.byID[identifier]
}

// Tables returns the tables in configuration order
func (s *Session) Tables() []*Table {
	return append([]*Table(nil), s.tables...)
}

// Records snapshots every table
func (s *Session) Records() []Record {
	records := make([]Record, 0, len(s.tables))
	for _, t := range s.tables {
		records = append(records, t.Record())
	}
	return records
}

// Finalize appends the current counts to the log and exports them if
// configured. Only the first call does any work; later calls return the
// first call's result. Errors wrap ErrFlush.
func (s *Session) Finalize() error {
	s.finalizeOnce.Do(func() {
		s.finalizeErr = s.finalize()
	})
	return s.finalizeErr
}

func (s *Session) finalize() error {
	records := s.Records()
	err := s.flusher.Flush(records...)

	if s.exporter != nil {
		collectors := make([]Collector, 0, len(s.tables))
		for _, t := range s.tables {
			collectors = append(collectors, t)
		}
		metrics := append(CollectAll(collectors...), ReadRunStats(s.started).Metrics()...)

		ctx, cancel := context.WithTimeout(context.Background(), pickDuration(s.config.Export.Timeout, 15*time.Second))
		defer cancel()
		if exportErr := s.exporter.Export(ctx, metrics); exportErr != nil {
			s.logger.Error("Failed to export counters", zap.Error(exportErr))
			err = multierr.Append(err, exportErr)
		}
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrFlush, err)
	}
	return nil
}

// Run executes workload inside a session. The finalizer is registered
// before workload runs; a registration failure returns an error wrapping
// ErrRegister without running workload or touching the log. Otherwise the
// session is finalized exactly once after workload returns, fails or
// panics. A workload panic is re-raised after finalization.
func Run(config Config, workload func(*Session) error) (err error) {
	s, err := NewSession(config)
	if err != nil {
		return err
	}

	if config.Register != nil {
		if regErr := config.Register(func() { _ = s.Finalize() }); regErr != nil {
			s.logger.Error("Failed to register finalizer", zap.Error(regErr))
			return fmt.Errorf("%w: %w", ErrRegister, regErr)
		}
	}

	defer func() {
		if ferr := s.Finalize(); ferr != nil {
			err = multierr.Append(err, ferr)
		}
	}()

	return workload(s)
}
