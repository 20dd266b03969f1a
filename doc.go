// Package sitecount provides exact execution-count instrumentation for
// benchmark programs.
//
// Each instrumented unit (usually a source file) owns a Table of fixed
// length. Instrumented sites call Inc with their statically assigned index.
// When the run ends the Session appends one line per unit to a shared log:
//
//	benchmark/fibo.c:0,0,0,11405773,5702887,0,11405772,4613732,0,7049155,0,0,0,1,0
//
// The log is only ever appended to, so repeated runs grow it.
//
// Basic usage:
//
//	cfg := sitecount.DefaultConfig()
//	cfg.Units = []sitecount.Unit{{Identifier: "benchmark/fibo.c", Sites: 15}}
//	cfg.Logger = logger
//
//	err := sitecount.Run(cfg, func(s *sitecount.Session) error {
//	  t := s.Table("benchmark/fibo.c")
//	  t.Inc(13)
//	  fib(t, 33)
//	  return nil
//	})
//
// Counts can optionally be pushed to a Prometheus remote write endpoint
// (see ExportConfig) and the log can be converted to an lcov tracefile with
// WriteLCOV.
package sitecount
