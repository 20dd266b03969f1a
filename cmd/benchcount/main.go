// Command benchcount runs the naive Fibonacci and factorial benchmarks with
// site counting enabled and appends the counts to the instrumentation log.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nikiz24/sitecount"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		os.Exit(1)
	}

	code := run(os.Args[1:], os.Stdout, logger)
	_ = logger.Sync()
	os.Exit(code)
}

// run executes the benchmarks and returns the process exit status. A
// failed flush is logged but leaves the status of a successful run at 0.
func run(args []string, stdout io.Writer, logger *zap.Logger) int {
	fs := flag.NewFlagSet("benchcount", flag.ContinueOnError)
	configPath := fs.String("config", "", "TOML config file")
	fibN := fs.Int64("fib", 33, "Fibonacci argument")
	factN := fs.Int64("fact", 20, "factorial argument")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := sitecount.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = sitecount.LoadConfigFile(*configPath); err != nil {
			logger.Error("Failed to load config", zap.String("path", *configPath), zap.Error(err))
			return 1
		}
	}
	if len(cfg.Units) == 0 {
		cfg.Units = Units()
	}
	cfg.Logger = logger

	var (
		fib, fact int64
		workErr   error
	)
	err := sitecount.Run(cfg, func(s *sitecount.Session) error {
		fib, fact, workErr = Benchmark(s, *fibN, *factN)
		return workErr
	})
	if err != nil {
		if workErr != nil || !errors.Is(err, sitecount.ErrFlush) {
			logger.Error("Benchmark run failed", zap.Error(err))
			return 1
		}
		logger.Error("Counters were not persisted", zap.Error(err))
	}

	fmt.Fprintf(stdout, "fib(%d) = %d\nfact(%d) = %d\n", *fibN, fib, *factN, fact)
	return 0
}
