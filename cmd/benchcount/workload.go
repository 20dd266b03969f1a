package main

import (
	"fmt"

	"github.com/nikiz24/sitecount"
)

// Unit identifiers and site indices. Indices follow the 0-based source
// line of the instrumented statement.
const (
	FiboUnit  = "benchmark/fibo.c"
	FiboSites = 15

	fiboEntry    = 3
	fiboZero     = 4
	fiboOneCheck = 6
	fiboOne      = 7
	fiboRecurse  = 9
	fiboMain     = 13

	FactUnit  = "benchmark/fact.c"
	FactSites = 8

	factEntry   = 2
	factBase    = 3
	factRecurse = 5
)

// Units returns the units benchcount instruments
func Units() []sitecount.Unit {
	return []sitecount.Unit{
		{Identifier: FiboUnit, Sites: FiboSites},
		{Identifier: FactUnit, Sites: FactSites},
	}
}

// Fibonacci computes fib(n) naively, counting branch and call sites in t
func Fibonacci(t *sitecount.Table, n int64) int64 {
	t.Inc(fiboEntry)
	if n == 0 {
		t.Inc(fiboZero)
		return 0
	}
	t.Inc(fiboOneCheck)
	if n == 1 {
		t.Inc(fiboOne)
		return 1
	}
	t.Inc(fiboRecurse)
	return Fibonacci(t, n-1) + Fibonacci(t, n-2)
}

// Factorial computes n! recursively, counting branch and call sites in t
func Factorial(t *sitecount.Table, n int64) int64 {
	t.Inc(factEntry)
	if n <= 1 {
		t.Inc(factBase)
		return 1
	}
	t.Inc(factRecurse)
	return n * Factorial(t, n-1)
}

// Benchmark runs both workloads against the session's tables. The fibo
// unit's main site is counted once per run.
func Benchmark(s *sitecount.Session, fibN, factN int64) (fib, fact int64, err error) {
	fibTable, factTable := s.Table(FiboUnit), s.Table(FactUnit)
	if fibTable == nil || factTable == nil {
		return 0, 0, fmt.Errorf("config must declare units %q and %q", FiboUnit, FactUnit)
	}

	fibTable.Inc(fiboMain)
	return Fibonacci(fibTable, fibN), Factorial(factTable, factN), nil
}
