package sitecount

import (
	"bufio"
	"fmt"
	"io"
)

// LCOVOptions controls WriteLCOV
type LCOVOptions struct {
	// TestName is written as the TN field. Defaults to "test".
	TestName string

	// Rename maps unit identifiers to the source file names in SF fields
	Rename map[string]string

	// Found holds the number of instrumented sites per unit for LF.
	// Units without an entry report the record length.
	Found map[string]int
}

// WriteLCOV writes records as an lcov tracefile. Site i is reported as
// line i+1, only sites with a non-zero count get a DA entry, and records
// without any hits are skipped.
func WriteLCOV(w io.Writer, records []Record, opts LCOVOptions) error {
	testName := opts.TestName
	if testName == "" {
		testName = "test"
	}

	bw := bufio.NewWriter(w)
	for _, rec := range records {
		hit := 0
		for _, c := range rec.Counts {
			if c > 0 {
				hit++
			}
		}
		if hit == 0 {
			continue
		}

		source := rec.Identifier
		if renamed, ok := opts.Rename[source]; ok {
			source = renamed
		}
		found, ok := opts.Found[rec.Identifier]
		if !ok {
			found = len(rec.Counts)
		}

		fmt.Fprintf(bw, "TN:%s\n", testName)
		fmt.Fprintf(bw, "SF:%s\n", source)
		for i, c := range rec.Counts {
			if c > 0 {
				fmt.Fprintf(bw, "DA:%d,%d\n", i+1, c)
			}
		}
		fmt.Fprintf(bw, "LH:%d\n", hit)
		fmt.Fprintf(bw, "LF:%d\n", found)
		bw.WriteString("end_of_record\n")
	}

	return bw.Flush()
}
