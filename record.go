package sitecount

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedRecord is returned when a log line does not match
// "<identifier>:<c0>,<c1>,...".
var ErrMalformedRecord = errors.New("malformed record")

// Record is one flushed counter table: a line of the instrumentation log
type Record struct {
	Identifier string
	Counts     []int64
}

// AppendText appends the record and its trailing newline to dst
func (r Record) AppendText(dst []byte) []byte {
	dst = append(dst, r.Identifier...)
	dst = append(dst, ':')
	for i, c := range r.Counts {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = strconv.AppendInt(dst, c, 10)
	}
	return append(dst, '\n')
}

// String returns the record without the trailing newline
func (r Record) String() string {
	b := r.AppendText(nil)
	return string(b[:len(b)-1])
}

// ParseRecord parses a single log line. A trailing newline is allowed.
// The last ':' separates the identifier from the counts.
func ParseRecord(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")

	sep := strings.LastIndexByte(line, ':')
	if sep <= 0 {
		return Record{}, fmt.Errorf("%w: missing identifier separator", ErrMalformedRecord)
	}

	fields := strings.Split(line[sep+1:], ",")
	counts := make([]int64, 0, len(fields))
	for i, f := range fields {
		// Counts are unsigned decimals that fit an int64; no sign is accepted.
		c, err := strconv.ParseUint(f, 10, 63)
		if err != nil {
			return Record{}, fmt.Errorf("%w: count %d: %v", ErrMalformedRecord, i, err)
		}
		counts = append(counts, int64(c))
	}

	return Record{Identifier: line[:sep], Counts: counts}, nil
}

// ReadLog parses every non-blank line of an instrumentation log in order
func ReadLog(r io.Reader) ([]Record, error) {
	var records []Record

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := ParseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}

	return records, nil
}

// ReadLogFile opens path and parses it with ReadLog
func ReadLogFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadLog(f)
}

// MergeRecords sums the counts of records sharing an identifier, keeping
// first-seen order.
func MergeRecords(records []Record) ([]Record, error) {
	index := make(map[string]int, len(records))
	var merged []Record

	for _, rec := range records {
		i, ok := index[rec.Identifier]
		if !ok {
			index[rec.Identifier] = len(merged)
			merged = append(merged, Record{
				Identifier: rec.Identifier,
				Counts:     append([]int64(nil), rec.Counts...),
			})
			continue
		}
		if len(merged[i].Counts) != len(rec.Counts) {
			return nil, fmt.Errorf("unit %q: %d sites, record has %d",
				rec.Identifier, len(merged[i].Counts), len(rec.Counts))
		}
		for j, c := range rec.Counts {
			merged[i].Counts[j] += c
		}
	}

	return merged, nil
}
