package sitecount

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordString(t *testing.T) {
	tests := []struct {
		rec  Record
		want string
	}{
		{Record{"unit.c", []int64{2, 0, 1}}, "unit.c:2,0,1"},
		{Record{"benchmark/fibo.c", []int64{7}}, "benchmark/fibo.c:7"},
		{Record{"big.c", []int64{9223372036854775807, 0}}, "big.c:9223372036854775807,0"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.rec.String())
		require.Equal(t, tt.want+"\n", string(tt.rec.AppendText(nil)))
	}
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord("unit.c:2,0,1\n")
	require.NoError(t, err)
	require.Equal(t, Record{"unit.c", []int64{2, 0, 1}}, rec)

	rec, err = ParseRecord("C:/src/unit.c:5,6")
	require.NoError(t, err)
	require.Equal(t, "C:/src/unit.c", rec.Identifier)
	require.Equal(t, []int64{5, 6}, rec.Counts)
}

func TestParseRecordMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"no-separator",
		":1,2",
		"unit.c:",
		"unit.c:1,,2",
		"unit.c:1,2,",
		"unit.c:1,x",
		"unit.c:1,-3",
		"unit.c:+1,2",
		"unit.c:9223372036854775808",
	} {
		_, err := ParseRecord(line)
		require.ErrorIs(t, err, ErrMalformedRecord, "line %q", line)
	}
}

func TestReadLog(t *testing.T) {
	log := "unit.c:1,0\n\nunit.c:3,1\nother.c:4\n"

	records, err := ReadLog(strings.NewReader(log))
	require.NoError(t, err)
	require.Equal(t, []Record{
		{"unit.c", []int64{1, 0}},
		{"unit.c", []int64{3, 1}},
		{"other.c", []int64{4}},
	}, records)
}

func TestReadLogReportsLine(t *testing.T) {
	_, err := ReadLog(strings.NewReader("unit.c:1\nbroken\n"))
	require.ErrorIs(t, err, ErrMalformedRecord)
	require.Contains(t, err.Error(), "line 2")
}

func TestMergeRecords(t *testing.T) {
	merged, err := MergeRecords([]Record{
		{"unit.c", []int64{1, 0}},
		{"other.c", []int64{4}},
		{"unit.c", []int64{3, 1}},
	})
	require.NoError(t, err)
	require.Equal(t, []Record{
		{"unit.c", []int64{4, 1}},
		{"other.c", []int64{4}},
	}, merged)

	_, err = MergeRecords([]Record{
		{"unit.c", []int64{1, 0}},
		{"unit.c", []int64{1}},
	})
	require.Error(t, err)
}
