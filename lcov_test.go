package sitecount

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteLCOV(t *testing.T) {
	records, err := ReadLog(strings.NewReader("tmp/main.c:1,0,1,0\ntmp/another.c:0,1,1\ntmp/idle.c:0,0\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	err = WriteLCOV(&buf, records, LCOVOptions{
		Rename: map[string]string{"tmp/main.c": "src/main.c", "tmp/another.c": "src/another.c"},
		Found:  map[string]int{"tmp/main.c": 4, "tmp/another.c": 3},
	})
	require.NoError(t, err)

	require.Equal(t, `TN:test
SF:src/main.c
DA:1,1
DA:3,1
LH:2
LF:4
end_of_record
TN:test
SF:src/another.c
DA:2,1
DA:3,1
LH:2
LF:3
end_of_record
`, buf.String())
}

func TestWriteLCOVDefaults(t *testing.T) {
	var buf bytes.Buffer
	err := WriteLCOV(&buf, []Record{{"unit.c", []int64{0, 7, 0}}}, LCOVOptions{TestName: "fib"})
	require.NoError(t, err)

	require.Equal(t, "TN:fib\nSF:unit.c\nDA:2,7\nLH:1\nLF:3\nend_of_record\n", buf.String())
}
