package sitecount

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTableStartsAtZero(t *testing.T) {
	tbl := NewTable("unit.c", 15)
	require.Equal(t, 15, tbl.Len())
	require.Equal(t, "unit.c", tbl.Identifier())
	require.Equal(t, make([]int64, 15), tbl.Counts())
}

func TestTableIncCountsExactly(t *testing.T) {
	tbl := NewTable("unit.c", 3)
	tbl.Inc(0)
	tbl.Inc(0)
	tbl.Inc(2)

	require.Equal(t, []int64{2, 0, 1}, tbl.Counts())
}

func TestTableMonotonic(t *testing.T) {
	tbl := NewTable("unit.c", 4)
	prev := tbl.Counts()

	for n := 0; n < 100; n++ {
		tbl.Inc(n % 4)
		if n%7 == 0 {
			tbl.Add(n%4, -5)
		}
		cur := tbl.Counts()
		for i := range cur {
			require.GreaterOrEqual(t, cur[i], prev[i])
		}
		prev = cur
	}
	require.Equal(t, []int64{25, 25, 25, 25}, prev)
}

func TestTableAdd(t *testing.T) {
	tbl := NewTable("unit.c", 2)
	tbl.Add(1, 40)
	tbl.Add(1, 2)
	tbl.Add(0, 0)

	require.Equal(t, int64(0), tbl.Get(0))
	require.Equal(t, int64(42), tbl.Get(1))
}

func TestTableIncOutOfRangePanics(t *testing.T) {
	tbl := NewTable("unit.c", 2)
	require.Panics(t, func() { tbl.Inc(2) })
	require.Panics(t, func() { tbl.Inc(-1) })
}

func TestTableCountsIsSnapshot(t *testing.T) {
	tbl := NewTable("unit.c", 1)
	snap := tbl.Counts()
	tbl.Inc(0)

	require.Equal(t, int64(0), snap[0])
	require.Equal(t, int64(1), tbl.Get(0))
}

func TestTableCollect(t *testing.T) {
	tbl := NewTable("unit.c", 2)
	tbl.Inc(1)

	metrics := tbl.Collect()
	require.Len(t, metrics, 2)
	require.Equal(t, "site_hits", metrics[1].Name)
	require.Equal(t, float64(1), metrics[1].Value)
	require.Equal(t, Counter, metrics[1].MetricType)
	require.Equal(t, map[string]string{"unit": "unit.c", "site": "1"}, metrics[1].Labels)
}
