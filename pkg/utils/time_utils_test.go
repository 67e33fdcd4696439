package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateString(t *testing.T) {
	// 23:30 UTC on Aug 31 is already Sep 1 in Oslo.
	late := time.Date(2026, time.August, 31, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-09-01", DateString(late))

	noon := time.Date(2026, time.September, 4, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-09-04", DateString(noon))
}

func TestMonthBounds(t *testing.T) {
	mid := time.Date(2026, time.September, 15, 12, 0, 0, 0, time.UTC)
	start, end := MonthBounds(mid)

	startT := time.Unix(start, 0).In(time.FixedZone("CEST", 2*3600))
	assert.Equal(t, 2026, startT.Year())
	assert.Equal(t, time.September, startT.Month())
	assert.Equal(t, 1, startT.Day())

	// [start, end) spans exactly one calendar month.
	assert.Less(t, start, end)
	// The month must be added in Oslo time; in other zones AddDate can
	// normalize through a day that does not exist locally.
	assert.Equal(t, time.Unix(start, 0).In(osloLoc).AddDate(0, 1, 0).Unix(), end)
	nextStart, _ := MonthBounds(mid.AddDate(0, 1, 0))
	assert.Equal(t, end, nextStart)

	// The bounds contain the input and exclude the neighbors.
	assert.GreaterOrEqual(t, mid.Unix(), start)
	assert.Less(t, mid.Unix(), end)
	prevStart, prevEnd := MonthBounds(mid.AddDate(0, -1, 0))
	assert.Equal(t, prevEnd, start)
	assert.Less(t, prevStart, start)
}

func TestNorwegianMonth(t *testing.T) {
	assert.Equal(t, "januar", NorwegianMonth(time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "september", NorwegianMonth(time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "desember", NorwegianMonth(time.Date(2026, time.December, 10, 0, 0, 0, 0, time.UTC)))
}
