package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/LJTian/AIDaily/internal/collector"
)

var ref = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

func TestIsRecent(t *testing.T) {
	tbl := []struct {
		date string
		want bool
	}{
		{"2025-01-01T01:00:00Z", true},
		{"2024-12-31T12:00:00Z", false},
		{"2025-01-01T00:00:00Z", false}, // 恰好在边界上不算
		{"just now", true},
		{"Recent", true},
		{"", true},
		{"Jan 1, 2025", false},
		{"January 1, 2025", false},
		{"2025-01-03", true},
		{"Mon, 30 Dec 2024 10:00:00 GMT", false},
		{"2025", true},
		{"1234", true},
		{"42", true},
		{"5 min read", true},
	}
	for _, tt := range tbl {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRecent(tt.date, ref, RecencyWindow))
		})
	}
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2025-01-01T01:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC), got)

	got, ok = ParseDate("2 Jan 2025")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), got)

	_, ok = ParseDate("yesterday-ish")
	assert.False(t, ok)

	_, ok = ParseDate("2024")
	assert.False(t, ok, "a bare year is not a date")
}

func TestFilterRecent(t *testing.T) {
	in := []collector.Article{
		{Title: "new", Date: "2025-01-01T12:00:00Z"},
		{Title: "old", Date: "2024-06-01"},
		{Title: "unknown", Date: "Recent"},
	}

	out := FilterRecent(in, collector.KindBlog, ref, RecencyWindow)
	assert.Equal(t, []string{"new", "unknown"}, titles(out))

	out = FilterRecent(in, collector.KindMedium, ref, RecencyWindow)
	assert.Len(t, out, 2)

	out = FilterRecent(in, collector.KindHN, ref, RecencyWindow)
	assert.Len(t, out, 3, "aggregator sources are exempt")
}
