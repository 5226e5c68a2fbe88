package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  time.Time
		match bool
	}{
		{"rfc2822", "Mon, 01 Jan 2024 12:00:00 GMT", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"rfc2822 numeric zone", "Sat, 14 Dec 2024 10:30:00 +0000", time.Date(2024, 12, 14, 10, 30, 0, 0, time.UTC), true},
		{"rfc2822 single digit day", "Mon, 1 Jan 2024 12:00:00 +0000", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"rfc3339", "2024-01-01T12:00:00Z", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"rfc3339 offset", "2024-01-01T14:00:00+02:00", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"rfc3339 fractional", "2024-01-01T12:00:00.500Z", time.Date(2024, 1, 1, 12, 0, 0, 500_000_000, time.UTC), true},
		{"iso no zone", "2024-01-01T12:00:00", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"date only", "2024-06-15", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), true},
		{"year month", "2024-06", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"year only", "2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"surrounding whitespace", "  2024-01-01T12:00:00Z  ", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"garbage", "not a date", time.Time{}, false},
		{"empty", "", time.Time{}, false},
		{"whitespace only", "   ", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.in)
			require.Equal(t, tt.match, ok)
			if tt.match {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParse_SameInstantAcrossFormats(t *testing.T) {
	rfc2822, ok := Parse("Mon, 01 Jan 2024 12:00:00 GMT")
	require.True(t, ok)
	rfc3339, ok := Parse("2024-01-01T12:00:00Z")
	require.True(t, ok)
	assert.True(t, rfc2822.Equal(rfc3339), "both forms must yield the same instant")
}
