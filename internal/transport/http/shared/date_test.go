package shared

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2026-03-02", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), true},
		{"2026-03-02T08:30:00Z", time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC), true},
		{" 2026-03-02 ", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, true},
		{"02/03/2026", time.Time{}, false},
		{"not-a-date", time.Time{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok != (err == nil) {
			t.Errorf("ParseDate(%q) err = %v, want ok=%v", tc.in, err, tc.ok)
			continue
		}
		if tc.ok && !got.Equal(tc.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
