package ingest

import (
	"testing"
	"time"
)

func TestParseDateTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-15 10:30:00", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"2024-03-15T10:30:00", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"05/03/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"5/3/2024 7:05:00", time.Date(2024, 3, 5, 7, 5, 0, 0, time.UTC), true},
		{"20240315", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"45366", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"45366.4375", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"NaT", time.Time{}, false},
		{"mañana", time.Time{}, false},
		{"31/02/2024", time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseDateTime(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParseDateTime(%q) ok=%v, expected %v", tc.in, ok, tc.ok)
		}
		if ok && !got.Equal(tc.want) {
			t.Fatalf("ParseDateTime(%q) expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1250", "1250", true},
		{" 1250.50 ", "1250.5", true},
		{"1.5E3", "1500", true},
		{"abc", "", false},
		{"nan", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParseNumber(%q) ok=%v, expected %v", tc.in, ok, tc.ok)
		}
		if ok && got.String() != tc.want {
			t.Fatalf("ParseNumber(%q) expected %s, got %s", tc.in, tc.want, got.String())
		}
	}
}
