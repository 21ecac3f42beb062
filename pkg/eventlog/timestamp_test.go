package eventlog

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"winston format", "2024-01-15 10:30:45.123", time.Date(2024, 1, 15, 10, 30, 45, 123000000, time.UTC), true},
		{"winston without millis", "2024-01-15 10:30:45", time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC), true},
		{"ISO with Z", "2024-01-15T10:30:45.123Z", time.Date(2024, 1, 15, 10, 30, 45, 123000000, time.UTC), true},
		{"ISO with offset", "2024-01-15T12:30:45+02:00", time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC), true},
		{"ISO zone-less", "2024-01-15T10:30:45", time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC), true},
		{"date only", "2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "yesterday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
