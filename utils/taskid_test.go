package utils

import (
	"testing"
	"time"
)

func TestTaskIDPrefix(t *testing.T) {
	ist := BusinessLocation()

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"epoch start", time.Date(2021, time.January, 1, 12, 0, 0, 0, ist), "211-"},
		{"letter day", time.Date(2026, time.August, 28, 9, 30, 0, 0, ist), "78S-"},
		{"letter month", time.Date(2025, time.December, 10, 0, 0, 0, 0, ist), "6CA-"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TaskIDPrefix(tc.at)
			if err != nil {
				t.Fatalf("TaskIDPrefix: %v", err)
			}
			if got != tc.want {
				t.Errorf("TaskIDPrefix(%v) = %q, want %q", tc.at, got, tc.want)
			}
		})
	}
}

// The day component rolls over on the business clock, not UTC.
func TestTaskIDPrefixDayBoundary(t *testing.T) {
	beforeMidnight := time.Date(2026, time.August, 27, 19, 0, 0, 0, time.UTC) // 00:30 on the 28th in IST
	got, err := TaskIDPrefix(beforeMidnight)
	if err != nil {
		t.Fatalf("TaskIDPrefix: %v", err)
	}
	if got != "78S-" {
		t.Errorf("TaskIDPrefix(%v) = %q, want %q", beforeMidnight, got, "78S-")
	}
}

func TestTaskIDPrefixOutOfRange(t *testing.T) {
	tooEarly := time.Date(2019, time.June, 1, 0, 0, 0, 0, BusinessLocation())
	if _, err := TaskIDPrefix(tooEarly); err == nil {
		t.Error("expected error for year before the task id epoch")
	}
}

func TestFormatTaskID(t *testing.T) {
	if got := FormatTaskID("78S-", 7); got != "78S-0007" {
		t.Errorf("FormatTaskID = %q, want %q", got, "78S-0007")
	}
	if got := FormatTaskID("78S-", 1234); got != "78S-1234" {
		t.Errorf("FormatTaskID = %q, want %q", got, "78S-1234")
	}
}

func TestTaskIDSequence(t *testing.T) {
	tests := []struct {
		taskID string
		want   int
	}{
		{"78S-0042", 42},
		{"78S-0001", 1},
		{"78S-", 0},
		{"", 0},
		{"no-suffix-here", 0},
		{"78S-12ab", 0},
	}
	for _, tc := range tests {
		if got := TaskIDSequence(tc.taskID); got != tc.want {
			t.Errorf("TaskIDSequence(%q) = %d, want %d", tc.taskID, got, tc.want)
		}
	}
}
