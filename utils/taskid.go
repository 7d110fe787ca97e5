package utils

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"workerlly/config"
)

// taskIDCharMap encodes year/month/day components of a task id. Index 0
// maps to '1' so that January and the 1st of the month read naturally.
const taskIDCharMap = "123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// taskIDEpochYear anchors the single-character year component.
const taskIDEpochYear = 2020

var (
	businessLoc     *time.Location
	businessLocOnce sync.Once
)

// BusinessLocation returns the platform's local time zone. Task-id day
// boundaries and the midnight sweep both run on this clock.
func BusinessLocation() *time.Location {
	businessLocOnce.Do(func() {
		name := config.AppConfig.TimeZone
		if name == "" {
			name = "Asia/Kolkata"
		}
		loc, err := time.LoadLocation(name)
		if err != nil {
			loc = time.FixedZone("IST", 5*3600+1800)
		}
		businessLoc = loc
	})
	return businessLoc
}

// TaskIDPrefix builds the YMD- date prefix for the given instant,
// evaluated in the business time zone.
func TaskIDPrefix(t time.Time) (string, error) {
	local := t.In(BusinessLocation())
	yearIdx := local.Year() - taskIDEpochYear
	if yearIdx < 0 || yearIdx >= len(taskIDCharMap) {
		return "", fmt.Errorf("year %d outside task id range", local.Year())
	}
	y := taskIDCharMap[yearIdx]
	m := taskIDCharMap[int(local.Month())-1]
	d := taskIDCharMap[local.Day()-1]
	return fmt.Sprintf("%c%c%c-", y, m, d), nil
}

// FormatTaskID renders a full task id from a date prefix and a per-day
// sequence number (1-based, zero padded to four digits).
func FormatTaskID(prefix string, seq int) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}

// TaskIDSequence parses the numeric suffix of a task id. Returns 0 for an
// empty or malformed id, which makes the next sequence 0001.
func TaskIDSequence(taskID string) int {
	idx := strings.LastIndex(taskID, "-")
	if idx < 0 || idx+1 >= len(taskID) {
		return 0
	}
	n, err := strconv.Atoi(taskID[idx+1:])
	if err != nil {
		return 0
	}
	return n
}
