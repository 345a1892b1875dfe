package diary

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock converts an "HH:MM" wall-clock string to minutes past midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in clock time %q", s)
	}
	return h*60 + m, nil
}

// MinutesBetween returns the elapsed minutes from one clock time to the
// next occurrence of another. An end numerically earlier than the start is
// treated as falling on the following day.
func MinutesBetween(start, end string) (int, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	if e < s {
		e += 24 * 60
	}
	return e - s, nil
}

// minutesAwakePerWakeup is the fixed heuristic applied to each remembered
// night waking when deriving sleep efficiency.
const minutesAwakePerWakeup = 15

// Efficiency derives the sleep-efficiency percentage from the raw answers:
// the share of time in bed (try-to-sleep through final wake) actually spent
// asleep. Returns nil when either clock time is missing or unparsable.
func Efficiency(tryToSleep, finalWake string, minutesToFallAsleep, nightWakeups int) *int {
	if tryToSleep == "" || finalWake == "" {
		return nil
	}
	timeInBed, err := MinutesBetween(tryToSleep, finalWake)
	if err != nil || timeInBed <= 0 {
		return nil
	}
	timeAwake := minutesToFallAsleep + nightWakeups*minutesAwakePerWakeup
	timeAsleep := timeInBed - timeAwake
	pct := int(roundRatio(timeAsleep, timeInBed))
	return &pct
}

func roundRatio(part, whole int) float64 {
	v := float64(part) / float64(whole) * 100
	if v >= 0 {
		return float64(int(v + 0.5))
	}
	return float64(int(v - 0.5))
}

// FormatDuration renders the bed-to-wake span as "7h 30m".
func FormatDuration(bedTime, wakeTime string) string {
	mins, err := MinutesBetween(bedTime, wakeTime)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%dh %dm", mins/60, mins%60)
}
