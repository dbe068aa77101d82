package scheduler

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// DateLayout is the ISO calendar-date form used for availability and appointments.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidToken indicates a time-of-day token is not in HH:MM form.
	ErrInvalidToken = errors.New("scheduler: invalid time token")
	// ErrInvalidRange indicates an hour range whose end is not after its start.
	ErrInvalidRange = errors.New("scheduler: end hour must be after start hour")
)

// ParseToken splits an "HH:MM" token into hour and minute.
func ParseToken(token string) (hour, minute int, err error) {
	if len(token) != 5 || token[2] != ':' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	hour, err = strconv.Atoi(token[:2])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	minute, err = strconv.Atoi(token[3:])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	return hour, minute, nil
}

// ValidToken reports whether token is a well formed "HH:MM" time of day.
func ValidToken(token string) bool {
	_, _, err := ParseToken(token)
	return err == nil
}

// ValidDate reports whether date is an ISO calendar date (YYYY-MM-DD).
func ValidDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

// FormatHour renders the top-of-hour token for hour.
func FormatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// HourRange generates top-of-hour tokens from the start hour (inclusive) to the
// end hour (exclusive). Minutes in either bound are ignored.
func HourRange(start, end string) ([]string, error) {
	startHour, _, err := ParseToken(start)
	if err != nil {
		return nil, err
	}
	endHour, _, err := ParseToken(end)
	if err != nil {
		return nil, err
	}
	if endHour <= startHour {
		return nil, ErrInvalidRange
	}
	hours := make([]string, 0, endHour-startHour)
	for h := startHour; h < endHour; h++ {
		hours = append(hours, FormatHour(h))
	}
	return hours, nil
}

// NormalizeHours removes duplicate tokens keeping the first occurrence order and
// reports every malformed token separately.
func NormalizeHours(hours []string) (valid []string, invalid []string) {
	seen := make(map[string]struct{}, len(hours))
	valid = make([]string, 0, len(hours))
	for _, h := range hours {
		if !ValidToken(h) {
			invalid = append(invalid, h)
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		valid = append(valid, h)
	}
	return valid, invalid
}

// AvailableHours returns the declared tokens that are not booked, in declared order.
func AvailableHours(declared, booked []string) []string {
	if len(declared) == 0 {
		return []string{}
	}
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}
	open := make([]string, 0, len(declared))
	for _, h := range declared {
		if _, ok := taken[h]; ok {
			continue
		}
		open = append(open, h)
	}
	return open
}

// IsOpen reports whether token is declared and not booked.
func IsOpen(declared, booked []string, token string) bool {
	return slices.Contains(declared, token) && !slices.Contains(booked, token)
}

// CompareSlot orders two (date, time) pairs chronologically. Dates and tokens are
// fixed width, so lexical order matches calendar order.
func CompareSlot(dateA, timeA, dateB, timeB string) int {
	if dateA != dateB {
		if dateA < dateB {
			return -1
		}
		return 1
	}
	switch {
	case timeA < timeB:
		return -1
	case timeA > timeB:
		return 1
	}
	return 0
}
