// Package recurrence expands weekly opening patterns into concrete calendar dates.
package recurrence

import (
	"errors"
	"time"
)

// DateLayout is the ISO calendar date form used for every generated date.
const DateLayout = "2006-01-02"

// MaxDates bounds a single expansion to one leap year of dates.
const MaxDates = 366

// Frequency represents supported recurrence intervals.
type Frequency int

const (
	// FrequencyUnspecified indicates the rule frequency is not set.
	FrequencyUnspecified Frequency = iota
	// FrequencyDaily selects every date in the window, optionally filtered by weekday.
	FrequencyDaily
	// FrequencyWeekly selects the listed weekdays only.
	FrequencyWeekly
)

// Rule describes an inclusive date window and the weekdays selected inside it.
type Rule struct {
	Frequency Frequency
	Weekdays  []time.Weekday
	StartsOn  string
	EndsOn    string
}

var (
	// ErrInvalidFrequency indicates the recurrence frequency is not supported.
	ErrInvalidFrequency = errors.New("recurrence: invalid frequency")
	// ErrInvalidDate indicates a window bound is not an ISO calendar date.
	ErrInvalidDate = errors.New("recurrence: invalid date")
	// ErrInvalidWindow indicates the window ends before it starts.
	ErrInvalidWindow = errors.New("recurrence: window ends before it starts")
	// ErrWindowTooLarge indicates the window spans more than MaxDates days.
	ErrWindowTooLarge = errors.New("recurrence: window exceeds 366 days")
)

// Engine expands rules into dates.
type Engine struct{}

// NewEngine constructs an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// ExpandDates returns every selected date in [StartsOn, EndsOn] in ascending order.
//
// Dates are stepped with AddDate on UTC midnights, so daylight saving transitions
// never skip or repeat a calendar day.
func (e *Engine) ExpandDates(rule Rule) ([]string, error) {
	start, err := time.Parse(DateLayout, rule.StartsOn)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := time.Parse(DateLayout, rule.EndsOn)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if end.Before(start) {
		return nil, ErrInvalidWindow
	}
	if end.Sub(start) >= MaxDates*24*time.Hour {
		return nil, ErrWindowTooLarge
	}

	weekdaySet := make(map[time.Weekday]struct{}, len(rule.Weekdays))
	for _, day := range rule.Weekdays {
		weekdaySet[day] = struct{}{}
	}

	dates := make([]string, 0)
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		include, err := shouldInclude(rule.Frequency, weekdaySet, current.Weekday())
		if err != nil {
			return nil, err
		}
		if include {
			dates = append(dates, current.Format(DateLayout))
		}
	}
	return dates, nil
}

func shouldInclude(freq Frequency, weekdaySet map[time.Weekday]struct{}, day time.Weekday) (bool, error) {
	switch freq {
	case FrequencyDaily:
		if len(weekdaySet) == 0 {
			return true, nil
		}
		_, ok := weekdaySet[day]
		return ok, nil
	case FrequencyWeekly:
		if len(weekdaySet) == 0 {
			return false, nil
		}
		_, ok := weekdaySet[day]
		return ok, nil
	case FrequencyUnspecified:
		fallthrough
	default:
		return false, ErrInvalidFrequency
	}
}
