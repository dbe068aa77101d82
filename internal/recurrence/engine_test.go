package recurrence

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestEngine_ExpandDates(t *testing.T) {
	t.Parallel()

	engine := NewEngine()

	t.Run("respects weekday selections", func(t *testing.T) {
		t.Parallel()

		// 2025-05-24 is a Saturday.
		dates, err := engine.ExpandDates(Rule{
			Frequency: FrequencyWeekly,
			Weekdays:  []time.Weekday{time.Saturday, time.Sunday},
			StartsOn:  "2025-05-22",
			EndsOn:    "2025-06-01",
		})
		if err != nil {
			t.Fatalf("ExpandDates failed: %v", err)
		}
		want := []string{"2025-05-24", "2025-05-25", "2025-05-31", "2025-06-01"}
		if !slices.Equal(dates, want) {
			t.Fatalf("expected %v, got %v", want, dates)
		}
	})

	t.Run("daily without weekdays selects every date inclusively", func(t *testing.T) {
		t.Parallel()

		dates, err := engine.ExpandDates(Rule{Frequency: FrequencyDaily, StartsOn: "2024-02-28", EndsOn: "2024-03-01"})
		if err != nil {
			t.Fatalf("ExpandDates failed: %v", err)
		}
		want := []string{"2024-02-28", "2024-02-29", "2024-03-01"}
		if !slices.Equal(dates, want) {
			t.Fatalf("expected %v, got %v", want, dates)
		}
	})

	t.Run("weekly without weekdays selects nothing", func(t *testing.T) {
		t.Parallel()

		dates, err := engine.ExpandDates(Rule{Frequency: FrequencyWeekly, StartsOn: "2025-05-01", EndsOn: "2025-05-31"})
		if err != nil {
			t.Fatalf("ExpandDates failed: %v", err)
		}
		if len(dates) != 0 {
			t.Fatalf("expected no dates, got %v", dates)
		}
	})

	t.Run("single day window", func(t *testing.T) {
		t.Parallel()

		dates, err := engine.ExpandDates(Rule{Frequency: FrequencyDaily, StartsOn: "2025-06-01", EndsOn: "2025-06-01"})
		if err != nil {
			t.Fatalf("ExpandDates failed: %v", err)
		}
		if !slices.Equal(dates, []string{"2025-06-01"}) {
			t.Fatalf("unexpected dates: %v", dates)
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name string
			rule Rule
			want error
		}{
			{"bad start", Rule{Frequency: FrequencyDaily, StartsOn: "2025-13-01", EndsOn: "2025-12-31"}, ErrInvalidDate},
			{"bad end", Rule{Frequency: FrequencyDaily, StartsOn: "2025-01-01", EndsOn: "tomorrow"}, ErrInvalidDate},
			{"reversed", Rule{Frequency: FrequencyDaily, StartsOn: "2025-02-01", EndsOn: "2025-01-01"}, ErrInvalidWindow},
			{"too large", Rule{Frequency: FrequencyDaily, StartsOn: "2024-01-01", EndsOn: "2025-01-01"}, ErrWindowTooLarge},
			{"no frequency", Rule{StartsOn: "2025-01-01", EndsOn: "2025-01-02"}, ErrInvalidFrequency},
		}
		for _, tc := range cases {
			if _, err := engine.ExpandDates(tc.rule); !errors.Is(err, tc.want) {
				t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
			}
		}
	})

	t.Run("accepts a full leap year", func(t *testing.T) {
		t.Parallel()

		dates, err := engine.ExpandDates(Rule{Frequency: FrequencyDaily, StartsOn: "2024-01-01", EndsOn: "2024-12-31"})
		if err != nil {
			t.Fatalf("ExpandDates failed: %v", err)
		}
		if len(dates) != MaxDates {
			t.Fatalf("expected %d dates, got %d", MaxDates, len(dates))
		}
	})
}
