package recurrence

import (
	"testing"
	"time"
)

func BenchmarkEngineExpandDates(b *testing.B) {
	engine := NewEngine()
	rule := Rule{
		Frequency: FrequencyWeekly,
		Weekdays: []time.Weekday{
			time.Tuesday,
			time.Wednesday,
			time.Thursday,
			time.Friday,
			time.Saturday,
		},
		StartsOn: "2025-01-01",
		EndsOn:   "2025-12-31",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.ExpandDates(rule); err != nil {
			b.Fatalf("ExpandDates failed: %v", err)
		}
	}
}
