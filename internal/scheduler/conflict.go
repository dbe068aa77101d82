package scheduler

import "slices"

// Booking is the slot-relevant projection of a scheduled appointment.
type Booking struct {
	AppointmentID int64
	BookingRef    string
	ProviderID    int64
	Date          string
	Time          string
}

// ConflictType describes why a slot cannot host a booking.
type ConflictType string

const (
	// ConflictTypeTaken indicates another booking already holds the slot.
	ConflictTypeTaken ConflictType = "taken"
	// ConflictTypeUndeclared indicates the provider never opened the slot.
	ConflictTypeUndeclared ConflictType = "undeclared"
)

// Conflict details a rejected slot that callers can present to users.
type Conflict struct {
	Type              ConflictType
	WithAppointmentID int64
	ProviderID        int64
	Date              string
	Time              string
}

// DetectConflicts checks the candidate against the provider's declared hours for
// its date and the scheduled bookings. Service lines that share the candidate's
// booking reference never conflict with each other.
func DetectConflicts(declared []string, scheduled []Booking, candidate Booking) []Conflict {
	var conflicts []Conflict
	if !slices.Contains(declared, candidate.Time) {
		conflicts = append(conflicts, Conflict{
			Type:       ConflictTypeUndeclared,
			ProviderID: candidate.ProviderID,
			Date:       candidate.Date,
			Time:       candidate.Time,
		})
	}
	for _, b := range scheduled {
		if b.ProviderID != candidate.ProviderID || b.Date != candidate.Date || b.Time != candidate.Time {
			continue
		}
		if candidate.BookingRef != "" && b.BookingRef == candidate.BookingRef {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:              ConflictTypeTaken,
			WithAppointmentID: b.AppointmentID,
			ProviderID:        b.ProviderID,
			Date:              b.Date,
			Time:              b.Time,
		})
	}
	return conflicts
}

// DetectOrphans returns the scheduled bookings whose time is no longer part of
// the declared hours for their date.
func DetectOrphans(declared []string, scheduled []Booking) []Booking {
	var orphans []Booking
	for _, b := range scheduled {
		if !slices.Contains(declared, b.Time) {
			orphans = append(orphans, b)
		}
	}
	return orphans
}
