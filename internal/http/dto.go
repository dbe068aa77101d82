package http

import (
	"time"

	"github.com/example/barbershop-booking/internal/application"
	"github.com/example/barbershop-booking/internal/seed"
)

type userDTO struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	Phone     *string `json:"phone,omitempty"`
	PhotoURL  string  `json:"photo_url"`
	CreatedAt string  `json:"created_at"`
}

type providerDTO struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	PhotoURL string  `json:"photo_url"`
	Rating   float64 `json:"rating"`
}

type serviceDTO struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
}

type quoteDTO struct {
	Services             []serviceDTO `json:"services"`
	TotalPriceCents      int64        `json:"total_price_cents"`
	TotalDurationMinutes int          `json:"total_duration_minutes"`
}

type slotDTO struct {
	ProviderID int64    `json:"provider_id"`
	Date       string   `json:"date"`
	Hours      []string `json:"hours"`
}

type orphanDTO struct {
	AppointmentID int64  `json:"appointment_id"`
	CustomerID    int64  `json:"customer_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

type availabilityWriteResponse struct {
	slotDTO
	Orphaned []orphanDTO `json:"orphaned"`
}

type appointmentDTO struct {
	ID         int64  `json:"id"`
	BookingRef string `json:"booking_ref"`
	CustomerID int64  `json:"customer_id"`
	ProviderID int64  `json:"provider_id"`
	ServiceID  int64  `json:"service_id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

type sessionResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at"`
	User      userDTO `json:"user"`
}

// photoOrDefault substitutes the default photo at the presentation boundary only.
func photoOrDefault(url *string) string {
	if url == nil || *url == "" {
		return seed.DefaultPhotoURL
	}
	return *url
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toUserDTO(u application.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Phone:     u.Phone,
		PhotoURL:  photoOrDefault(u.PhotoURL),
		CreatedAt: formatTimestamp(u.CreatedAt),
	}
}

func toProviderDTO(p application.Provider) providerDTO {
	return providerDTO{ID: p.ID, Name: p.Name, PhotoURL: photoOrDefault(p.PhotoURL), Rating: p.Rating}
}

func toServiceDTO(s application.Service) serviceDTO {
	return serviceDTO{ID: s.ID, Name: s.Name, PriceCents: s.PriceCents, DurationMinutes: s.DurationMinutes}
}

func toQuoteDTO(q application.Quote) quoteDTO {
	services := make([]serviceDTO, 0, len(q.Services))
	for _, s := range q.Services {
		services = append(services, toServiceDTO(s))
	}
	return quoteDTO{Services: services, TotalPriceCents: q.TotalPriceCents, TotalDurationMinutes: q.TotalDurationMinutes}
}

func toSlotDTO(s application.AvailabilitySlot) slotDTO {
	hours := s.Hours
	if hours == nil {
		hours = []string{}
	}
	return slotDTO{ProviderID: s.ProviderID, Date: s.Date, Hours: hours}
}

func toAvailabilityWriteResponse(s application.AvailabilitySlot, orphans []application.OrphanedAppointment) availabilityWriteResponse {
	out := availabilityWriteResponse{slotDTO: toSlotDTO(s), Orphaned: make([]orphanDTO, 0, len(orphans))}
	for _, o := range orphans {
		out.Orphaned = append(out.Orphaned, orphanDTO{AppointmentID: o.AppointmentID, CustomerID: o.CustomerID, Date: o.Date, Time: o.Time})
	}
	return out
}

func toAppointmentDTO(a application.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:         a.ID,
		BookingRef: a.BookingRef,
		CustomerID: a.CustomerID,
		ProviderID: a.ProviderID,
		ServiceID:  a.ServiceID,
		Date:       a.Date,
		Time:       a.Time,
		Status:     string(a.Status),
		CreatedAt:  formatTimestamp(a.CreatedAt),
	}
}

func toAppointmentDTOs(in []application.Appointment) []appointmentDTO {
	out := make([]appointmentDTO, 0, len(in))
	for _, a := range in {
		out = append(out, toAppointmentDTO(a))
	}
	return out
}
