// Package http exposes the booking services over JSON.
//
// The router exposes the following endpoints:
//   - POST /sessions: authenticates {"email","password"} and returns
//     {"token","expires_at","user"}. POST /users registers a customer and returns
//     the same shape. Both are rate limited per client address.
//   - GET /sessions/current, DELETE /sessions/current: the bearer's account and
//     sign-out.
//   - GET /providers, GET /services, GET /quote?service_id=..: the catalog.
//   - GET /providers/{id}/availability, GET /providers/{id}/dates and
//     GET /providers/{id}/availability/{date}/hours: declared records, bookable
//     dates and live open hours.
//   - PUT and DELETE /providers/{id}/availability/{date}: the owning provider
//     replaces or clears the hours of one date. Responses list Scheduled
//     appointments the new hours no longer cover.
//   - GET /appointments, POST /appointments: listing scoped to the caller and
//     booking of one slot for one or more services.
//   - GET /healthz and GET /metrics.
//
// Request/response DTOs live in dto.go and next to their handlers.
package http
