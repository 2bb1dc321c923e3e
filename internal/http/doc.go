// Package http provides HTTP handlers and middleware for the scheduler API.
//
// The router exposes the following endpoints:
//   - POST /containers, GET /containers, GET /containers/{id},
//     DELETE /containers/{id}: schedule container management exchanging the
//     `containerDTO` payload defined in dto.go. Listing accepts the kind,
//     class_id, academic_year and status query parameters.
//   - POST /containers/{id}/publish, /activate, /archive: lifecycle
//     transitions. Publishing and activation fan out class notifications.
//   - GET /containers/{id}/slots, POST /containers/{id}/slots,
//     PUT /slots/{id}, DELETE /slots/{id}: slot management exchanging the
//     `slotDTO` payload. Overlapping writes are rejected with 409 and the
//     conflicting bookings.
//   - POST /containers/{id}/conflicts: dry-run conflict check for a slot.
//   - POST /timetables/generate: drafts a weekly timetable for a class.
//   - GET /classes/{id}/timetable/active and GET /classes/{id}/lessons?from=&to=:
//     the class's active timetable and its expansion into dated lessons.
//   - GET /classes/{id}/exams and GET /classes/{id}/assessments: published
//     exam or assessment containers with the class's slots, optionally
//     narrowed by academic_year.
//   - GET /metrics and GET /healthz.
//
// The acting principal is read from the X-User-ID and X-User-Role headers set
// by the fronting gateway.
//
// Request/response DTOs live in dto.go so tests and documentation share the
// same ground truth.
package http
