// Package http provides HTTP handlers and middleware for the scheduling API.
//
// The router exposes the following endpoints under the /api prefix:
//   - GET /health: liveness probe.
//   - POST /participants, GET /participants, GET/PUT/DELETE /participants/{id}:
//     participant management exchanging the `participantDTO` payload defined in
//     participant_handler.go. GET accepts an id or an email address.
//   - GET/PUT /participants/{id}/policy: the participant's working-hours policy
//     as a seven day window array indexed Sunday through Saturday.
//   - POST/GET /participants/{id}/blocks, DELETE /blocks/{id}: blocked interval
//     management. Listing accepts `from` and `to` query bounds.
//   - GET /participants/{id}/bookings: bookings filtered by `from`, `to` and a
//     comma separated `statuses` query parameter.
//   - POST /availability: slot computation for one participant honoring
//     weekday, band, clock-range and week preferences.
//   - POST /availability/conflicts: conflict check for a proposed interval,
//     optionally expanding a natural-language recurrence hint into a series.
//     Conflicting checks return alternatives near the requested time.
//   - POST /recurrence/parse: turns a natural-language recurrence phrase into
//     a structured descriptor, its compact rule string and, when an anchor
//     interval is supplied, the expanded instances.
//   - POST /groups/availability, POST /groups/check: mutual free-slot search
//     and per-participant conflict detail for a specific time. Participant
//     lists may mix internal ids with external email addresses.
//   - POST /teams, GET /teams, GET/PUT/DELETE /teams/{id}: team management.
//     POST /teams/{id}/members and DELETE /teams/{id}/members/{memberID}
//     manage the roster, POST /teams/{id}/assign picks a member for an
//     interval by the team's strategy, and GET /teams/{id}/fairness reports
//     load distribution.
//   - POST /sessions, GET /sessions/{id}: negotiation sessions opened from a
//     free-text utterance or a structured request. POST /sessions/{id}/select
//     confirms a proposed slot, POST /sessions/{id}/reschedule rejects the
//     current proposals, and POST /sessions/{id}/cancel closes the session.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
