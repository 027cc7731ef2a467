package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrConstraintViolation is returned when a check constraint rejects a write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrOverlap is returned by guarded booking writes when the target
	// interval is no longer free at commit time.
	ErrOverlap = errors.New("persistence: interval already booked")
	// ErrVersionConflict is returned when an optimistic-concurrency update
	// observes a stale version.
	ErrVersionConflict = errors.New("persistence: version conflict")
)
