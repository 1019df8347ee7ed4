package leads

import "errors"

var (
	// ErrDuplicateLead is returned when a manual entry matches an existing record.
	ErrDuplicateLead = errors.New("a lead with this email or phone already exists")

	// ErrLeadNotFound is returned when a lead is not found for the caller.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrEmptyBatch is returned when an upload produced no rows at all.
	ErrEmptyBatch = errors.New("no rows found in upload")
)
