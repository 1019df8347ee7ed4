// Package partners manages the admin-curated directory of referral partners
// that resell lead lists into assigned territories.
package partners

import (
	"errors"
	"time"
)

// Status is the review state of a partner.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusRejected  Status = "rejected"
)

var (
	ErrPartnerNotFound   = errors.New("partner not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// transitions maps each status to its allowed successors. Rejected is
// terminal.
var transitions = map[Status]map[Status]struct{}{
	StatusPending:   {StatusApproved: {}, StatusRejected: {}},
	StatusApproved:  {StatusActive: {}, StatusRejected: {}},
	StatusActive:    {StatusSuspended: {}},
	StatusSuspended: {StatusActive: {}},
	StatusRejected:  {},
}

// ValidStatus reports whether s is a known partner status.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a partner may move from one status to
// another.
func CanTransition(from, to Status) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Partner is one referral partner.
type Partner struct {
	ID           string    `json:"id"`
	CompanyName  string    `json:"company_name"`
	ContactName  string    `json:"contact_name"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone"`
	Territories  []string  `json:"territories"`
	Status       Status    `json:"status"`
	Notes        string    `json:"notes"`
	Timeline     []Event   `json:"timeline,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Event is one entry in a partner's review timeline.
type Event struct {
	ID        int64     `json:"id"`
	PartnerID string    `json:"partner_id"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePartnerRequest is the request body for registering a partner.
type CreatePartnerRequest struct {
	CompanyName  string   `json:"company_name"`
	ContactName  string   `json:"contact_name"`
	ContactEmail string   `json:"contact_email"`
	ContactPhone string   `json:"contact_phone"`
	Territories  []string `json:"territories"`
	Notes        string   `json:"notes"`
}
