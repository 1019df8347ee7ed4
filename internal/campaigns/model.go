// Package campaigns manages outreach campaigns and their test sends.
package campaigns

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a campaign.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusArchived  Status = "archived"
)

var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// transitions maps each status to the set it may move to. Archived is
// terminal.
var transitions = map[Status]map[Status]struct{}{
	StatusDraft:     {StatusScheduled: {}, StatusActive: {}, StatusArchived: {}},
	StatusScheduled: {StatusActive: {}, StatusDraft: {}, StatusArchived: {}},
	StatusActive:    {StatusPaused: {}, StatusArchived: {}},
	StatusPaused:    {StatusActive: {}, StatusArchived: {}},
	StatusArchived:  {},
}

// ValidStatus reports whether s is a known campaign status.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a campaign may move from one status to
// another.
func CanTransition(from, to Status) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Campaign is one outreach campaign owned by a client.
type Campaign struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"client_id"`
	Name        string     `json:"name"`
	Message     string     `json:"message"`
	Status      Status     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateCampaignRequest is the request body for creating a campaign.
type CreateCampaignRequest struct {
	Name        string     `json:"name"`
	Message     string     `json:"message"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// UpdateCampaignRequest is the request body for editing campaign content.
type UpdateCampaignRequest struct {
	Name        string     `json:"name"`
	Message     string     `json:"message"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}
