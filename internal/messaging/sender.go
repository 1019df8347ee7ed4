// Package messaging sends outbound SMS for campaign test sends.
package messaging

import "context"

// OutboundMessage is one SMS to deliver.
type OutboundMessage struct {
	ClientID string
	To       string
	From     string
	Body     string
	Metadata map[string]string
}

// Sender delivers a single outbound message.
type Sender interface {
	Send(ctx context.Context, msg OutboundMessage) error
}
