package messaging

import (
	"context"
	"sync"

	"github.com/leadlinehq/leadline/pkg/logging"
)

// StubSender records messages instead of delivering them. Used when no SMS
// credentials are configured and in tests.
type StubSender struct {
	mu     sync.Mutex
	sent   []OutboundMessage
	logger *logging.Logger
}

func NewStubSender(logger *logging.Logger) *StubSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSender{logger: logger}
}

var _ Sender = (*StubSender)(nil)

func (s *StubSender) Send(_ context.Context, msg OutboundMessage) error {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	s.logger.Info("stub sms recorded", "client_id", msg.ClientID, "to", msg.To)
	return nil
}

// Sent returns a copy of everything recorded so far.
func (s *StubSender) Sent() []OutboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OutboundMessage, len(s.sent))
	copy(out, s.sent)
	return out
}
