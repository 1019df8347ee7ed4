package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/leadlinehq/leadline/pkg/logging"
)

// RecipientResolver maps a client id to the email address that should
// receive account notifications.
type RecipientResolver interface {
	RecipientFor(ctx context.Context, clientID string) (string, error)
}

// FixedRecipient resolves every client to the same address. Useful for
// single-operator deployments and tests.
type FixedRecipient string

func (f FixedRecipient) RecipientFor(_ context.Context, _ string) (string, error) {
	if f == "" {
		return "", fmt.Errorf("notify: no recipient configured")
	}
	return string(f), nil
}

// Service sends account notifications. Delivery is fire-and-forget: the
// caller's request must never fail because an email did.
type Service struct {
	email     EmailSender
	resolver  RecipientResolver
	logger    *logging.Logger
	timeout   time.Duration
	afterSend func() // test hook, called when the async send finishes
}

// NewService creates a notification service. A nil email sender or resolver
// disables delivery.
func NewService(email EmailSender, resolver RecipientResolver, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:    email,
		resolver: resolver,
		logger:   logger,
		timeout:  15 * time.Second,
	}
}

// NotifyImportSummary emails the account owner the outcome of a bulk upload.
func (s *Service) NotifyImportSummary(clientID string, processed, valid, invalid, duplicates int) {
	if s == nil || s.email == nil || s.resolver == nil {
		return
	}

	go func() {
		if s.afterSend != nil {
			defer s.afterSend()
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		to, err := s.resolver.RecipientFor(ctx, clientID)
		if err != nil {
			s.logger.Warn("notify: no recipient for import summary", "error", err, "client_id", clientID)
			return
		}

		msg := EmailMessage{
			To:      to,
			Subject: fmt.Sprintf("Lead import finished: %d processed", processed),
			Body: fmt.Sprintf(`Your lead import has finished.

Processed: %d
Valid: %d
Invalid: %d
Duplicates: %d

Valid leads are already in your collection. Invalid and duplicate rows were
skipped and are listed in the import report on your dashboard.

— Leadline`, processed, valid, invalid, duplicates),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: import summary send failed", "error", err, "client_id", clientID)
			return
		}
		s.logger.Info("notify: import summary sent", "to", to, "client_id", clientID)
	}()
}
