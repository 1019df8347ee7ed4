package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage. InsertBatch is the only
// write path for new records: manual entry is a batch of one. Implementations
// must apply the whole batch atomically or not at all.
type Repository interface {
	InsertBatch(ctx context.Context, clientID string, batch []*Lead) error
	ListByClient(ctx context.Context, clientID string) ([]*Lead, error)
	FindByContact(ctx context.Context, clientID, emailNorm, phoneNorm string) ([]*Lead, error)
	Delete(ctx context.Context, clientID, id string) (bool, error)
}

// InMemoryRepository is a Repository backed by process memory, used in tests
// and local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	byClient map[string][]*Lead
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byClient: make(map[string][]*Lead),
	}
}

// InsertBatch assigns identifiers and stores every record in the batch.
func (r *InMemoryRepository) InsertBatch(ctx context.Context, clientID string, batch []*Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, lead := range batch {
		lead.ID = uuid.NewString()
		lead.ClientID = clientID
		if lead.CreatedAt.IsZero() {
			lead.CreatedAt = time.Now().UTC()
		}
		stored := *lead
		r.byClient[clientID] = append(r.byClient[clientID], &stored)
	}
	return nil
}

// ListByClient returns the client's records newest-first.
func (r *InMemoryRepository) ListByClient(ctx context.Context, clientID string) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byClient[clientID]
	out := make([]*Lead, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		copied := *stored[i]
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// FindByContact returns records matching the normalized email or phone,
// scoped to the client. Empty values never match.
func (r *InMemoryRepository) FindByContact(ctx context.Context, clientID, emailNorm, phoneNorm string) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Lead
	for _, lead := range r.byClient[clientID] {
		if (emailNorm != "" && NormalizeEmail(lead.Email) == emailNorm) ||
			(phoneNorm != "" && NormalizePhone(lead.Phone) == phoneNorm) {
			copied := *lead
			out = append(out, &copied)
		}
	}
	return out, nil
}

// Delete removes one record by id, scoped to the client. Deleting a record
// owned by someone else is not an error; it simply affects nothing.
func (r *InMemoryRepository) Delete(ctx context.Context, clientID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.byClient[clientID]
	for i, lead := range stored {
		if lead.ID == id {
			r.byClient[clientID] = append(stored[:i], stored[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
