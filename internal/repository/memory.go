package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"audit-service/internal/domain"

	"github.com/google/uuid"
)

// MemoryEventRepository is an in-memory append-only store with the same
// semantics as the Postgres repository. It backs tests and local runs
// without a database.
type MemoryEventRepository struct {
	mu      sync.Mutex
	events  []domain.Event
	nextSeq int64
}

func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{}
}

func (r *MemoryEventRepository) Append(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSeq++
	now := time.Now().UTC()

	event.ID = uuid.NewString()
	event.Seq = r.nextSeq
	event.CreatedAt = now
	event.UpdatedAt = now

	r.events = append(r.events, *event)
	return nil
}

func (r *MemoryEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.events {
		if r.events[i].ID == id {
			event := r.events[i]
			return &event, nil
		}
	}
	return nil, domain.ErrEventNotFound
}

func (r *MemoryEventRepository) Query(ctx context.Context, filter domain.EventFilter, limit int) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []domain.Event
	for _, event := range r.events {
		if matchesFilter(event, filter) {
			matched = append(matched, event)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].Seq < matched[j].Seq
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryEventRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.events)), nil
}

func (r *MemoryEventRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.events[:0]
	var deleted int64
	for _, event := range r.events {
		if event.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, event)
	}
	r.events = kept
	return deleted, nil
}

func matchesFilter(event domain.Event, filter domain.EventFilter) bool {
	if filter.Entity != "" && (event.Entity != filter.Entity || event.EntityID != filter.EntityID) {
		return false
	}
	if filter.Service != "" && event.Service != filter.Service {
		return false
	}
	if filter.EventType != "" && event.EventType != filter.EventType {
		return false
	}
	if filter.Start != nil && event.Timestamp.Before(*filter.Start) {
		return false
	}
	if filter.End != nil && event.Timestamp.After(*filter.End) {
		return false
	}
	return true
}
