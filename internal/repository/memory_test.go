package repository

import (
	"context"
	"testing"
	"time"

	"audit-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendEvent(t *testing.T, repo *MemoryEventRepository, event domain.Event) domain.Event {
	t.Helper()
	require.NoError(t, repo.Append(context.Background(), &event))
	return event
}

func TestMemoryAppendAssignsStoreFields(t *testing.T) {
	repo := NewMemoryEventRepository()

	event := appendEvent(t, repo, domain.Event{
		EventType: domain.EventTypeCreate,
		Entity:    "Client",
		EntityID:  1,
		Details:   "Client created",
		Service:   "ClientService",
		Timestamp: time.Now().UTC(),
	})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, int64(1), event.Seq)
	assert.False(t, event.CreatedAt.IsZero())
	assert.False(t, event.UpdatedAt.IsZero())

	got, err := repo.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, event, *got)
}

func TestMemoryGetByIDNotFound(t *testing.T) {
	repo := NewMemoryEventRepository()

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestMemoryQueryFiltersAreConjunctive(t *testing.T) {
	repo := NewMemoryEventRepository()
	now := time.Now().UTC()

	appendEvent(t, repo, domain.Event{
		EventType: domain.EventTypeCreate, Entity: "Invoice", EntityID: 1,
		Details: "Invoice created", Service: "InvoiceService", Timestamp: now,
	})
	appendEvent(t, repo, domain.Event{
		EventType: domain.EventTypeCreate, Entity: "Client", EntityID: 2,
		Details: "Client created", Service: "ClientService", Timestamp: now,
	})

	events, err := repo.Query(context.Background(), domain.EventFilter{Entity: "Invoice", EntityID: 1}, 50)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Invoice", events[0].Entity)

	events, err = repo.Query(context.Background(), domain.EventFilter{
		Service:   "ClientService",
		EventType: domain.EventTypeCreate,
	}, 50)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ClientService", events[0].Service)

	events, err = repo.Query(context.Background(), domain.EventFilter{
		Service:   "ClientService",
		EventType: domain.EventTypeDelete,
	}, 50)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestMemoryQueryOrdersMostRecentFirst(t *testing.T) {
	repo := NewMemoryEventRepository()
	base := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	older := appendEvent(t, repo, domain.Event{
		EventType: domain.EventTypeCreate, Entity: "Client", EntityID: 1,
		Details: "first", Service: "ClientService", Timestamp: base,
	})
	newer := appendEvent(t, repo, domain.Event{
		EventType: domain.EventTypeUpdate, Entity: "Client", EntityID: 1,
		Details: "second", Service: "ClientService", Timestamp: base.Add(5 * time.Minute),
	})

	events, err := repo.Query(context.Background(), domain.EventFilter{Service: "ClientService"}, 100)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, newer.ID, events[0].ID)
	assert.Equal(t, older.ID, events[1].ID)
}

func TestMemoryQueryBreaksTimestampTiesByInsertionOrder(t *testing.T) {
	repo := NewMemoryEventRepository()
	ts := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	var inserted []string
	for i := 0; i < 5; i++ {
		event := appendEvent(t, repo, domain.Event{
			EventType: domain.EventTypeRead, Entity: "Client", EntityID: 1,
			Details: "read", Service: "ClientService", Timestamp: ts,
		})
		inserted = append(inserted, event.ID)
	}

	for run := 0; run < 3; run++ {
		events, err := repo.Query(context.Background(), domain.EventFilter{Service: "ClientService"}, 100)
		require.NoError(t, err)
		require.Len(t, events, 5)
		for i, event := range events {
			assert.Equal(t, inserted[i], event.ID)
		}
	}
}

func TestMemoryQueryTimestampRangeIsInclusive(t *testing.T) {
	repo := NewMemoryEventRepository()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	inside := appendEvent(t, repo, domain.Event{
		EventType: domain.EventTypeCreate, Entity: "Client", EntityID: 1,
		Details: "at start", Service: "ClientService", Timestamp: start,
	})
	appendEvent(t, repo, domain.Event{
		EventType: domain.EventTypeCreate, Entity: "Client", EntityID: 2,
		Details: "after end", Service: "ClientService", Timestamp: end.Add(time.Second),
	})

	events, err := repo.Query(context.Background(), domain.EventFilter{Start: &start, End: &end}, 200)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, inside.ID, events[0].ID)
}

func TestMemoryQueryRespectsLimit(t *testing.T) {
	repo := NewMemoryEventRepository()
	now := time.Now().UTC()

	for i := 0; i < 10; i++ {
		appendEvent(t, repo, domain.Event{
			EventType: domain.EventTypeCreate, Entity: "Client", EntityID: int64(i + 1),
			Details: "created", Service: "ClientService", Timestamp: now.Add(time.Duration(i) * time.Second),
		})
	}

	events, err := repo.Query(context.Background(), domain.EventFilter{}, 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestMemoryPurgeOlderThan(t *testing.T) {
	repo := NewMemoryEventRepository()
	cutoff := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	appendEvent(t, repo, domain.Event{
		EventType: domain.EventTypeCreate, Entity: "Client", EntityID: 1,
		Details: "old", Service: "ClientService", Timestamp: cutoff.Add(-time.Hour),
	})
	recent := appendEvent(t, repo, domain.Event{
		EventType: domain.EventTypeCreate, Entity: "Client", EntityID: 2,
		Details: "recent", Service: "ClientService", Timestamp: cutoff.Add(time.Hour),
	})

	deleted, err := repo.PurgeOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repo.GetByID(context.Background(), recent.ID)
	assert.NoError(t, err)
}
