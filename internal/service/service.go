package service

import (
	"context"
	"time"

	"audit-service/internal/domain"
	"audit-service/internal/repository"

	log "github.com/sirupsen/logrus"
)

// Server-side result ceilings. Client-requested limits never raise these;
// they bound response size regardless of how many records match.
const (
	ListLimit      = 100
	EntityLimit    = 50
	ServiceLimit   = 100
	DateRangeLimit = 200
)

type EventServiceInterface interface {
	Record(ctx context.Context, req domain.SubmitEventRequest) (*domain.Event, error)
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	ListEvents(ctx context.Context, opts ListOptions) ([]domain.Event, error)
	ListEventsByEntity(ctx context.Context, entity string, entityID int64) ([]domain.Event, error)
	ListEventsByService(ctx context.Context, service string) ([]domain.Event, error)
	ListEventsByDateRange(ctx context.Context, start, end time.Time) ([]domain.Event, error)
	CountEvents(ctx context.Context) (int64, error)
	PurgeEventsOlderThan(ctx context.Context, maxAge time.Duration) (int64, error)
}

// ListOptions are the optional filters of the generic listing endpoint.
// All set criteria are applied together.
type ListOptions struct {
	Service   string
	EventType string
	Start     *time.Time
	End       *time.Time
}

// EventStream mirrors persisted events to downstream consumers. Mirroring
// is best-effort; failures never affect ingestion.
type EventStream interface {
	Publish(ctx context.Context, event domain.Event) error
}

type EventService struct {
	eventRepository repository.EventRepository
	stream          EventStream
	clock           func() time.Time
}

func NewEventService(eventRepository repository.EventRepository, stream EventStream) *EventService {
	return &EventService{
		eventRepository: eventRepository,
		stream:          stream,
		clock:           time.Now,
	}
}

// Record validates and persists one submission. Exactly one append happens
// per valid submission; there is no deduplication, so a producer retrying
// after a lost response legitimately creates a duplicate record.
func (s *EventService) Record(ctx context.Context, req domain.SubmitEventRequest) (*domain.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	timestamp := s.clock().UTC()
	if req.Timestamp != nil && !req.Timestamp.IsZero() {
		timestamp = req.Timestamp.UTC()
	}

	event := &domain.Event{
		EventType: req.EventType,
		Entity:    req.Entity,
		EntityID:  req.EntityID,
		Details:   req.Details,
		Service:   req.Service,
		Timestamp: timestamp,
		UserID:    req.UserID,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		Metadata:  req.Metadata,
	}

	if err := s.eventRepository.Append(ctx, event); err != nil {
		return nil, err
	}

	if s.stream != nil {
		if err := s.stream.Publish(ctx, *event); err != nil {
			log.WithError(err).WithField("event_id", event.ID).Warn("Failed to mirror audit event to stream")
		}
	}

	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	return s.eventRepository.GetByID(ctx, id)
}

func (s *EventService) ListEvents(ctx context.Context, opts ListOptions) ([]domain.Event, error) {
	filter := domain.EventFilter{
		Service:   opts.Service,
		EventType: opts.EventType,
		Start:     opts.Start,
		End:       opts.End,
	}
	return s.eventRepository.Query(ctx, filter, ListLimit)
}

func (s *EventService) ListEventsByEntity(ctx context.Context, entity string, entityID int64) ([]domain.Event, error) {
	filter := domain.EventFilter{Entity: entity, EntityID: entityID}
	return s.eventRepository.Query(ctx, filter, EntityLimit)
}

func (s *EventService) ListEventsByService(ctx context.Context, service string) ([]domain.Event, error) {
	filter := domain.EventFilter{Service: service}
	return s.eventRepository.Query(ctx, filter, ServiceLimit)
}

func (s *EventService) ListEventsByDateRange(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	if end.Before(start) {
		return nil, domain.ErrInvalidDateRange
	}
	filter := domain.EventFilter{Start: &start, End: &end}
	return s.eventRepository.Query(ctx, filter, DateRangeLimit)
}

func (s *EventService) CountEvents(ctx context.Context) (int64, error) {
	return s.eventRepository.Count(ctx)
}

func (s *EventService) PurgeEventsOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.clock().UTC().Add(-maxAge)
	return s.eventRepository.PurgeOlderThan(ctx, cutoff)
}
