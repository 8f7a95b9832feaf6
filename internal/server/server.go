package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"audit-service/internal/domain"
	"audit-service/internal/service"

	log "github.com/sirupsen/logrus"

	"github.com/labstack/echo/v4"
)

const serviceName = "AuditService"

type Server struct {
	eventService service.EventServiceInterface
	version      string
}

func NewServer(eventService service.EventServiceInterface, version string) *Server {
	return &Server{
		eventService: eventService,
		version:      version,
	}
}

// RegisterRoutes attaches every endpoint to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.HealthCheck)

	events := e.Group("/events")
	events.POST("", s.CreateEvent)
	events.GET("", s.ListEvents)
	events.GET("/:id", s.GetEvent)
	events.GET("/entity/:entity/:entity_id", s.ListEventsByEntity)
	events.GET("/service/:service", s.ListEventsByService)
	events.GET("/date/:start_date/:end_date", s.ListEventsByDateRange)
}

// HealthCheck always answers 200. Store reachability is probed with a
// count; the underlying error is logged, never returned to the caller.
func (s *Server) HealthCheck(c echo.Context) error {
	database := "connected"
	var totalEvents int64

	count, err := s.eventService.CountEvents(c.Request().Context())
	if err != nil {
		log.WithError(err).Error("Health check failed: audit store is unreachable")
		database = "disconnected"
	} else {
		totalEvents = count
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"service":      serviceName,
		"timestamp":    time.Now().UTC(),
		"version":      s.version,
		"database":     database,
		"total_events": totalEvents,
	})
}

func (s *Server) CreateEvent(c echo.Context) error {
	var req domain.SubmitEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	ctx := c.Request().Context()
	event, err := s.eventService.Record(ctx, req)
	if err != nil {
		var ve domain.ValidationErrors
		if errors.As(err, &ve) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
				"errors": ve.Messages(),
			})
		}
		log.WithError(err).Error("Failed to record audit event")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusCreated, event)
}

func (s *Server) GetEvent(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "event ID is required",
		})
	}

	ctx := c.Request().Context()
	event, err := s.eventService.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "audit event not found",
			})
		}
		log.WithError(err).WithField("event_id", id).Error("Failed to get audit event")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, event)
}

func (s *Server) ListEvents(c echo.Context) error {
	opts := service.ListOptions{
		Service:   c.QueryParam("service"),
		EventType: c.QueryParam("event_type"),
	}

	startParam := c.QueryParam("start_date")
	endParam := c.QueryParam("end_date")
	if startParam != "" && endParam != "" {
		start, err := parseTimestamp(startParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "invalid date format",
			})
		}
		end, err := parseTimestamp(endParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "invalid date format",
			})
		}
		opts.Start = &start
		opts.End = &end
	}

	ctx := c.Request().Context()
	events, err := s.eventService.ListEvents(ctx, opts)
	if err != nil {
		log.WithError(err).Error("Failed to list audit events")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, eventList(events))
}

func (s *Server) ListEventsByEntity(c echo.Context) error {
	entity := c.Param("entity")
	entityID, err := strconv.ParseInt(c.Param("entity_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "entity_id must be an integer",
		})
	}

	ctx := c.Request().Context()
	events, err := s.eventService.ListEventsByEntity(ctx, entity, entityID)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"entity":    entity,
			"entity_id": entityID,
		}).Error("Failed to list audit events by entity")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, eventList(events))
}

func (s *Server) ListEventsByService(c echo.Context) error {
	serviceParam := c.Param("service")

	ctx := c.Request().Context()
	events, err := s.eventService.ListEventsByService(ctx, serviceParam)
	if err != nil {
		log.WithError(err).WithField("service", serviceParam).Error("Failed to list audit events by service")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, eventList(events))
}

func (s *Server) ListEventsByDateRange(c echo.Context) error {
	start, err := parseTimestamp(c.Param("start_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid date format",
		})
	}
	end, err := parseTimestamp(c.Param("end_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid date format",
		})
	}

	ctx := c.Request().Context()
	events, err := s.eventService.ListEventsByDateRange(ctx, start, end)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDateRange) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "end date must not precede start date",
			})
		}
		log.WithError(err).Error("Failed to list audit events by date range")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, eventList(events))
}

// parseTimestamp accepts a full RFC 3339 instant or a bare ISO-8601 date,
// which reads as midnight UTC of that day.
func parseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", value)
}

// eventList keeps empty results serializing as [] instead of null.
func eventList(events []domain.Event) []domain.Event {
	if events == nil {
		return []domain.Event{}
	}
	return events
}
