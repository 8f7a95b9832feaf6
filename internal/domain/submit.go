package domain

import (
	"fmt"
	"strings"
	"time"
)

// FieldError describes a single failed validation on a submission field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ValidationErrors collects every failed check so producers see all
// problems in one response instead of fixing them one at a time.
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Messages returns the human-readable error list for the 422 response body.
func (ve ValidationErrors) Messages() []string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return msgs
}

// SubmitEventRequest is one event submission from a producer service.
type SubmitEventRequest struct {
	EventType string                 `json:"event_type"`
	Entity    string                 `json:"entity"`
	EntityID  int64                  `json:"entity_id"`
	Details   string                 `json:"details"`
	Service   string                 `json:"service"`
	Timestamp *time.Time             `json:"timestamp,omitempty"`
	UserID    *int64                 `json:"user_id,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Validate checks the submission against the record invariants. ERROR
// events may carry entity_id 0, meaning "no valid entity" (error-path
// events often describe a rejected identifier); every other type requires
// a positive entity_id.
func (r *SubmitEventRequest) Validate() error {
	var ve ValidationErrors

	if r.EventType == "" {
		ve = append(ve, FieldError{Field: "event_type", Message: "is required"})
	} else if !isValidEventType(r.EventType) {
		ve = append(ve, FieldError{
			Field:   "event_type",
			Message: fmt.Sprintf("must be one of %s", strings.Join(ValidEventTypes(), ", ")),
		})
	}

	if r.Entity == "" {
		ve = append(ve, FieldError{Field: "entity", Message: "is required"})
	}

	switch {
	case r.EventType == EventTypeError:
		if r.EntityID < 0 {
			ve = append(ve, FieldError{Field: "entity_id", Message: "must not be negative"})
		}
	case r.EntityID <= 0:
		ve = append(ve, FieldError{Field: "entity_id", Message: "must be greater than 0"})
	}

	if r.Details == "" {
		ve = append(ve, FieldError{Field: "details", Message: "is required"})
	}

	if r.Service == "" {
		ve = append(ve, FieldError{Field: "service", Message: "is required"})
	}

	for key, value := range r.Metadata {
		if !isScalarMetadataValue(value) {
			ve = append(ve, FieldError{
				Field:   "metadata." + key,
				Message: "must be a scalar value (string, number, or boolean)",
			})
		}
	}

	if len(ve) > 0 {
		return ve
	}
	return nil
}

func isValidEventType(eventType string) bool {
	for _, t := range ValidEventTypes() {
		if eventType == t {
			return true
		}
	}
	return false
}

// Metadata is a flat string-to-scalar mapping so serialization stays
// deterministic across producers in different languages. Nested structures
// are rejected at ingestion.
func isScalarMetadataValue(value interface{}) bool {
	switch value.(type) {
	case nil, string, bool,
		float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}
