package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Audit event types for the access-gating subsystem. Every deny, pending
// hold, and review decision is observable here so that silent
// over-restriction and silent under-restriction both leave a trace.
const (
	EventAdmissionRequestCreated = "admission.request_created"
	EventAdmissionReviewed       = "admission.reviewed"
	EventAdmissionDenied         = "admission.denied"
	EventSessionTerminated       = "session.terminated"
	EventPermissionsReplaced     = "permission.grants_replaced"
	EventDepartmentsReplaced     = "department.grants_replaced"
	EventPrincipalDeactivated    = "account.deactivated"
)

func NewAuditEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// RegisterAuditLogger subscribes a structured-log sink for every audit
// event type. This is the default consumer; external audit stores can
// subscribe alongside it.
func RegisterAuditLogger(bus *EventBus, logger *slog.Logger) {
	types := []string{
		EventAdmissionRequestCreated,
		EventAdmissionReviewed,
		EventAdmissionDenied,
		EventSessionTerminated,
		EventPermissionsReplaced,
		EventDepartmentsReplaced,
		EventPrincipalDeactivated,
	}

	for _, t := range types {
		bus.Subscribe(t, func(ctx context.Context, event Event) error {
			logger.Info("audit event",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"occurred_at", event.OccurredAt(),
				"payload", event.Payload())
			return nil
		})
	}
}
