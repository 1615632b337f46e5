package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "idverify/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// Sinks may route or retain categories differently.
type EventCategory string

const (
	// CategoryCompliance covers reviewer decisions and submissions: anything a
	// regulator could ask to see for a KYC/KYB outcome.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers policy changes and reviewer actions on evidence.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine document churn.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Category  EventCategory
	Timestamp time.Time
	// UserID is the owner of the verification record the event is about.
	UserID id.UserID
	// Subject is the verification record (or setting name) acted on.
	Subject  string
	Action   string
	Persona  string
	Decision string
	Reason   string
	// ActorID is set when someone other than the owner acted, e.g. a reviewer.
	ActorID   string
	RequestID string
	ClientIP  string
	Device    string
}

type AuditEvent string

const (
	EventSubmitted   AuditEvent = "verification_submitted"
	EventResubmitted AuditEvent = "verification_resubmitted"
	EventPreApproved AuditEvent = "verification_pre_approved"
	EventApproved    AuditEvent = "verification_approved"
	EventDenied      AuditEvent = "verification_denied"

	EventProfileSaved     AuditEvent = "profile_saved"
	EventDocumentAttached AuditEvent = "document_attached"
	EventDocumentDetached AuditEvent = "document_detached"
	EventDocumentVerified AuditEvent = "document_verified"

	EventSettingsUpdated AuditEvent = "settings_updated"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventSubmitted:   CategoryCompliance,
	EventResubmitted: CategoryCompliance,
	EventPreApproved: CategoryCompliance,
	EventApproved:    CategoryCompliance,
	EventDenied:      CategoryCompliance,

	EventDocumentVerified: CategorySecurity,
	EventSettingsUpdated:  CategorySecurity,

	EventProfileSaved:     CategoryOperations,
	EventDocumentAttached: CategoryOperations,
	EventDocumentDetached: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Sink accepts audit events. Kafka publishers are write-only sinks.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a queryable Sink.
type Store interface {
	Sink
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
