package domain

import "time"

type SecurityEventType string

const (
	EventRateLimited             SecurityEventType = "rate_limited"
	EventWebhookSignatureInvalid SecurityEventType = "webhook_signature_invalid"
	EventInvalidSlugProbe        SecurityEventType = "invalid_slug_probe"
	EventAdminAction             SecurityEventType = "admin_action"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type SecurityEvent struct {
	ID        int64
	Type      SecurityEventType
	Severity  Severity
	Source    string
	Details   map[string]any
	CreatedAt time.Time
}

// SecuritySummary aggregates security events over a window.
type SecuritySummary struct {
	Since      time.Time
	Total      int
	ByType     map[SecurityEventType]int
	BySeverity map[Severity]int
	Recent     []*SecurityEvent
}

type AuditEntry struct {
	ID         int64
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
	CreatedAt  time.Time
}
