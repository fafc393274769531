package model

// NotificationType identifies the kind of event a notification describes.
type NotificationType string

const (
	TypeNewOrder    NotificationType = "new_order"
	TypeOrderStatus NotificationType = "order_status"
	TypeNewMessage  NotificationType = "new_message"
	TypeNewReview   NotificationType = "new_review"
	TypeNewUser     NotificationType = "new_user"
)

// Priority is the urgency level of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank returns the ordinal value of a priority for sorting and
// max-of-set computations (high > medium > low).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// MaxPriority returns the higher of two priorities.
func MaxPriority(a, b Priority) Priority {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// SourceRefs links a notification back to the records that produced it.
// At most one field is set for an ungrouped notification.
type SourceRefs struct {
	OrderID   string `json:"order_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	ReviewID  string `json:"review_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// Notification is the unit delivered to consumers of the engine.
type Notification struct {
	// ID is globally unique and deterministic from the source record
	// and transition, so the same real-world event maps to the same
	// ID across polls.
	ID string `json:"id"`

	// Type identifies the kind of event.
	Type NotificationType `json:"type"`

	// Title is the short human-readable headline.
	Title string `json:"title"`

	// Message is the full human-readable notification text.
	Message string `json:"message"`

	// Priority is the urgency level.
	Priority Priority `json:"priority"`

	// Timestamp is the event time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`

	// Time is a coarse relative display string ("5m ago"), computed
	// at publish time.
	Time string `json:"time"`

	// Status carries the order status for order-related notifications;
	// it also feeds the grouping key so distinct transitions are never
	// merged together.
	Status string `json:"status,omitempty"`

	// SourceRefs links back to the originating record.
	SourceRefs SourceRefs `json:"source_refs"`

	// Grouped reports whether this entry merges several notifications.
	Grouped bool `json:"grouped,omitempty"`

	// Count is the number of merged members; 1 when not grouped.
	Count int `json:"count"`

	// Members holds the merged notifications, only when Grouped.
	Members []Notification `json:"members,omitempty"`
}
