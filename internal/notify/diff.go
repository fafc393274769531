package notify

import (
	"fmt"
	"time"

	"github.com/nhle/restaurant-notify/internal/model"
)

// freshnessWindow bounds how old a record may be and still be announced
// as "new". It prevents unbounded backlog replay after long idle periods.
const freshnessWindow = 24 * time.Hour

// importantStatuses are the order statuses worth announcing to customers.
var importantStatuses = map[string]bool{
	model.OrderStatusConfirmed:  true,
	model.OrderStatusPreparing:  true,
	model.OrderStatusReady:      true,
	model.OrderStatusOnDelivery: true,
	model.OrderStatusCompleted:  true,
	model.OrderStatusCancelled:  true,
}

// statusTitle maps an order status to its notification headline.
var statusTitle = map[string]string{
	model.OrderStatusConfirmed:  "Order Confirmed",
	model.OrderStatusPreparing:  "Order Being Prepared",
	model.OrderStatusReady:      "Order Ready",
	model.OrderStatusOnDelivery: "Order On the Way",
	model.OrderStatusCompleted:  "Order Completed",
	model.OrderStatusCancelled:  "Order Cancelled",
}

// statusPhrase is the past/progressive phrase used in message bodies.
var statusPhrase = map[string]string{
	model.OrderStatusConfirmed:  "has been confirmed",
	model.OrderStatusPreparing:  "is being prepared",
	model.OrderStatusReady:      "is ready for pickup",
	model.OrderStatusOnDelivery: "is out for delivery",
	model.OrderStatusCompleted:  "has been completed",
	model.OrderStatusCancelled:  "has been cancelled",
}

func statusPriority(status string) model.Priority {
	switch status {
	case model.OrderStatusCancelled:
		return model.PriorityHigh
	case model.OrderStatusCompleted:
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

// Deterministic notification IDs: the same real-world event always maps
// to the same ID across polls, which is what makes the read/deleted
// marker sets meaningful across restarts.
func orderNotificationID(o model.Order, status string) string {
	return fmt.Sprintf("order-%s-%s-%d", o.ID, status, o.CreatedAt.UnixMilli())
}

func messageNotificationID(m model.Message) string {
	return fmt.Sprintf("message-%s-%d", m.ID, m.CreatedAt.UnixMilli())
}

func reviewNotificationID(r model.Review) string {
	return fmt.Sprintf("review-%s-%d", r.ID, r.CreatedAt.UnixMilli())
}

func userNotificationID(u model.User) string {
	return fmt.Sprintf("user-%s-%d", u.ID, u.CreatedAt.UnixMilli())
}

func fresh(createdAt, now time.Time) bool {
	if createdAt.IsZero() {
		return false
	}
	return now.Sub(createdAt) < freshnessWindow
}

// diffOwnOrders computes status-transition notifications for the
// customer's own orders. The tracked status is updated for every
// observed order, emitted or not, so a later identical state is never
// re-announced. Deleted IDs are skipped but still tracked, so future
// legitimate transitions are not silently lost once deleted.
func diffOwnOrders(
	orders []model.Order,
	tracked *TrackedState,
	deleted map[string]int64,
	now time.Time,
) []model.Notification {
	var out []model.Notification

	for _, o := range orders {
		prev, known := tracked.LastStatus[o.ID]
		tracked.LastStatus[o.ID] = o.Status

		emit := false
		switch {
		case known && prev != o.Status && importantStatuses[o.Status]:
			emit = true
		case !known && importantStatuses[o.Status] &&
			o.Status != model.OrderStatusPending && fresh(o.CreatedAt, now):
			emit = true
		}
		if !emit {
			continue
		}

		id := orderNotificationID(o, o.Status)
		if _, gone := deleted[id]; gone {
			continue
		}

		out = append(out, model.Notification{
			ID:       id,
			Type:     model.TypeOrderStatus,
			Title:    statusTitle[o.Status],
			Message:  fmt.Sprintf("Your order #%s %s.", o.OrderNumber, statusPhrase[o.Status]),
			Priority: statusPriority(o.Status),
			// Transitions are timestamped at observation: the event
			// is the change, not the order's creation.
			Timestamp:  now.UnixMilli(),
			Status:     o.Status,
			SourceRefs: model.SourceRefs{OrderID: o.ID},
			Count:      1,
		})
	}

	return out
}

// diffIncomingOrders emits a "new order" notification at most once per
// order ID, the first time it is observed pending within the freshness
// window.
func diffIncomingOrders(
	orders []model.Order,
	tracked *TrackedState,
	deleted map[string]int64,
	now time.Time,
) []model.Notification {
	var out []model.Notification

	for _, o := range orders {
		tracked.LastStatus[o.ID] = o.Status

		if o.Status != model.OrderStatusPending {
			continue
		}
		if tracked.SeenOrders[o.ID] {
			continue
		}
		tracked.SeenOrders[o.ID] = true

		if !fresh(o.CreatedAt, now) {
			continue
		}

		id := orderNotificationID(o, o.Status)
		if _, gone := deleted[id]; gone {
			continue
		}

		out = append(out, model.Notification{
			ID:         id,
			Type:       model.TypeNewOrder,
			Title:      "New Order",
			Message:    fmt.Sprintf("Order #%s received.", o.OrderNumber),
			Priority:   model.PriorityHigh,
			Timestamp:  o.CreatedAt.UnixMilli(),
			Status:     o.Status,
			SourceRefs: model.SourceRefs{OrderID: o.ID},
			Count:      1,
		})
	}

	return out
}

// diffMessages emits at most once per message ID for unread messages
// within the freshness window.
func diffMessages(
	messages []model.Message,
	tracked *TrackedState,
	deleted map[string]int64,
	now time.Time,
) []model.Notification {
	var out []model.Notification

	for _, m := range messages {
		if m.Status != "unread" && m.Status != "new" {
			continue
		}
		if tracked.SeenMessages[m.ID] {
			continue
		}
		tracked.SeenMessages[m.ID] = true

		if !fresh(m.CreatedAt, now) {
			continue
		}

		id := messageNotificationID(m)
		if _, gone := deleted[id]; gone {
			continue
		}

		subject := m.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		out = append(out, model.Notification{
			ID:         id,
			Type:       model.TypeNewMessage,
			Title:      "New Message",
			Message:    fmt.Sprintf("%s: %s", m.Name, subject),
			Priority:   model.PriorityMedium,
			Timestamp:  m.CreatedAt.UnixMilli(),
			SourceRefs: model.SourceRefs{MessageID: m.ID},
			Count:      1,
		})
	}

	return out
}

// diffReviews emits at most once per review ID for reviews pending
// moderation within the freshness window.
func diffReviews(
	reviews []model.Review,
	tracked *TrackedState,
	deleted map[string]int64,
	now time.Time,
) []model.Notification {
	var out []model.Notification

	for _, r := range reviews {
		if r.Status != "pending" {
			continue
		}
		if tracked.SeenReviews[r.ID] {
			continue
		}
		tracked.SeenReviews[r.ID] = true

		if !fresh(r.CreatedAt, now) {
			continue
		}

		id := reviewNotificationID(r)
		if _, gone := deleted[id]; gone {
			continue
		}

		body := "A new review is awaiting approval."
		if r.MenuItemName != "" {
			body = fmt.Sprintf("New review for %s is awaiting approval.", r.MenuItemName)
		}
		out = append(out, model.Notification{
			ID:         id,
			Type:       model.TypeNewReview,
			Title:      "New Review",
			Message:    body,
			Priority:   model.PriorityMedium,
			Timestamp:  r.CreatedAt.UnixMilli(),
			SourceRefs: model.SourceRefs{ReviewID: r.ID},
			Count:      1,
		})
	}

	return out
}

// diffUsers emits at most once per user ID for freshly created
// customer accounts.
func diffUsers(
	users []model.User,
	tracked *TrackedState,
	deleted map[string]int64,
	now time.Time,
) []model.Notification {
	var out []model.Notification

	for _, u := range users {
		if u.Role != string(model.RoleCustomer) {
			continue
		}
		if tracked.SeenUsers[u.ID] {
			continue
		}
		tracked.SeenUsers[u.ID] = true

		if !fresh(u.CreatedAt, now) {
			continue
		}

		id := userNotificationID(u)
		if _, gone := deleted[id]; gone {
			continue
		}

		name := u.Name
		if name == "" {
			name = u.Email
		}
		out = append(out, model.Notification{
			ID:         id,
			Type:       model.TypeNewUser,
			Title:      "New Customer",
			Message:    fmt.Sprintf("%s signed up.", name),
			Priority:   model.PriorityLow,
			Timestamp:  u.CreatedAt.UnixMilli(),
			SourceRefs: model.SourceRefs{UserID: u.ID},
			Count:      1,
		})
	}

	return out
}
