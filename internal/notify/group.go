package notify

import (
	"fmt"
	"time"

	"github.com/nhle/restaurant-notify/internal/model"
)

// groupWindow is the time span within which similar notifications are
// merged into one entry. Grouping is recomputed from the working set on
// every publish, so the boundary is always relative to "now".
const groupWindow = 5 * time.Minute

var groupableTypes = map[model.NotificationType]bool{
	model.TypeNewOrder:    true,
	model.TypeOrderStatus: true,
	model.TypeNewMessage:  true,
	model.TypeNewReview:   true,
	model.TypeNewUser:     true,
}

// groupKey buckets by type alone, except order notifications which also
// key on status so distinct transitions ("preparing" vs "ready") are
// never merged together.
func groupKey(n model.Notification) string {
	switch n.Type {
	case model.TypeOrderStatus, model.TypeNewOrder:
		return string(n.Type) + "|" + n.Status
	default:
		return string(n.Type)
	}
}

// groupNotifications merges similar recent notifications. Entries older
// than the grouping window, or of a non-groupable type, pass through
// unchanged. A bucket with a single member is emitted as-is.
func groupNotifications(notifs []model.Notification, now time.Time) []model.Notification {
	cutoff := now.Add(-groupWindow).UnixMilli()

	var out []model.Notification
	buckets := make(map[string][]model.Notification)
	var order []string

	for _, n := range notifs {
		if !groupableTypes[n.Type] || n.Timestamp < cutoff {
			out = append(out, n)
			continue
		}
		key := groupKey(n)
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], n)
	}

	for _, key := range order {
		members := buckets[key]
		if len(members) == 1 {
			out = append(out, members[0])
			continue
		}
		out = append(out, mergeBucket(members))
	}

	return out
}

// mergeBucket synthesizes one grouped notification from two or more
// members: latest timestamp, highest priority, count-parametrized text.
func mergeBucket(members []model.Notification) model.Notification {
	first := members[0]
	maxTS := first.Timestamp
	priority := first.Priority
	for _, m := range members[1:] {
		if m.Timestamp > maxTS {
			maxTS = m.Timestamp
		}
		priority = model.MaxPriority(priority, m.Priority)
	}

	title, message := groupText(first.Type, first.Status, len(members))

	return model.Notification{
		ID:        fmt.Sprintf("grouped-%s-%d", first.Type, maxTS),
		Type:      first.Type,
		Title:     title,
		Message:   message,
		Priority:  priority,
		Timestamp: maxTS,
		Status:    first.Status,
		Grouped:   true,
		Count:     len(members),
		Members:   members,
	}
}

// groupText builds the per-type headline and body for a grouped entry,
// with singular and plural phrasing parametrized by count.
func groupText(typ model.NotificationType, status string, count int) (string, string) {
	switch typ {
	case model.TypeNewOrder:
		if count == 1 {
			return "New Order", "1 new order received."
		}
		return "New Orders", fmt.Sprintf("%d new orders received.", count)
	case model.TypeOrderStatus:
		phrase := statusPhrase[status]
		if count == 1 {
			return statusTitle[status], fmt.Sprintf("1 order %s.", phrase)
		}
		// Pluralize the phrase: "has been" -> "have been", "is" -> "are".
		return statusTitle[status], fmt.Sprintf("%d orders %s.", count, pluralPhrase(phrase))
	case model.TypeNewMessage:
		if count == 1 {
			return "New Message", "You have 1 new message."
		}
		return "New Messages", fmt.Sprintf("You have %d new messages.", count)
	case model.TypeNewReview:
		if count == 1 {
			return "New Review", "1 new review is awaiting approval."
		}
		return "New Reviews", fmt.Sprintf("%d new reviews are awaiting approval.", count)
	case model.TypeNewUser:
		if count == 1 {
			return "New Customer", "1 new customer signed up."
		}
		return "New Customers", fmt.Sprintf("%d new customers signed up.", count)
	default:
		return "Notifications", fmt.Sprintf("%d new notifications.", count)
	}
}

var pluralPhrases = map[string]string{
	"has been confirmed":  "have been confirmed",
	"is being prepared":   "are being prepared",
	"is ready for pickup": "are ready for pickup",
	"is out for delivery": "are out for delivery",
	"has been completed":  "have been completed",
	"has been cancelled":  "have been cancelled",
}

func pluralPhrase(phrase string) string {
	if p, ok := pluralPhrases[phrase]; ok {
		return p
	}
	return phrase
}
