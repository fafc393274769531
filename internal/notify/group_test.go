package notify

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nhle/restaurant-notify/internal/model"
)

func messageNotif(id string, ts time.Time) model.Notification {
	return model.Notification{
		ID:        "message-" + id,
		Type:      model.TypeNewMessage,
		Title:     "New Message",
		Priority:  model.PriorityMedium,
		Timestamp: ts.UnixMilli(),
		Count:     1,
	}
}

func TestGroupSingleItemPassesThroughUngrouped(t *testing.T) {
	in := []model.Notification{messageNotif("a", testNow.Add(-time.Minute))}

	out := groupNotifications(in, testNow)
	if len(out) != 1 {
		t.Fatalf("got %d notifications, want 1", len(out))
	}
	if out[0].Grouped {
		t.Error("single-member bucket must not be wrapped")
	}
	if out[0].Count != 1 {
		t.Errorf("count = %d, want 1", out[0].Count)
	}
	if out[0].ID != "message-a" {
		t.Errorf("id = %q, want message-a", out[0].ID)
	}
}

func TestGroupMergesRecentMessages(t *testing.T) {
	in := []model.Notification{
		messageNotif("a", testNow.Add(-4*time.Minute)),
		messageNotif("b", testNow.Add(-2*time.Minute)),
		messageNotif("c", testNow.Add(-1*time.Minute)),
	}

	out := groupNotifications(in, testNow)
	if len(out) != 1 {
		t.Fatalf("got %d notifications, want 1 grouped", len(out))
	}
	g := out[0]
	if !g.Grouped {
		t.Fatal("expected a grouped notification")
	}
	if g.Count != 3 {
		t.Errorf("count = %d, want 3", g.Count)
	}
	if len(g.Members) != 3 {
		t.Errorf("members = %d, want 3", len(g.Members))
	}
	if g.Title != "New Messages" {
		t.Errorf("title = %q, want plural phrasing", g.Title)
	}
	if !strings.Contains(g.Message, "3") {
		t.Errorf("message %q does not mention the count", g.Message)
	}
	wantTS := testNow.Add(-1 * time.Minute).UnixMilli()
	if g.Timestamp != wantTS {
		t.Errorf("timestamp = %d, want max member timestamp %d", g.Timestamp, wantTS)
	}
	wantID := fmt.Sprintf("grouped-%s-%d", model.TypeNewMessage, wantTS)
	if g.ID != wantID {
		t.Errorf("id = %q, want %q", g.ID, wantID)
	}
}

func TestGroupOldNotificationsPassThrough(t *testing.T) {
	in := []model.Notification{
		messageNotif("a", testNow.Add(-10*time.Minute)),
		messageNotif("b", testNow.Add(-20*time.Minute)),
	}

	out := groupNotifications(in, testNow)
	if len(out) != 2 {
		t.Fatalf("got %d notifications, want 2 ungrouped", len(out))
	}
	for _, n := range out {
		if n.Grouped {
			t.Errorf("notification %s older than the window was grouped", n.ID)
		}
	}
}

func TestGroupOrderStatusKeyedByStatus(t *testing.T) {
	mk := func(id, status string) model.Notification {
		return model.Notification{
			ID:        id,
			Type:      model.TypeOrderStatus,
			Status:    status,
			Priority:  model.PriorityMedium,
			Timestamp: testNow.Add(-time.Minute).UnixMilli(),
			Count:     1,
		}
	}
	in := []model.Notification{
		mk("o1", model.OrderStatusPreparing),
		mk("o2", model.OrderStatusPreparing),
		mk("o3", model.OrderStatusReady),
		mk("o4", model.OrderStatusReady),
	}

	out := groupNotifications(in, testNow)
	if len(out) != 2 {
		t.Fatalf("got %d notifications, want 2 groups", len(out))
	}
	statuses := map[string]int{}
	for _, n := range out {
		if !n.Grouped || n.Count != 2 {
			t.Errorf("expected groups of 2, got grouped=%v count=%d", n.Grouped, n.Count)
		}
		statuses[n.Status]++
	}
	if statuses[model.OrderStatusPreparing] != 1 || statuses[model.OrderStatusReady] != 1 {
		t.Errorf("statuses merged across buckets: %v", statuses)
	}
}

func TestGroupTakesMaxPriority(t *testing.T) {
	in := []model.Notification{
		{ID: "a", Type: model.TypeNewOrder, Status: model.OrderStatusPending,
			Priority: model.PriorityMedium, Timestamp: testNow.Add(-time.Minute).UnixMilli(), Count: 1},
		{ID: "b", Type: model.TypeNewOrder, Status: model.OrderStatusPending,
			Priority: model.PriorityHigh, Timestamp: testNow.Add(-2 * time.Minute).UnixMilli(), Count: 1},
	}

	out := groupNotifications(in, testNow)
	if len(out) != 1 || !out[0].Grouped {
		t.Fatalf("expected one grouped notification, got %v", out)
	}
	if out[0].Priority != model.PriorityHigh {
		t.Errorf("priority = %q, want high", out[0].Priority)
	}
}
