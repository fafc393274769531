package notify

import (
	"fmt"
	"testing"

	"github.com/nhle/restaurant-notify/internal/model"
)

func TestRankByPriorityThenTimestamp(t *testing.T) {
	ts := testNow.UnixMilli()
	in := []model.Notification{
		{ID: "l", Priority: model.PriorityLow, Timestamp: ts},
		{ID: "h", Priority: model.PriorityHigh, Timestamp: ts},
		{ID: "m", Priority: model.PriorityMedium, Timestamp: ts},
	}

	out := rankAndCap(in)
	want := []string{"h", "m", "l"}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("out[%d] = %q, want %q", i, out[i].ID, id)
		}
	}
}

func TestRankTimestampTieBreak(t *testing.T) {
	in := []model.Notification{
		{ID: "old", Priority: model.PriorityMedium, Timestamp: 1000},
		{ID: "new", Priority: model.PriorityMedium, Timestamp: 2000},
	}

	out := rankAndCap(in)
	if out[0].ID != "new" || out[1].ID != "old" {
		t.Errorf("order = [%s %s], want [new old]", out[0].ID, out[1].ID)
	}
}

func TestRankCapsAtLimit(t *testing.T) {
	var in []model.Notification
	for i := 0; i < publishCap+25; i++ {
		in = append(in, model.Notification{
			ID:        fmt.Sprintf("n%d", i),
			Priority:  model.PriorityMedium,
			Timestamp: int64(i),
		})
	}

	out := rankAndCap(in)
	if len(out) != publishCap {
		t.Fatalf("len = %d, want %d", len(out), publishCap)
	}
	// Most recent survive the cut.
	if out[0].Timestamp != int64(publishCap+24) {
		t.Errorf("head timestamp = %d, want most recent", out[0].Timestamp)
	}
}
