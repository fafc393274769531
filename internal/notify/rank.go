package notify

import (
	"sort"

	"github.com/nhle/restaurant-notify/internal/model"
)

// publishCap is the hard cap on the published working set, independent
// of how many entries are unread.
const publishCap = 100

// rankAndCap orders notifications by priority descending, then by
// timestamp descending as a tie-break, and truncates to the cap.
func rankAndCap(notifs []model.Notification) []model.Notification {
	sort.SliceStable(notifs, func(i, j int) bool {
		pi, pj := notifs[i].Priority.Rank(), notifs[j].Priority.Rank()
		if pi != pj {
			return pi > pj
		}
		return notifs[i].Timestamp > notifs[j].Timestamp
	})

	if len(notifs) > publishCap {
		notifs = notifs[:publishCap]
	}
	return notifs
}
