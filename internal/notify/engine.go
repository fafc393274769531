// Package notify implements the notification aggregation and delivery
// engine: it polls the upstream sources, diffs their state against what
// has already been surfaced, deduplicates and groups similar events,
// orders the result by priority, and persists durable read/deleted
// markers across restarts.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhle/restaurant-notify/internal/model"
	"github.com/nhle/restaurant-notify/internal/source"
	"github.com/nhle/restaurant-notify/internal/store"
)

// AuthState is the authentication signal consumed by the engine. It is
// injected as a subscribed stream rather than read from a global.
type AuthState struct {
	Role          model.Role
	Authenticated bool
}

// Sources bundles the connectors the engine polls. Customer sessions
// use only Orders; admin-like sessions use all four.
type Sources struct {
	Orders   source.OrderSource
	Messages source.MessageSource
	Reviews  source.ReviewSource
	Users    source.UserSource
}

// Config holds tuning knobs for the engine. Zero values are replaced
// with defaults.
type Config struct {
	// PollInterval is the cadence of the background poll (default 5s).
	PollInterval time.Duration

	// FetchTimeout bounds each connector call (default 10s).
	FetchTimeout time.Duration

	// FlushInterval is the minimum spacing between marker persistence
	// writes (default 30s).
	FlushInterval time.Duration

	// SweepInterval is the cadence of the deleted-set retention sweep
	// (default 1h).
	SweepInterval time.Duration

	// MaxDeleted caps the deleted marker set; the oldest entries are
	// dropped beyond it (default 1000).
	MaxDeleted int
}

func (c *Config) withDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 30 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Hour
	}
	if c.MaxDeleted <= 0 {
		c.MaxDeleted = 1000
	}
}

// Status describes the engine's most recent polling cycle.
type Status struct {
	LastCycle time.Time
	InFlight  bool
	LastError error
}

// snapshot is one successful cycle's worth of raw records.
type snapshot struct {
	own      []model.Order
	incoming []model.Order
	messages []model.Message
	reviews  []model.Review
	users    []model.User
}

// cycleResult carries a finished cycle back to the engine loop.
type cycleResult struct {
	gen       uint64
	adminLike bool
	outcome   cycleOutcome
	snap      snapshot
	err       error
}

// Engine is the orchestrator and public API of the notification layer.
// All exported methods are safe for concurrent use.
type Engine struct {
	cfg     Config
	sources Sources
	blobs   *markerStore
	retry   *retryController
	log     zerolog.Logger

	mu        sync.Mutex
	auth      AuthState
	working   []model.Notification // ungrouped working set
	published []model.Notification
	markers   *Markers
	tracked   *TrackedState
	dirty     bool
	lastFlush time.Time
	gen       uint64
	inFlight  bool
	status    Status

	triggerCh chan struct{}
	cycleCh   chan cycleResult

	now func() time.Time
}

// New creates an engine. It does not poll until Run is called and an
// authenticated AuthState arrives.
func New(cfg Config, srcs Sources, kv store.Store, log zerolog.Logger) *Engine {
	cfg.withDefaults()
	return &Engine{
		cfg:       cfg,
		sources:   srcs,
		blobs:     &markerStore{kv: kv, log: log},
		retry:     newRetryController(log),
		log:       log,
		markers:   NewMarkers(),
		tracked:   NewTrackedState(),
		triggerCh: make(chan struct{}, 1),
		cycleCh:   make(chan cycleResult, 1),
		now:       time.Now,
	}
}

// Run is the engine loop. It polls once immediately when authentication
// becomes true, then on the poll interval for as long as authentication
// holds, and halts and clears the published list the instant it is
// lost. Run returns when ctx is cancelled, after a final marker flush.
func (e *Engine) Run(ctx context.Context, auth <-chan AuthState) {
	sessionCtx, sessionCancel := context.WithCancel(ctx)
	defer sessionCancel()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()
	flushTicker := time.NewTicker(e.cfg.FlushInterval)
	defer flushTicker.Stop()
	sweepTicker := time.NewTicker(e.cfg.SweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.flush(true)
			return

		case st, ok := <-auth:
			if !ok {
				auth = nil
				continue
			}
			sessionCancel()
			sessionCtx, sessionCancel = context.WithCancel(ctx)
			e.applyAuth(sessionCtx, st)

		case <-ticker.C:
			e.startCycle(sessionCtx)

		case <-e.triggerCh:
			e.startCycle(sessionCtx)

		case res := <-e.cycleCh:
			e.finishCycle(res)

		case <-flushTicker.C:
			e.flush(false)

		case <-sweepTicker.C:
			e.sweepDeleted()
		}
	}
}

// applyAuth handles an authentication transition: login hydrates the
// role-scoped markers and triggers an immediate poll; logout flushes
// markers, discards session state, and empties the published list.
func (e *Engine) applyAuth(sessionCtx context.Context, st AuthState) {
	e.mu.Lock()
	prev := e.auth
	e.auth = st
	e.gen++ // any in-flight cycle is now stale
	e.inFlight = false

	if !st.Authenticated {
		markers, tracked, scope := e.markers, e.tracked, prev.Role.Scope()
		wasAuthed := prev.Authenticated
		dirty := e.dirty
		e.working = nil
		e.published = nil
		e.markers = NewMarkers()
		e.tracked = NewTrackedState()
		e.dirty = false
		e.mu.Unlock()

		if wasAuthed && dirty {
			e.blobs.Save(context.Background(), scope, markers, tracked)
		}
		e.log.Info().Msg("authentication lost; notification engine halted")
		return
	}

	scope := st.Role.Scope()
	e.mu.Unlock()

	markers, tracked := e.blobs.Load(sessionCtx, scope)

	e.mu.Lock()
	// Discard the hydration if auth changed again while loading.
	if e.auth == st {
		e.markers = markers
		e.tracked = tracked
		e.working = nil
		e.published = nil
		e.dirty = false
	}
	e.mu.Unlock()

	e.log.Info().Str("role", string(st.Role)).Str("scope", scope).
		Msg("authenticated; starting notification polling")
	e.startCycle(sessionCtx)
}

// startCycle launches one polling cycle unless unauthenticated or a
// cycle is already in flight.
func (e *Engine) startCycle(sessionCtx context.Context) {
	e.mu.Lock()
	if !e.auth.Authenticated || e.inFlight {
		e.mu.Unlock()
		return
	}
	e.inFlight = true
	e.status.InFlight = true
	e.gen++
	gen := e.gen
	adminLike := e.auth.Role.AdminLike()
	e.mu.Unlock()

	go e.runCycle(sessionCtx, gen, adminLike)
}

// runCycle performs the fetch phase under the retry controller and
// reports the result to the engine loop.
func (e *Engine) runCycle(ctx context.Context, gen uint64, adminLike bool) {
	cycleID := uuid.NewString()
	e.log.Debug().Str("cycle", cycleID).Bool("admin", adminLike).Msg("poll cycle started")

	var snap snapshot
	var lastErr error
	outcome := e.retry.run(ctx, func(ctx context.Context) error {
		s, err := e.fetch(ctx, adminLike)
		if err != nil {
			lastErr = err
			return err
		}
		snap = s
		return nil
	})

	res := cycleResult{
		gen:       gen,
		adminLike: adminLike,
		outcome:   outcome,
		snap:      snap,
	}
	if outcome != cycleSucceeded {
		res.err = lastErr
	}

	select {
	case e.cycleCh <- res:
	case <-ctx.Done():
	}
	e.log.Debug().Str("cycle", cycleID).Int("outcome", int(outcome)).Msg("poll cycle finished")
}

// fetch queries the connectors for the session's role. Admin sessions
// fire all four connector calls concurrently; the first failure cancels
// the siblings and fails the whole cycle, so tracked-state mutation
// stays one-cycle-one-commit.
func (e *Engine) fetch(ctx context.Context, adminLike bool) (snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	var snap snapshot

	if !adminLike {
		orders, err := e.sources.Orders.OwnOrders(ctx)
		if err != nil {
			return snapshot{}, err
		}
		snap.own = orders
		return snap, nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		orders, err := e.sources.Orders.IncomingOrders(ctx)
		if err != nil {
			fail(err)
			return
		}
		snap.incoming = orders
	}()
	go func() {
		defer wg.Done()
		messages, err := e.sources.Messages.UnreadMessages(ctx)
		if err != nil {
			fail(err)
			return
		}
		snap.messages = messages
	}()
	go func() {
		defer wg.Done()
		reviews, err := e.sources.Reviews.PendingReviews(ctx)
		if err != nil {
			fail(err)
			return
		}
		snap.reviews = reviews
	}()
	go func() {
		defer wg.Done()
		users, err := e.sources.Users.RecentCustomers(ctx)
		if err != nil {
			fail(err)
			return
		}
		snap.users = users
	}()
	wg.Wait()

	if firstErr != nil {
		return snapshot{}, firstErr
	}
	return snap, nil
}

// finishCycle folds a cycle result into engine state. Stale results
// (auth changed since the cycle started) are discarded.
func (e *Engine) finishCycle(res cycleResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.inFlight = false
	e.status.InFlight = false

	if res.gen != e.gen || !e.auth.Authenticated {
		return
	}

	e.status.LastCycle = e.now()
	e.status.LastError = res.err

	switch res.outcome {
	case cycleAbortClear:
		e.working = nil
		e.published = nil
	case cycleAbortSilent:
		// Leave the published list untouched.
	case cycleSucceeded:
		e.applySnapshotLocked(res.snap, res.adminLike)
	}
}

// applySnapshotLocked runs the diff/merge/group/sort pipeline over a
// successful fetch and publishes the result. Caller holds e.mu.
func (e *Engine) applySnapshotLocked(snap snapshot, adminLike bool) {
	now := e.now()
	deleted := e.markers.Deleted

	var fresh []model.Notification
	if adminLike {
		fresh = append(fresh, diffIncomingOrders(snap.incoming, e.tracked, deleted, now)...)
		fresh = append(fresh, diffMessages(snap.messages, e.tracked, deleted, now)...)
		fresh = append(fresh, diffReviews(snap.reviews, e.tracked, deleted, now)...)
		fresh = append(fresh, diffUsers(snap.users, e.tracked, deleted, now)...)
	} else {
		fresh = diffOwnOrders(snap.own, e.tracked, deleted, now)
	}

	// Tracked state mutates on every snapshot, emitted or not.
	e.dirty = true

	// Merge fresh notifications with the previous working set, minus
	// anything since deleted.
	merged := make([]model.Notification, 0, len(e.working)+len(fresh))
	seen := make(map[string]bool, len(e.working)+len(fresh))
	for _, n := range e.working {
		if _, gone := deleted[n.ID]; gone {
			continue
		}
		merged = append(merged, n)
		seen[n.ID] = true
	}
	for _, n := range fresh {
		if seen[n.ID] {
			continue
		}
		merged = append(merged, n)
		seen[n.ID] = true
	}

	e.working = rankAndCap(merged)
	e.publishLocked(now)

	if len(fresh) > 0 {
		e.log.Info().Int("new", len(fresh)).Int("published", len(e.published)).
			Msg("new notifications")
	}
}

// publishLocked recomputes the published list (grouping is relative to
// now, so it is rebuilt on every publish) and prunes stale read IDs.
// Caller holds e.mu.
func (e *Engine) publishLocked(now time.Time) {
	pub := rankAndCap(groupNotifications(append([]model.Notification(nil), e.working...), now))
	for i := range pub {
		pub[i].Time = relativeTime(now, pub[i].Timestamp)
		for j := range pub[i].Members {
			pub[i].Members[j].Time = relativeTime(now, pub[i].Members[j].Timestamp)
		}
	}
	e.published = pub
	e.pruneReadLocked()
}

// pruneReadLocked drops read IDs that no longer correspond to any
// published entry (or grouped member), keeping the read set bounded by
// the published list. Caller holds e.mu.
func (e *Engine) pruneReadLocked() {
	live := make(map[string]bool, len(e.published))
	for _, n := range e.published {
		live[n.ID] = true
		for _, m := range n.Members {
			live[m.ID] = true
		}
	}
	for id := range e.markers.Read {
		if !live[id] {
			delete(e.markers.Read, id)
			e.dirty = true
		}
	}
}

// List returns the current published notifications for the session. For
// admin-like sessions, message notifications are exposed separately via
// Messages.
func (e *Engine) List() []model.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.Notification, 0, len(e.published))
	for _, n := range e.published {
		if e.auth.Role.AdminLike() && n.Type == model.TypeNewMessage {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Messages returns message notifications for admin-like sessions; it is
// empty for customers, whose List already carries everything.
func (e *Engine) Messages() []model.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.auth.Role.AdminLike() {
		return nil
	}
	var out []model.Notification
	for _, n := range e.published {
		if n.Type == model.TypeNewMessage {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount returns the number of published notifications not yet
// marked as read.
func (e *Engine) UnreadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for _, n := range e.published {
		if !e.markers.Read[n.ID] {
			count++
		}
	}
	return count
}

// MarkAsRead records id as read. Idempotent.
func (e *Engine) MarkAsRead(id string) {
	e.mu.Lock()
	if e.markers.Read[id] {
		e.mu.Unlock()
		return
	}
	firstEntry := len(e.markers.Read) == 0
	e.markers.Read[id] = true
	e.dirty = true
	e.mu.Unlock()

	if firstEntry {
		e.flush(true)
	}
}

// MarkAllAsRead records every published notification (and grouped
// member) as read. Idempotent.
func (e *Engine) MarkAllAsRead() {
	e.mu.Lock()
	firstEntry := len(e.markers.Read) == 0
	changed := false
	for _, n := range e.published {
		if !e.markers.Read[n.ID] {
			e.markers.Read[n.ID] = true
			changed = true
		}
		for _, m := range n.Members {
			if !e.markers.Read[m.ID] {
				e.markers.Read[m.ID] = true
				changed = true
			}
		}
	}
	if changed {
		e.dirty = true
	}
	e.mu.Unlock()

	if changed && firstEntry {
		e.flush(true)
	}
}

// Clear moves id into the deleted set and removes it from the published
// list. A cleared ID never resurfaces for the life of the retention
// window. Clearing a grouped entry clears all of its members, so they
// cannot reappear ungrouped once the grouping window slides.
// Idempotent.
func (e *Engine) Clear(id string) {
	e.mu.Lock()
	if _, gone := e.markers.Deleted[id]; gone {
		e.mu.Unlock()
		return
	}

	now := e.now()
	firstEntry := len(e.markers.Deleted) == 0
	e.markers.Deleted[id] = now.UnixMilli()
	for _, n := range e.published {
		if n.ID != id {
			continue
		}
		for _, m := range n.Members {
			e.markers.Deleted[m.ID] = now.UnixMilli()
		}
	}
	e.dirty = true
	e.rebuildWorkingLocked(now)
	e.mu.Unlock()

	if firstEntry {
		e.flush(true)
	}
}

// ClearAll moves every published notification into the deleted set and
// empties the published list. Idempotent.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	now := e.now()
	firstEntry := len(e.markers.Deleted) == 0
	changed := false
	for _, n := range e.published {
		if _, gone := e.markers.Deleted[n.ID]; !gone {
			e.markers.Deleted[n.ID] = now.UnixMilli()
			changed = true
		}
		for _, m := range n.Members {
			if _, gone := e.markers.Deleted[m.ID]; !gone {
				e.markers.Deleted[m.ID] = now.UnixMilli()
				changed = true
			}
		}
	}
	if changed {
		e.dirty = true
	}
	e.working = nil
	e.published = nil
	e.pruneReadLocked()
	e.mu.Unlock()

	if changed && firstEntry {
		e.flush(true)
	}
}

// rebuildWorkingLocked drops deleted entries from the working set and
// republishes. Caller holds e.mu.
func (e *Engine) rebuildWorkingLocked(now time.Time) {
	kept := e.working[:0]
	for _, n := range e.working {
		if _, gone := e.markers.Deleted[n.ID]; gone {
			continue
		}
		kept = append(kept, n)
	}
	e.working = kept
	e.publishLocked(now)
}

// Refresh forces an immediate out-of-cycle poll. Non-blocking: if a
// refresh is already queued, this is a no-op.
func (e *Engine) Refresh() {
	select {
	case e.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns the engine's most recent cycle status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// flush persists the markers and tracked state if they changed. Unless
// forced, writes are debounced to at most one per FlushInterval.
// Persistence failures are logged and swallowed; the engine keeps
// operating in memory.
func (e *Engine) flush(force bool) {
	e.mu.Lock()
	if !e.dirty || !e.auth.Authenticated {
		e.mu.Unlock()
		return
	}
	now := e.now()
	if !force && now.Sub(e.lastFlush) < e.cfg.FlushInterval {
		e.mu.Unlock()
		return
	}
	e.dirty = false
	e.lastFlush = now
	scope := e.auth.Role.Scope()
	markers := e.markers.clone()
	tracked := e.tracked.clone()
	e.mu.Unlock()

	e.blobs.Save(context.Background(), scope, markers, tracked)
}

// sweepDeleted caps the deleted marker set to bound unbounded growth.
// Best-effort: it need not be atomic with concurrent reads.
func (e *Engine) sweepDeleted() {
	e.mu.Lock()
	if e.markers.SweepDeleted(e.cfg.MaxDeleted) {
		e.dirty = true
		e.log.Debug().Int("cap", e.cfg.MaxDeleted).Msg("swept deleted markers")
	}
	e.mu.Unlock()
}

func (m *Markers) clone() *Markers {
	c := NewMarkers()
	for id := range m.Read {
		c.Read[id] = true
	}
	for id, at := range m.Deleted {
		c.Deleted[id] = at
	}
	return c
}

func (t *TrackedState) clone() *TrackedState {
	c := NewTrackedState()
	for id, st := range t.LastStatus {
		c.LastStatus[id] = st
	}
	for id := range t.SeenOrders {
		c.SeenOrders[id] = true
	}
	for id := range t.SeenMessages {
		c.SeenMessages[id] = true
	}
	for id := range t.SeenReviews {
		c.SeenReviews[id] = true
	}
	for id := range t.SeenUsers {
		c.SeenUsers[id] = true
	}
	return c
}
