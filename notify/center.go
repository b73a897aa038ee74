package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kastheco/tareas/config/kvstore"
	"github.com/kastheco/tareas/internal/clock"
)

// entry is a visible notification and its countdown.
type entry struct {
	n         Notification
	remaining time.Duration
	started   time.Time
	timer     clock.Timer
	paused    bool
	persisted bool
	// gen invalidates timers armed before a pause, resume or replace.
	gen uint64
}

func (e *entry) snapshot(now time.Time) Notification {
	n := e.n
	n.Paused = e.paused
	n.Remaining = e.remaining
	if !e.paused {
		n.Remaining = max(0, e.remaining-now.Sub(e.started))
	}
	return n
}

// CenterOption configures a Center.
type CenterOption func(*Center)

// WithThrottle overrides DefaultThrottle. d <= 0 keeps the default.
func WithThrottle(d time.Duration) CenterOption {
	return func(c *Center) {
		if d > 0 {
			c.throttle = d
		}
	}
}

// WithCapacity overrides MaxVisible.
func WithCapacity(n int) CenterOption {
	return func(c *Center) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// Center owns the visible notifications. It is safe for concurrent use;
// timer callbacks run on clock goroutines.
type Center struct {
	mu       sync.Mutex
	clock    clock.Clock
	store    kvstore.Store
	throttle time.Duration
	capacity int

	visible []*entry
	recent  map[string]time.Time

	subs   map[int]func(Event)
	nextSu int
}

// NewCenter returns a Center. store may be nil, in which case nothing is
// persisted and the throttle cache lives in memory only.
func NewCenter(c clock.Clock, store kvstore.Store, opts ...CenterOption) *Center {
	if c == nil {
		c = clock.Real()
	}
	center := &Center{
		clock:    c,
		store:    store,
		throttle: DefaultThrottle,
		capacity: MaxVisible,
		subs:     make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(center)
	}
	center.loadRecent(c.Now())
	return center
}

// Subscribe registers fn for render events and returns a function that
// removes it. fn is called without the center's lock held.
func (c *Center) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSu
	c.nextSu++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Post shows a notification and returns its id, or "" when the post was
// throttled. ttl <= 0 uses the kind's default.
func (c *Center) Post(message string, kind Kind, ttl time.Duration, opts ...Option) string {
	var o postOptions
	for _, opt := range opts {
		opt(&o)
	}
	return c.post(message, kind, ttl, o)
}

// Info, Success and Error post with the kind's default TTL.
func (c *Center) Info(msg string, opts ...Option) string { return c.Post(msg, KindInfo, 0, opts...) }

func (c *Center) Success(msg string, opts ...Option) string {
	return c.Post(msg, KindSuccess, 0, opts...)
}

func (c *Center) Error(msg string, opts ...Option) string { return c.Post(msg, KindError, 0, opts...) }

func (c *Center) post(message string, kind Kind, ttl time.Duration, o postOptions) string {
	c.mu.Lock()
	now := c.clock.Now()
	hash := Hash(kind, o.title, message)

	if !o.replay && kind != KindSuccess {
		if at, ok := c.recent[hash]; ok && now.Sub(at) < c.throttle {
			c.mu.Unlock()
			return ""
		}
		c.recent[hash] = now
		c.saveRecent(now)
	}

	if !o.replay {
		ttl = effectiveTTL(kind, ttl)
	}
	id := o.id
	if id == "" {
		id = uuid.NewString()
	}

	n := Notification{
		ID:      id,
		Message: message,
		Kind:    kind,
		Title:   o.title,
		Hash:    hash,
		Expiry:  now.Add(ttl),
	}
	persist := !o.replay && (kind == KindSuccess || o.persist)

	var events []Event
	if e := c.find(id); e != nil {
		if e.timer != nil {
			e.timer.Stop()
		}
		if e.persisted && !persist {
			c.dropRecord(id, now)
		}
		e.n = n
		e.remaining = ttl
		e.paused = false
		e.persisted = persist
		c.arm(e, now)
		events = append(events, Event{Type: EventReplaced, Notification: e.snapshot(now)})
	} else {
		for len(c.visible) >= c.capacity {
			oldest := c.visible[0]
			c.remove(oldest, now)
			events = append(events, Event{Type: EventRemoved, Notification: oldest.snapshot(now), Reason: ReasonEvicted})
		}
		e := &entry{n: n, remaining: ttl, persisted: persist}
		c.visible = append(c.visible, e)
		c.arm(e, now)
		events = append(events, Event{Type: EventShown, Notification: e.snapshot(now)})
	}
	if persist {
		c.putRecord(record{ID: id, Message: message, Kind: kind, Title: o.title, Hash: hash, Expiry: n.Expiry}, now)
	}
	subs := c.subscribers()
	c.mu.Unlock()

	emit(subs, events)
	return id
}

// Rehydrate replays stored notifications that have not expired, each with its
// remaining time. Every record is consumed: a second Rehydrate, in this or a
// later process, replays nothing. It returns the number replayed.
func (c *Center) Rehydrate() int {
	c.mu.Lock()
	now := c.clock.Now()
	recs := c.readPending(now)
	if len(recs) > 0 {
		c.writePending(nil)
	}
	c.mu.Unlock()

	for _, r := range recs {
		c.post(r.Message, r.Kind, r.Expiry.Sub(now), postOptions{title: r.Title, id: r.ID, replay: true})
	}
	return len(recs)
}

// Pause freezes the countdown of id, keeping the elapsed progress.
func (c *Center) Pause(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.find(id)
	if e == nil || e.paused {
		return false
	}
	now := c.clock.Now()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.remaining = max(0, e.remaining-now.Sub(e.started))
	e.paused = true
	e.gen++
	return true
}

// Resume restarts a paused countdown with the remaining duration.
func (c *Center) Resume(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.find(id)
	if e == nil || !e.paused {
		return false
	}
	now := c.clock.Now()
	e.paused = false
	e.n.Expiry = now.Add(e.remaining)
	c.arm(e, now)
	if e.persisted {
		n := e.n
		c.putRecord(record{ID: n.ID, Message: n.Message, Kind: n.Kind, Title: n.Title, Hash: n.Hash, Expiry: n.Expiry}, now)
	}
	return true
}

// Dismiss removes id and its stored record immediately.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	e := c.find(id)
	if e == nil {
		c.mu.Unlock()
		return false
	}
	now := c.clock.Now()
	c.remove(e, now)
	ev := Event{Type: EventRemoved, Notification: e.snapshot(now), Reason: ReasonDismissed}
	subs := c.subscribers()
	c.mu.Unlock()

	emit(subs, []Event{ev})
	return true
}

// DismissAll removes every visible notification.
func (c *Center) DismissAll() {
	for _, n := range c.Visible() {
		c.Dismiss(n.ID)
	}
}

// Visible returns the visible notifications, oldest first.
func (c *Center) Visible() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	out := make([]Notification, len(c.visible))
	for i, e := range c.visible {
		out[i] = e.snapshot(now)
	}
	return out
}

// Close stops every countdown. Stored records are kept so a later
// Rehydrate can replay them; each is rewritten to expire after the entry's
// remaining time, so a paused entry does not count down while stored.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	var stored []record
	for _, e := range c.visible {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		if e.persisted {
			n := e.snapshot(now)
			if n.Remaining > 0 {
				stored = append(stored, record{ID: n.ID, Message: n.Message, Kind: n.Kind, Title: n.Title, Hash: n.Hash, Expiry: now.Add(n.Remaining)})
			}
		}
		e.gen++
	}
	for _, r := range stored {
		c.putRecord(r, now)
	}
	c.visible = nil
}

// arm starts e's countdown from now. Callers hold c.mu.
func (c *Center) arm(e *entry, now time.Time) {
	e.gen++
	gen := e.gen
	id := e.n.ID
	e.started = now
	e.timer = c.clock.AfterFunc(e.remaining, func() { c.expire(id, gen) })
}

func (c *Center) expire(id string, gen uint64) {
	c.mu.Lock()
	e := c.find(id)
	if e == nil || e.gen != gen || e.paused {
		c.mu.Unlock()
		return
	}
	now := c.clock.Now()
	e.timer = nil
	c.remove(e, now)
	ev := Event{Type: EventRemoved, Notification: e.snapshot(now), Reason: ReasonExpired}
	subs := c.subscribers()
	c.mu.Unlock()

	emit(subs, []Event{ev})
}

// remove drops e from the visible list, stops its timer and deletes its
// stored record. Callers hold c.mu.
func (c *Center) remove(e *entry, now time.Time) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	for i, v := range c.visible {
		if v == e {
			c.visible = append(c.visible[:i], c.visible[i+1:]...)
			break
		}
	}
	if e.persisted {
		c.dropRecord(e.n.ID, now)
	}
}

func (c *Center) find(id string) *entry {
	for _, e := range c.visible {
		if e.n.ID == id {
			return e
		}
	}
	return nil
}

func (c *Center) subscribers() []func(Event) {
	if len(c.subs) == 0 {
		return nil
	}
	out := make([]func(Event), 0, len(c.subs))
	for i := 0; i < c.nextSu; i++ {
		if fn, ok := c.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func emit(subs []func(Event), events []Event) {
	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}
