// Package notify is the notification center: it throttles duplicate posts,
// expires entries on a per-entry countdown, caps how many are visible and
// persists eligible entries so they survive a restart.
package notify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Kind is the notification category.
type Kind int

const (
	KindInfo Kind = iota
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return "info"
	}
}

// ParseKind is the inverse of Kind.String. Unknown values map to KindInfo.
func ParseKind(s string) Kind {
	switch strings.ToLower(s) {
	case "success":
		return KindSuccess
	case "error":
		return KindError
	default:
		return KindInfo
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// Timing and capacity defaults.
const (
	DefaultThrottle = 4000 * time.Millisecond

	InfoTTL    = 3 * time.Second
	SuccessTTL = 3 * time.Second
	ErrorTTL   = 5 * time.Second

	// MinSuccessTTL is the shortest time a success notification stays up.
	MinSuccessTTL = 3 * time.Second

	MaxVisible = 6
)

// DefaultTTL returns the display duration used when a post passes ttl <= 0.
func DefaultTTL(k Kind) time.Duration {
	switch k {
	case KindSuccess:
		return SuccessTTL
	case KindError:
		return ErrorTTL
	default:
		return InfoTTL
	}
}

// effectiveTTL applies the per-kind default and the success minimum.
func effectiveTTL(k Kind, ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = DefaultTTL(k)
	}
	if k == KindSuccess && ttl < MinSuccessTTL {
		ttl = MinSuccessTTL
	}
	return ttl
}

// Hash is the dedup key over kind, title and message.
func Hash(k Kind, title, message string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s", k, title, message)))
	return hex.EncodeToString(sum[:])
}

// Notification is a snapshot of a visible entry.
type Notification struct {
	ID      string
	Message string
	Kind    Kind
	Title   string
	Hash    string
	// Expiry is the absolute time the entry disappears if never paused.
	Expiry time.Time
	// Remaining is the countdown left at snapshot time.
	Remaining time.Duration
	Paused    bool
}

// EventType distinguishes render events.
type EventType int

const (
	EventShown EventType = iota
	EventReplaced
	EventRemoved
)

// RemoveReason explains an EventRemoved.
type RemoveReason int

const (
	ReasonNone RemoveReason = iota
	ReasonExpired
	ReasonDismissed
	ReasonEvicted
)

// Event is delivered to subscribers after the center's state changed.
type Event struct {
	Type         EventType
	Notification Notification
	Reason       RemoveReason
}

// Option configures a single Post.
type Option func(*postOptions)

type postOptions struct {
	title   string
	persist bool
	id      string
	replay  bool
}

// WithTitle sets the title shown above the message.
func WithTitle(title string) Option {
	return func(o *postOptions) { o.title = title }
}

// WithPersist stores the entry so it is replayed after a restart, whatever its kind.
func WithPersist() Option {
	return func(o *postOptions) { o.persist = true }
}

// WithID fixes the entry id. Posting again with the id of a visible entry
// replaces that entry instead of adding another.
func WithID(id string) Option {
	return func(o *postOptions) { o.id = id }
}
