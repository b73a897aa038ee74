package notify

import (
	"encoding/json"
	"time"

	"github.com/kastheco/tareas/config/kvstore"
	"github.com/kastheco/tareas/log"
)

// record is the stored form of a pending notification.
type record struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	Kind    Kind      `json:"kind"`
	Title   string    `json:"title,omitempty"`
	Hash    string    `json:"hash"`
	Expiry  time.Time `json:"expiry"`
}

// readPending loads the pending list and purges expired records, writing the
// list back when anything was dropped. Callers hold c.mu.
func (c *Center) readPending(now time.Time) []record {
	if c.store == nil {
		return nil
	}
	raw, ok, err := c.store.Get(kvstore.KeyPendingNotifications)
	if err != nil {
		log.WarningLog.Printf("notify: read pending notifications: %v", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var recs []record
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		log.WarningLog.Printf("notify: dropping unreadable pending notifications: %v", err)
		c.deleteKey(kvstore.KeyPendingNotifications)
		return nil
	}
	live := recs[:0]
	for _, r := range recs {
		if r.Expiry.After(now) {
			live = append(live, r)
		}
	}
	if len(live) != len(recs) {
		c.writePending(live)
	}
	return live
}

func (c *Center) writePending(recs []record) {
	if c.store == nil {
		return
	}
	if len(recs) == 0 {
		c.deleteKey(kvstore.KeyPendingNotifications)
		return
	}
	b, err := json.Marshal(recs)
	if err != nil {
		log.WarningLog.Printf("notify: encode pending notifications: %v", err)
		return
	}
	if err := c.store.Set(kvstore.KeyPendingNotifications, string(b)); err != nil {
		log.WarningLog.Printf("notify: write pending notifications: %v", err)
	}
}

// putRecord inserts or replaces the record with r.ID.
func (c *Center) putRecord(r record, now time.Time) {
	recs := c.readPending(now)
	for i := range recs {
		if recs[i].ID == r.ID {
			recs[i] = r
			c.writePending(recs)
			return
		}
	}
	c.writePending(append(recs, r))
}

// dropRecord removes the record with id, if stored.
func (c *Center) dropRecord(id string, now time.Time) {
	recs := c.readPending(now)
	for i := range recs {
		if recs[i].ID == id {
			c.writePending(append(recs[:i], recs[i+1:]...))
			return
		}
	}
}

func (c *Center) deleteKey(key string) {
	if err := c.store.Delete(key); err != nil {
		log.WarningLog.Printf("notify: delete %s: %v", key, err)
	}
}

// loadRecent restores the throttle cache, keeping only hashes still inside
// the window.
func (c *Center) loadRecent(now time.Time) {
	c.recent = make(map[string]time.Time)
	if c.store == nil {
		return
	}
	raw, ok, err := c.store.Get(kvstore.KeyRecentNotifications)
	if err != nil || !ok {
		if err != nil {
			log.WarningLog.Printf("notify: read throttle cache: %v", err)
		}
		return
	}
	var stamps map[string]int64
	if err := json.Unmarshal([]byte(raw), &stamps); err != nil {
		log.WarningLog.Printf("notify: dropping unreadable throttle cache: %v", err)
		c.deleteKey(kvstore.KeyRecentNotifications)
		return
	}
	for h, ms := range stamps {
		at := time.UnixMilli(ms)
		if now.Sub(at) < c.throttle {
			c.recent[h] = at
		}
	}
}

// saveRecent purges stale hashes and stores the rest.
func (c *Center) saveRecent(now time.Time) {
	stamps := make(map[string]int64, len(c.recent))
	for h, at := range c.recent {
		if now.Sub(at) >= c.throttle {
			delete(c.recent, h)
			continue
		}
		stamps[h] = at.UnixMilli()
	}
	if c.store == nil {
		return
	}
	if len(stamps) == 0 {
		c.deleteKey(kvstore.KeyRecentNotifications)
		return
	}
	b, err := json.Marshal(stamps)
	if err != nil {
		log.WarningLog.Printf("notify: encode throttle cache: %v", err)
		return
	}
	if err := c.store.Set(kvstore.KeyRecentNotifications, string(b)); err != nil {
		log.WarningLog.Printf("notify: write throttle cache: %v", err)
	}
}
