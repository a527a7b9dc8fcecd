package store

import (
	"container/list"
	"sync"
	"time"

	"github.com/survey-007/iran-radiation-live/internal/model"
)

// Dedup is a TTL-bound LRU of measurement keys already rendered.
type Dedup struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	now   func() time.Time
	ll    *list.List               // most-recent at front
	items map[string]*list.Element // key -> element
}

type entry struct {
	key string
	exp time.Time
}

func NewDedup(maxKeys int, ttl time.Duration) *Dedup {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Dedup{cap: maxKeys, ttl: ttl, now: time.Now, ll: list.New(), items: make(map[string]*list.Element)}
}

// Key identifies a measurement by its API id, falling back to position and capture time.
func Key(m model.Measurement) string {
	if m.ID.Present() {
		return "id:" + m.ID.String()
	}
	return "pos:" + m.Latitude.String() + "," + m.Longitude.String() + "@" + m.CapturedAtOrDefault()
}

// Filter drops records seen within the TTL and marks the rest as seen.
func (d *Dedup) Filter(recs []model.Measurement) []model.Measurement {
	out := make([]model.Measurement, 0, len(recs))
	for _, m := range recs {
		k := Key(m)
		if d.Seen(k) {
			continue
		}
		d.Mark(k)
		out = append(out, m)
	}
	return out
}

func (d *Dedup) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.items[key]
	if !ok {
		return false
	}
	if d.now().Before(el.Value.(entry).exp) {
		d.ll.MoveToFront(el)
		return true
	}
	d.ll.Remove(el)
	delete(d.items, key)
	return false
}

func (d *Dedup) Mark(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp := d.now().Add(d.ttl)
	if el, ok := d.items[key]; ok {
		el.Value = entry{key: key, exp: exp}
		d.ll.MoveToFront(el)
		return
	}
	d.items[key] = d.ll.PushFront(entry{key: key, exp: exp})
	for d.ll.Len() > d.cap {
		d.evict(d.ll.Back())
	}
	// drop expired tail
	for t := d.ll.Back(); t != nil && !d.now().Before(t.Value.(entry).exp); t = d.ll.Back() {
		d.evict(t)
	}
}

func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ll.Len()
}

func (d *Dedup) evict(el *list.Element) {
	d.ll.Remove(el)
	delete(d.items, el.Value.(entry).key)
}
