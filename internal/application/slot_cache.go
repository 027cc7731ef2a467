package application

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

// slotCache stores recently computed availability slots to avoid repeated
// engine runs for identical queries while calendars remain unchanged.
type slotCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]slotCacheEntry
}

type slotCacheEntry struct {
	slots     []scheduler.Slot
	expiresAt time.Time
}

func newSlotCache(ttl time.Duration, maxEntries int, now func() time.Time) *slotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &slotCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]slotCacheEntry),
	}
}

func (c *slotCache) Get(key string) ([]scheduler.Slot, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneSlots(entry.slots), true
}

func (c *slotCache) Store(key string, slots []scheduler.Slot) {
	if c == nil {
		return
	}
	cloned := cloneSlots(slots)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = slotCacheEntry{slots: cloned, expiresAt: expiry}
}

// Invalidate drops every cached entry. Called after any write that changes
// a calendar.
func (c *slotCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]slotCacheEntry)
	c.mu.Unlock()
}

func (c *slotCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *slotCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cloneSlots(slots []scheduler.Slot) []scheduler.Slot {
	if len(slots) == 0 {
		return nil
	}
	out := make([]scheduler.Slot, len(slots))
	copy(out, slots)
	return out
}

func buildSlotCacheKey(params AvailabilityParams, now time.Time) string {
	weekdays := make([]string, 0, len(params.Weekdays))
	for _, day := range params.Weekdays {
		weekdays = append(weekdays, strconv.Itoa(int(day)))
	}
	sort.Strings(weekdays)

	builder := strings.Builder{}
	builder.WriteString(params.ParticipantID)
	builder.WriteString("|")
	builder.WriteString(strconv.Itoa(params.DurationMinutes))
	builder.WriteString("|")
	builder.WriteString(strings.Join(weekdays, ","))
	builder.WriteString("|")
	builder.WriteString(string(params.Band))
	builder.WriteString("|")
	if params.ClockRange != nil {
		builder.WriteString(params.ClockRange.Start.String())
		builder.WriteString("-")
		builder.WriteString(params.ClockRange.End.String())
	}
	builder.WriteString("|")
	builder.WriteString(string(params.Week))
	builder.WriteString("|")
	builder.WriteString(strconv.Itoa(params.MaxSlots))
	builder.WriteString("|")
	// Bucket the clock so cache hits survive within the same half-hour
	// granularity step.
	builder.WriteString(now.UTC().Truncate(scheduler.SlotGranularity).Format(time.RFC3339))
	return builder.String()
}
