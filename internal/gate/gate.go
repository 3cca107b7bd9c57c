// Package gate admits or rejects download requests before they touch the
// queue: per-user sliding-window rate limiting, a per-file size cap, and a
// per-user byte quota over the same window.
package gate

import (
	"sync"
	"time"

	"terabox-telegram-bot/internal/fault"
)

type Decision struct {
	Allowed bool
	Reason  fault.Reason
	// RetryAfter hints when a RateLimited user may try again.
	RetryAfter time.Duration
}

func allow() Decision { return Decision{Allowed: true} }

type byteEvent struct {
	at time.Time
	n  int64
}

type usage struct {
	requests []time.Time
	bytes    []byteEvent
}

// Gate holds all per-user usage windows. State is in-memory only and resets
// on restart. All methods are safe for concurrent use.
type Gate struct {
	Limit        int
	Window       time.Duration
	MaxFileBytes int64
	QuotaBytes   int64
	// OwnerID is exempt from the request-count limit (not the size cap). 0 disables.
	OwnerID int64

	mu    sync.Mutex
	users map[int64]*usage

	now func() time.Time
}

func New(limit int, window time.Duration, maxFileBytes, quotaBytes int64) *Gate {
	return &Gate{
		Limit:        limit,
		Window:       window,
		MaxFileBytes: maxFileBytes,
		QuotaBytes:   quotaBytes,
		users:        make(map[int64]*usage),
		now:          time.Now,
	}
}

// Check runs the full admission check for a new request. sizeBytes may be 0
// when the caller has no estimate yet; the size is re-checked after
// resolution via CheckSize. A passing check records the request immediately
// so two racing requests from the same user cannot both slip under the
// limit. A failing check records nothing.
func (g *Gate) Check(userID int64, sizeBytes int64) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	u := g.user(userID)
	g.prune(u, now)

	if d := g.sizeDecision(u, sizeBytes); !d.Allowed {
		return d
	}

	if g.OwnerID == 0 || userID != g.OwnerID {
		if len(u.requests) >= g.Limit {
			wait := g.Window - now.Sub(u.requests[0])
			if wait < 0 {
				wait = 0
			}
			return Decision{Reason: fault.RateLimited, RetryAfter: wait}
		}
	}

	u.requests = append(u.requests, now)
	return allow()
}

// CheckSize is the authoritative size check once the extractor has reported
// the true size. It can abort an already-admitted job; it never records.
func (g *Gate) CheckSize(userID int64, sizeBytes int64) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	u := g.user(userID)
	g.prune(u, g.now())
	return g.sizeDecision(u, sizeBytes)
}

// AddBytes charges completed transfer bytes against the user's window quota.
func (g *Gate) AddBytes(userID int64, n int64) {
	if n <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	u := g.user(userID)
	u.bytes = append(u.bytes, byteEvent{at: g.now(), n: n})
}

func (g *Gate) sizeDecision(u *usage, sizeBytes int64) Decision {
	if sizeBytes <= 0 {
		return allow()
	}
	if sizeBytes > g.MaxFileBytes {
		return Decision{Reason: fault.TooLarge}
	}
	if g.QuotaBytes > 0 {
		var used int64
		for _, e := range u.bytes {
			used += e.n
		}
		if used+sizeBytes > g.QuotaBytes {
			return Decision{Reason: fault.TooLarge}
		}
	}
	return allow()
}

func (g *Gate) user(userID int64) *usage {
	u, ok := g.users[userID]
	if !ok {
		u = &usage{}
		g.users[userID] = u
	}
	return u
}

// prune drops events older than the window. Requests are appended in time
// order, so a single cut point suffices.
func (g *Gate) prune(u *usage, now time.Time) {
	cutoff := now.Add(-g.Window)

	i := 0
	for i < len(u.requests) && !u.requests[i].After(cutoff) {
		i++
	}
	u.requests = append(u.requests[:0], u.requests[i:]...)

	j := 0
	for j < len(u.bytes) && !u.bytes[j].at.After(cutoff) {
		j++
	}
	u.bytes = append(u.bytes[:0], u.bytes[j:]...)
}
