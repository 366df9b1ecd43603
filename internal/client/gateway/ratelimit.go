package gateway

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitInfo is the rate-limit snapshot of one rejected response. It
// is attached to that call's error and never stored.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	// Reset is the window reset as Unix seconds, 0 when not sent.
	Reset int64
	// RetryAfter is the Retry-After header in seconds, 0 when not sent.
	RetryAfter int
}

func headerInt(h http.Header, names ...string) (int64, bool) {
	for _, name := range names {
		if v := h.Get(name); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// ParseRateLimit extracts the ratelimit-* and retry-after headers. The
// X-RateLimit-* spelling is accepted as a fallback. It returns nil when
// none of the headers is present.
func ParseRateLimit(h http.Header) *RateLimitInfo {
	var info RateLimitInfo
	found := false
	if n, ok := headerInt(h, "RateLimit-Limit", "X-RateLimit-Limit"); ok {
		info.Limit, found = int(n), true
	}
	if n, ok := headerInt(h, "RateLimit-Remaining", "X-RateLimit-Remaining"); ok {
		info.Remaining, found = int(n), true
	}
	if n, ok := headerInt(h, "RateLimit-Reset", "X-RateLimit-Reset"); ok {
		info.Reset, found = n, true
	}
	if n, ok := headerInt(h, "Retry-After"); ok && n > 0 {
		info.RetryAfter, found = int(n), true
	}
	if !found {
		return nil
	}
	return &info
}

// WaitSeconds is how long the caller should wait before retrying, rounded
// up to whole seconds. Retry-After takes precedence over the reset epoch.
// Zero means unknown.
func (r *RateLimitInfo) WaitSeconds(now time.Time) int {
	if r == nil {
		return 0
	}
	if r.RetryAfter > 0 {
		return r.RetryAfter
	}
	if r.Reset > 0 {
		d := time.Unix(r.Reset, 0).Sub(now)
		if d > 0 {
			return int(math.Ceil(d.Seconds()))
		}
	}
	return 0
}

// FormatWait renders a wait in seconds for users, adding a minute
// approximation for long waits.
func FormatWait(seconds int) string {
	if seconds == 1 {
		return "1 segundo"
	}
	if seconds < 60 {
		return fmt.Sprintf("%d segundos", seconds)
	}
	minutes := (seconds + 59) / 60
	return fmt.Sprintf("%d segundos (~%d min)", seconds, minutes)
}

// RateLimitMessage builds the user message for a rate-limited call.
func RateLimitMessage(base string, info *RateLimitInfo, now time.Time) string {
	base = strings.TrimRight(base, ". ")
	if base == "" {
		base = "Demasiadas solicitudes"
	}
	if wait := info.WaitSeconds(now); wait > 0 {
		return fmt.Sprintf("%s. Intenta de nuevo en %s.", base, FormatWait(wait))
	}
	return base + ". Intenta de nuevo más tarde."
}
