package pagination

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TokenParam carries a previously issued nextToken.
const TokenParam = "token"

// hasAny reports whether any of keys is present with a non-empty value.
func hasAny(params url.Values, keys ...string) bool {
	for _, k := range keys {
		if params.Get(k) != "" {
			return true
		}
	}
	return false
}

func intParam(fe *fieldErrors, params url.Values, key string, def int) int {
	raw := strings.TrimSpace(params.Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		fe.add(key, "must be an integer")
		return def
	}
	return n
}

// dayEnd is the last instant every store can represent within a day.
const dayEnd = 24*time.Hour - time.Microsecond

// timeParam accepts a date (YYYY-MM-DD) or an RFC 3339 timestamp. A date used
// as an upper bound covers the whole day.
func timeParam(fe *fieldErrors, params url.Values, key string, upper bool) time.Time {
	raw := strings.TrimSpace(params.Get(key))
	if raw == "" {
		fe.add(key, "is required")
		return time.Time{}
	}
	if d, err := time.Parse(time.DateOnly, raw); err == nil {
		if upper {
			d = d.Add(dayEnd)
		}
		return d
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		fe.add(key, "must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
		return time.Time{}
	}
	return t.UTC()
}
