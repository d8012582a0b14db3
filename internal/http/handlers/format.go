package handlers

import (
	"strings"
	"time"
)

// dayLayout is the wire format of travel dates in query strings and imports.
const dayLayout = "2006-01-02"

// parseDay accepts a bare date or a full RFC 3339 timestamp and returns
// the UTC day it falls on.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dayLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// displayTime formats t for the pages, e.g. "02 Mar 2026 09:30 UTC".
// The zero time renders as "never".
func displayTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format("02 Jan 2006 15:04 MST")
}
