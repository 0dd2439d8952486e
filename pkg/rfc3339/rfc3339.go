package rfc3339

import (
	"errors"
	"fmt"
	"time"
)

// Token expiry dates cross the wire as RFC3339 strings in UTC. Keeping the
// formatting in one place avoids every caller re-deciding on the layout.

var ErrInvalid = errors.New("invalid RFC3339 date")

// Format renders t as an RFC3339 string normalized to UTC.
func Format(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Parse decodes an RFC3339 string into a UTC time.
func Parse(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrInvalid
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return t.UTC(), nil
}
