// Package service contains the business logic for the Stridelog API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/geo"
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// today truncates t to midnight UTC.
func today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrValidation}, args...)...)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// validatePoints checks every waypoint and reports the first bad index.
func validatePoints(points []geo.Point) error {
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return invalid("waypoint %d: %s", i, err)
		}
	}
	return nil
}

// nonNil keeps JSON list responses as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
