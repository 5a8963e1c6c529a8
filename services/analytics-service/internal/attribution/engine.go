// Package attribution groups raw feed events into festival editions and
// derives per-day attendance and sold-today figures. Everything here is pure:
// storage and settings are supplied by the caller.
package attribution

import (
	"time"

	"colorfest/services/analytics-service/internal/models"
)

// Lookup is the static edition data the engine consults
type Lookup interface {
	OfficialDays(key string) []string
	Override(eventID string) (models.EditionIdentity, bool)
}

// Engine resolves editions and day coverage in a fixed time zone
type Engine struct {
	lookup Lookup
	loc    *time.Location
}

// NewEngine creates an engine. A nil loc means UTC.
func NewEngine(lookup Lookup, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{lookup: lookup, loc: loc}
}

// Location returns the zone calendar dates are computed in
func (e *Engine) Location() *time.Location {
	return e.loc
}
