package attribution

import (
	"testing"
	"time"
	_ "time/tzdata"

	"colorfest/services/analytics-service/internal/models"
)

type staticLookup struct {
	official  map[string][]string
	overrides map[string]models.EditionIdentity
}

func (s staticLookup) OfficialDays(key string) []string { return s.official[key] }

func (s staticLookup) Override(id string) (models.EditionIdentity, bool) {
	v, ok := s.overrides[id]
	return v, ok
}

var cf14Days = []string{"2026-08-11", "2026-08-12", "2026-08-13"}

func rome(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	return loc
}

func newTestEngine(t *testing.T) *Engine {
	return NewEngine(staticLookup{
		official: map[string][]string{"cf-14": cf14Days},
		overrides: map[string]models.EditionIdentity{
			"RXZlbnQ6MTEwMTkz": {Key: "cf-10", Label: "Color Fest 10", Year: 2022},
		},
	}, rome(t))
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02T15:04", value, rome(t))
	if err != nil {
		t.Fatalf("bad time %q: %v", value, err)
	}
	return ts
}
