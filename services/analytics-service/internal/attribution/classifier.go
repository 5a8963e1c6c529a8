package attribution

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"colorfest/services/analytics-service/internal/models"
)

var (
	numberedFestPattern = regexp.MustCompile(`(?i)color\s*fest\s*(\d+)`)
	festPattern         = regexp.MustCompile(`(?i)color\s*fest`)
	winterPattern       = regexp.MustCompile(`(?i)winter`)
	pasquettaPattern    = regexp.MustCompile(`(?i)pasquetta`)
)

// EditionNumber returns N for names containing "Color Fest N"
func EditionNumber(name string) (int, bool) {
	m := numberedFestPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsWinter reports whether name belongs to the winter session series
func IsWinter(name string) bool { return winterPattern.MatchString(name) }

// IsPasquetta reports whether name belongs to the Easter Monday series
func IsPasquetta(name string) bool { return pasquettaPattern.MatchString(name) }

// IsColorFest reports whether name mentions the festival, numbered or not
func IsColorFest(name string) bool { return festPattern.MatchString(name) }

// Classify assigns event to an edition. The catalog override wins over every
// name rule.
func (e *Engine) Classify(event models.RawEvent) models.EditionIdentity {
	if e.lookup != nil {
		if id, ok := e.lookup.Override(event.ID); ok {
			return id
		}
	}

	start := event.StartDatetime.In(e.loc)
	year := start.Year()

	if n, ok := EditionNumber(event.Name); ok {
		return models.EditionIdentity{
			Key:   fmt.Sprintf("cf-%d", n),
			Label: fmt.Sprintf("Color Fest %d", n),
			Year:  year,
		}
	}
	if IsWinter(event.Name) {
		return models.EditionIdentity{
			Key:   fmt.Sprintf("winter-%d", year),
			Label: fmt.Sprintf("Winter Session %d", year),
			Year:  year,
		}
	}
	if IsPasquetta(event.Name) {
		return models.EditionIdentity{
			Key:   fmt.Sprintf("pasquetta-%d", year),
			Label: fmt.Sprintf("Pasquetta %d", year),
			Year:  year,
		}
	}
	if IsColorFest(event.Name) && start.Month() >= time.July && start.Month() <= time.September {
		return models.EditionIdentity{
			Key:   fmt.Sprintf("cf-summer-%d", year),
			Label: fmt.Sprintf("Color Fest %d", year),
			Year:  year,
		}
	}
	return models.EditionIdentity{
		Key:   fmt.Sprintf("other-%d", year),
		Label: fmt.Sprintf("Altri Eventi %d", year),
		Year:  year,
	}
}

// GroupByEdition drops cancelled events and groups the rest by edition,
// ordered by year descending then label ascending
func (e *Engine) GroupByEdition(events []models.RawEvent) []models.Edition {
	index := make(map[string]int)
	var editions []models.Edition

	for _, ev := range events {
		if !ev.Active() {
			continue
		}
		id := e.Classify(ev)
		i, ok := index[id.Key]
		if !ok {
			i = len(editions)
			index[id.Key] = i
			editions = append(editions, models.Edition{EditionIdentity: id})
		}
		editions[i].Events = append(editions[i].Events, ev)
	}

	sort.SliceStable(editions, func(i, j int) bool {
		if editions[i].Year != editions[j].Year {
			return editions[i].Year > editions[j].Year
		}
		return editions[i].Label < editions[j].Label
	})
	return editions
}

// LatestEdition picks the edition that receives the live overlays: the most
// recent numbered or summer festival, else the first edition
func LatestEdition(editions []models.Edition) (models.Edition, bool) {
	if len(editions) == 0 {
		return models.Edition{}, false
	}
	for _, ed := range editions {
		if IsColorFest(ed.Label) {
			return ed, true
		}
	}
	return editions[0], true
}
