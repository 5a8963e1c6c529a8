package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"colorfest/services/analytics-service/internal/models"
	"colorfest/shared/pkg/helpers"
)

//go:embed editions.yaml
var defaultCatalog []byte

// ErrEditionNotFound is returned by lookups for unknown keys
var ErrEditionNotFound = errors.New("edition not found")

// Edition is one catalogued festival edition
type Edition struct {
	Key          string   `yaml:"key" json:"key"`
	Number       int      `yaml:"number" json:"number"`
	Label        string   `yaml:"label" json:"label"`
	Year         int      `yaml:"year" json:"year"`
	Color        string   `yaml:"color" json:"color"`
	OfficialDays []string `yaml:"official_days" json:"official_days"`
}

// Identity returns the classifier identity of e
func (e Edition) Identity() models.EditionIdentity {
	return models.EditionIdentity{Key: e.Key, Label: e.Label, Year: e.Year}
}

// Catalog is the static edition lookup data
type Catalog struct {
	Version   int `yaml:"version"`
	Numbering struct {
		BaseYear int `yaml:"base_year"`
	} `yaml:"numbering"`
	Editions       []Edition         `yaml:"editions"`
	LegacyYears    map[int]string    `yaml:"legacy_years"`
	EventOverrides map[string]string `yaml:"event_overrides"`

	byKey    map[string]int
	byNumber map[int]int
}

// Default returns the catalog compiled into the binary
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads the catalog at path, or the embedded one when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read edition catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse edition catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	if c.Numbering.BaseYear <= 0 {
		return fmt.Errorf("edition catalog: numbering.base_year must be set")
	}

	c.byKey = make(map[string]int, len(c.Editions))
	c.byNumber = make(map[int]int, len(c.Editions))
	for i, e := range c.Editions {
		if e.Key == "" || e.Label == "" {
			return fmt.Errorf("edition catalog: entry %d needs key and label", i)
		}
		if _, dup := c.byKey[e.Key]; dup {
			return fmt.Errorf("edition catalog: duplicate key %s", e.Key)
		}
		if e.Number > 0 {
			if want := c.Numbering.BaseYear + e.Number; e.Year != want {
				return fmt.Errorf("edition catalog: %s has year %d, numbering says %d", e.Key, e.Year, want)
			}
			c.byNumber[e.Number] = i
		}
		for _, d := range e.OfficialDays {
			if !helpers.IsISODate(d) {
				return fmt.Errorf("edition catalog: %s official day %q is not YYYY-MM-DD", e.Key, d)
			}
		}
		if !sort.StringsAreSorted(e.OfficialDays) {
			return fmt.Errorf("edition catalog: %s official days must be ascending", e.Key)
		}
		c.byKey[e.Key] = i
	}

	for id, key := range c.EventOverrides {
		if _, ok := c.byKey[key]; !ok {
			return fmt.Errorf("edition catalog: override %s targets unknown edition %s", id, key)
		}
	}
	for year, key := range c.LegacyYears {
		if _, ok := c.byKey[key]; !ok {
			return fmt.Errorf("edition catalog: legacy year %d targets unknown edition %s", year, key)
		}
	}
	return nil
}

// EditionByKey returns the catalogued edition for key
func (c *Catalog) EditionByKey(key string) (Edition, error) {
	i, ok := c.byKey[key]
	if !ok {
		return Edition{}, fmt.Errorf("%w: %s", ErrEditionNotFound, key)
	}
	return c.Editions[i], nil
}

// EditionByNumber returns the numbered edition N
func (c *Catalog) EditionByNumber(n int) (Edition, bool) {
	i, ok := c.byNumber[n]
	if !ok {
		return Edition{}, false
	}
	return c.Editions[i], true
}

// EditionForYear returns the numbered edition held in year
func (c *Catalog) EditionForYear(year int) (Edition, bool) {
	return c.EditionByNumber(year - c.Numbering.BaseYear)
}

// OfficialDays returns the fixed calendar of key, nil when it has none
func (c *Catalog) OfficialDays(key string) []string {
	i, ok := c.byKey[key]
	if !ok || len(c.Editions[i].OfficialDays) == 0 {
		return nil
	}
	return append([]string(nil), c.Editions[i].OfficialDays...)
}

// Override returns the edition an event ID is pinned to
func (c *Catalog) Override(eventID string) (models.EditionIdentity, bool) {
	key, ok := c.EventOverrides[eventID]
	if !ok {
		return models.EditionIdentity{}, false
	}
	return c.Editions[c.byKey[key]].Identity(), true
}

// LegacyEdition maps a calendar year to the edition of unnumbered rows
func (c *Catalog) LegacyEdition(year int) (string, bool) {
	key, ok := c.LegacyYears[year]
	return key, ok
}

// ComparisonEditions returns the numbered editions, most recent first
func (c *Catalog) ComparisonEditions() []Edition {
	var out []Edition
	for _, e := range c.Editions {
		if e.Number > 0 {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out
}
