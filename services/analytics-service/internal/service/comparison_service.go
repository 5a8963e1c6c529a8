package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"colorfest/services/analytics-service/internal/catalog"
	"colorfest/services/analytics-service/internal/csvimport"
	"colorfest/services/analytics-service/internal/models"
	"colorfest/services/analytics-service/internal/repository"
	"colorfest/shared/pkg/helpers"
	"colorfest/shared/pkg/logger"
)

const comparisonTopEvents = 10

// ComparisonService compares editions over the same seasonal window
type ComparisonService struct {
	snapshots  repository.SnapshotRepositoryInterface
	historical repository.HistoricalRepositoryInterface
	catalog    *catalog.Catalog
	parser     *csvimport.Parser
	loc        *time.Location
	log        *logger.Logger
}

func NewComparisonService(
	snapshots repository.SnapshotRepositoryInterface,
	historical repository.HistoricalRepositoryInterface,
	cat *catalog.Catalog,
	loc *time.Location,
	log *logger.Logger,
) *ComparisonService {
	if loc == nil {
		loc = time.UTC
	}
	return &ComparisonService{
		snapshots:  snapshots,
		historical: historical,
		catalog:    cat,
		parser:     csvimport.NewParser(cat),
		loc:        loc,
		log:        log,
	}
}

// Compare reports every catalogued edition over [from, to] shifted to that
// edition's year. The edition of to's year is the reference for DiffPct.
func (s *ComparisonService) Compare(ctx context.Context, from, to string) ([]models.EditionComparison, error) {
	fromDate, err := helpers.ParseISODate(from, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPeriod, err)
	}
	toDate, err := helpers.ParseISODate(to, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPeriod, err)
	}
	if toDate.Before(fromDate) {
		return nil, fmt.Errorf("%w: %s is before %s", ErrInvalidPeriod, to, from)
	}

	editions := s.catalog.ComparisonEditions()
	refYear := toDate.Year()

	out := make([]models.EditionComparison, 0, len(editions))
	for _, ed := range editions {
		shift := ed.Year - refYear
		sf := fromDate.AddDate(shift, 0, 0)
		st := toDate.AddDate(shift, 0, 0)

		row := models.EditionComparison{
			Key:         ed.Key,
			Label:       ed.Label,
			Year:        ed.Year,
			Color:       ed.Color,
			From:        sf.Format(helpers.ISODate),
			To:          st.Format(helpers.ISODate),
			PeriodLabel: helpers.FormatPeriodLabel(sf, st),
			Source:      models.SourceNone,
			Events:      []models.EventSales{},
		}
		if err := s.fill(ctx, &row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	ref := referenceRow(out, refYear)
	if ref == nil {
		return out, nil
	}
	for i := range out {
		if out[i].Key == ref.Key {
			continue
		}
		if pct, ok := helpers.PercentChange(ref.Presenze, out[i].Presenze, 1); ok {
			out[i].DiffPct = &pct
			out[i].DiffLabel = helpers.FormatPercent(pct)
			if pct.IsPositive() {
				out[i].DiffLabel = "+" + out[i].DiffLabel
			}
		}
	}
	return out, nil
}

// fill sums the latest snapshot per event in the window, falling back to the
// cumulative historical import when no snapshot matches the edition
func (s *ComparisonService) fill(ctx context.Context, row *models.EditionComparison) error {
	entries, err := s.snapshots.GetRange(ctx, row.From, row.To)
	if err != nil {
		return fmt.Errorf("failed to read snapshots for %s: %w", row.Key, err)
	}

	// Rows come newest first, so the first row per event is its latest count.
	seen := make(map[string]bool)
	for _, entry := range entries {
		if seen[entry.EventID] {
			continue
		}
		seen[entry.EventID] = true

		if s.editionKey(entry) != row.Key {
			continue
		}
		row.Tickets += entry.TicketsSold
		row.Presenze += entry.TicketsSold * csvimport.Multiplier(entry.EventName)
		row.Events = append(row.Events, models.EventSales{
			EventID:   entry.EventID,
			EventName: entry.EventName,
			Sold:      entry.TicketsSold,
		})
	}

	if len(row.Events) > 0 {
		row.Source = models.SourceSnapshots
		sort.SliceStable(row.Events, func(i, j int) bool { return row.Events[i].Sold > row.Events[j].Sold })
		if len(row.Events) > comparisonTopEvents {
			row.Events = row.Events[:comparisonTopEvents]
		}
		return nil
	}

	presenze, tickets, err := s.historical.SumUpTo(ctx, row.Key, row.To)
	if err != nil {
		return fmt.Errorf("failed to read historical presenze for %s: %w", row.Key, err)
	}
	if presenze > 0 || tickets > 0 {
		row.Source = models.SourceHistorical
		row.Presenze = presenze
		row.Tickets = tickets
	}
	return nil
}

// editionKey attributes a snapshot row the way the historical import does,
// after the catalog's event overrides
func (s *ComparisonService) editionKey(entry models.SnapshotEntry) string {
	if id, ok := s.catalog.Override(entry.EventID); ok {
		return id.Key
	}
	key, _ := s.parser.EditionKey(entry.EventName, entry.SnapshotDate)
	return key
}

func referenceRow(rows []models.EditionComparison, year int) *models.EditionComparison {
	for i := range rows {
		if rows[i].Year == year {
			return &rows[i]
		}
	}
	if len(rows) > 0 {
		return &rows[0]
	}
	return nil
}
