package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"colorfest/services/analytics-service/internal/attribution"
	"colorfest/services/analytics-service/internal/dice"
	"colorfest/services/analytics-service/internal/models"
	"colorfest/shared/pkg/logger"
)

// EventLookup fetches one upstream event by ID
type EventLookup interface {
	FetchEvent(ctx context.Context, id string) (*models.RawEvent, error)
}

// EventService resolves a single upstream event against the edition rules
type EventService struct {
	lookup  EventLookup
	engine  *attribution.Engine
	timeout time.Duration
	log     *logger.Logger
}

func NewEventService(lookup EventLookup, engine *attribution.Engine, timeout time.Duration, log *logger.Logger) *EventService {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &EventService{lookup: lookup, engine: engine, timeout: timeout, log: log}
}

// Event fetches id and reports its edition and covered days
func (s *EventService) Event(ctx context.Context, id string) (*models.EventDetail, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ev, err := s.lookup.FetchEvent(fetchCtx, id)
	if err != nil {
		if errors.Is(err, dice.ErrEventNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
		}
		s.log.Entry().WithField("event_id", id).WithError(err).Warn("Event lookup failed")
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	identity := s.engine.Classify(*ev)
	coverage := s.engine.Coverage(models.Edition{EditionIdentity: identity, Events: []models.RawEvent{*ev}})
	dates := coverage[0]

	labels := make([]string, 0, len(dates))
	for _, d := range dates {
		labels = append(labels, attribution.FormatDayLabel(d))
	}
	return &models.EventDetail{
		Event:     *ev,
		Edition:   identity,
		Active:    ev.Active(),
		Pass:      attribution.IsPass(ev.Name),
		Dates:     dates,
		DayLabels: labels,
	}, nil
}
