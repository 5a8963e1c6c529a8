package service

import (
	"errors"

	"colorfest/services/analytics-service/internal/catalog"
)

var (
	// ErrRefreshInProgress is returned when a refresh is already running
	ErrRefreshInProgress = errors.New("refresh already in progress")
	// ErrFetchFailed wraps upstream feed failures
	ErrFetchFailed = errors.New("failed to fetch events")
	// ErrNoData is returned before the first successful load
	ErrNoData = errors.New("no event data loaded yet")
	// ErrEditionNotFound is returned for unknown edition keys
	ErrEditionNotFound = catalog.ErrEditionNotFound
	// ErrEventNotFound is returned when the upstream has no such event
	ErrEventNotFound = errors.New("event not found")
	// ErrInvalidPeriod is returned when a comparison period is reversed
	ErrInvalidPeriod = errors.New("invalid comparison period")
)
