package service

import (
	"context"
	"errors"
	"time"

	"colorfest/shared/pkg/logger"
)

// DefaultPollInterval is the period between scheduled refreshes
const DefaultPollInterval = 5 * time.Minute

// Refresher is triggered by the poller
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Poller refreshes the feed on a fixed interval
type Poller struct {
	refresher Refresher
	interval  time.Duration
	log       *logger.Logger
}

func NewPoller(refresher Refresher, interval time.Duration, log *logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{refresher: refresher, interval: interval, log: log}
}

// Run refreshes immediately and then on every tick until ctx is done
func (p *Poller) Run(ctx context.Context) {
	p.runOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Entry().Info("Poller stopped")
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	err := p.refresher.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrRefreshInProgress):
		p.log.Entry().Debug("Scheduled refresh skipped, one is already running")
	case ctx.Err() != nil:
	default:
		// Already logged by the refresher.
		p.log.Entry().WithError(err).Debug("Scheduled refresh failed")
	}
}
