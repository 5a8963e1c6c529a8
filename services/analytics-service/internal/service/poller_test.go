package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestPoller_RefreshesImmediatelyAndOnTick(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := &countingRefresher{}
	p := NewPoller(r, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestPoller_SurvivesRefreshErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	for _, err := range []error{ErrRefreshInProgress, errors.New("upstream down")} {
		r := &countingRefresher{err: err}
		p := NewPoller(r, 5*time.Millisecond, testLogger())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			p.Run(ctx)
			close(done)
		}()

		assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
		cancel()
		<-done
	}
}

func TestNewPoller_DefaultInterval(t *testing.T) {
	p := NewPoller(&countingRefresher{}, 0, testLogger())
	assert.Equal(t, DefaultPollInterval, p.interval)
}
