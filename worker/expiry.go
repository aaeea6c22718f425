// Package worker runs the scheduled expiry sweep: available listings whose
// expiry date has passed are retired to expired, outside of any request.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"foodforward-api/listings"
)

// ExpirySweeper periodically retires past-expiry listings. The sweep relies
// on the store's conditional update, so it can never race a claim into an
// inconsistent state: a listing is either claimed first or expired first.
type ExpirySweeper struct {
	svc      *listings.Service
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}
}

func NewExpirySweeper(svc *listings.Service, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		svc:      svc,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop in a goroutine. No-op if the interval is 0.
func (s *ExpirySweeper) Start() {
	if s.interval <= 0 {
		close(s.doneCh)
		return
	}
	go s.run()
}

func (s *ExpirySweeper) run() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep runs one expiry pass.
func (s *ExpirySweeper) Sweep(ctx context.Context) {
	n, err := s.svc.ExpireBefore(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("expiry sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("expiry sweep retired %d listing(s)", n)
	}
}

// Stop ends the loop and waits for it to exit. Safe to call more than once.
func (s *ExpirySweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}
