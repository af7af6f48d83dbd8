package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/elpatio/backoffice/internal/metrics"
	"github.com/elpatio/backoffice/pkg/logger"
)

// ConnectionChecker reports whether the realtime channel is up.
type ConnectionChecker interface {
	IsConnected() bool
}

// Poller is the fallback refresh loop. On every tick it refetches the
// dashboard over REST, but only while the realtime channel is down, so live
// pushes and polled fetches never double-apply.
type Poller struct {
	service  *Service
	client   Refresher
	conn     ConnectionChecker
	interval time.Duration
	log      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller. A zero interval defaults to 30 seconds.
func NewPoller(service *Service, client Refresher, conn ConnectionChecker, interval time.Duration, log *logger.Logger) *Poller {
	if interval == 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = logger.NewDefault("dashboard.poller")
	}
	return &Poller{
		service:  service,
		client:   client,
		conn:     conn,
		interval: interval,
		log:      log,
	}
}

func (p *Poller) Name() string { return "dashboard-poller" }

// Start launches the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		p.run(runCtx)
	}()
	return nil
}

// Stop halts the loop and waits for it to exit.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if p.conn.IsConnected() {
		return
	}
	metrics.FallbackPoll()
	if err := p.service.Refresh(ctx, p.client); err != nil {
		p.log.WithError(err).Warn("fallback refresh failed")
	}
}
