// Package dashboard maintains the live operational snapshot shown to
// administrators, fed primarily by realtime pushes with a polling fallback
// when the duplex channel is down.
package dashboard

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/elpatio/backoffice/internal/api"
	"github.com/elpatio/backoffice/internal/realtime"
	"github.com/elpatio/backoffice/pkg/logger"
)

// Snapshot is the current dashboard state. Live reports whether the last
// update arrived over the realtime channel rather than the polling fallback.
type Snapshot struct {
	Connections     api.ConnectionStats
	Stats           api.GlobalStats
	LastTransaction *api.Transaction
	UpdatedAt       time.Time
	Live            bool
}

// CashiersConnected is the total of available and busy cashiers.
func (s Snapshot) CashiersConnected() int {
	return s.Connections.Details.CashiersAvailable + s.Connections.Details.CashiersBusy
}

// Subscriber is the slice of the connection manager the service needs.
type Subscriber interface {
	On(event string, fn realtime.Handler)
}

// Service folds realtime pushes into a dashboard snapshot. Updates from the
// polling fallback go through ApplyConnectionStats/ApplyStats with live=false.
type Service struct {
	log *logger.Logger

	mu       sync.Mutex
	snapshot Snapshot
	onChange []func(Snapshot)
}

// NewService creates an empty dashboard service. The logger may be nil.
func NewService(log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("dashboard")
	}
	return &Service{log: log}
}

// Attach subscribes the service to the realtime events that carry dashboard
// state. Safe to call once per manager; handler registration is idempotent.
func (s *Service) Attach(sub Subscriber) {
	sub.On(realtime.EventFullStateUpdated, s.onFullState)
	sub.On(realtime.EventStatsUpdate, s.onStats)
	sub.On(realtime.EventConnectionStats, s.onConnectionStats)
	sub.On(realtime.EventTransactionUpdate, s.onTransaction)
	sub.On(realtime.EventDisconnected, s.onDisconnected)
}

// OnChange registers a callback invoked with every new snapshot.
func (s *Service) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Snapshot returns the current dashboard state.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// ApplyConnectionStats merges a connection snapshot, typically from the
// polling fallback.
func (s *Service) ApplyConnectionStats(stats api.ConnectionStats, live bool) {
	s.update(func(snap *Snapshot) {
		snap.Connections = stats
		snap.Live = live
	})
}

// ApplyStats merges aggregate statistics.
func (s *Service) ApplyStats(stats api.GlobalStats, live bool) {
	s.update(func(snap *Snapshot) {
		snap.Stats = stats
		snap.Live = live
	})
}

func (s *Service) update(apply func(*Snapshot)) {
	s.mu.Lock()
	apply(&s.snapshot)
	s.snapshot.UpdatedAt = time.Now()
	snap := s.snapshot
	callbacks := make([]func(Snapshot), len(s.onChange))
	copy(callbacks, s.onChange)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(snap)
	}
}

func (s *Service) onFullState(payload json.RawMessage) {
	var state struct {
		Connections *api.ConnectionStats `json:"conexiones,omitempty"`
		Stats       *api.GlobalStats     `json:"estadisticas,omitempty"`
	}
	if err := json.Unmarshal(payload, &state); err != nil {
		s.log.WithError(err).Debug("discarding malformed full-state payload")
		return
	}
	s.update(func(snap *Snapshot) {
		if state.Connections != nil {
			snap.Connections = *state.Connections
		}
		if state.Stats != nil {
			snap.Stats = *state.Stats
		}
		snap.Live = true
	})
}

func (s *Service) onStats(payload json.RawMessage) {
	var stats api.GlobalStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		s.log.WithError(err).Debug("discarding malformed stats payload")
		return
	}
	s.ApplyStats(stats, true)
}

func (s *Service) onConnectionStats(payload json.RawMessage) {
	var stats api.ConnectionStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		s.log.WithError(err).Debug("discarding malformed connection-stats payload")
		return
	}
	s.ApplyConnectionStats(stats, true)
}

func (s *Service) onTransaction(payload json.RawMessage) {
	var tx api.Transaction
	if err := json.Unmarshal(payload, &tx); err != nil {
		s.log.WithError(err).Debug("discarding malformed transaction payload")
		return
	}
	s.update(func(snap *Snapshot) {
		snap.LastTransaction = &tx
		snap.Live = true
	})
}

func (s *Service) onDisconnected(json.RawMessage) {
	s.update(func(snap *Snapshot) {
		snap.Live = false
	})
}

// Refresher fetches the dashboard data the fallback poller needs.
type Refresher interface {
	ConnectionStats(ctx context.Context) (api.ConnectionStats, error)
	GlobalStats(ctx context.Context) (api.GlobalStats, error)
}

// Refresh performs a one-shot refetch through the REST collaborator and
// applies the result as non-live data.
func (s *Service) Refresh(ctx context.Context, client Refresher) error {
	conns, err := client.ConnectionStats(ctx)
	if err != nil {
		return err
	}
	stats, err := client.GlobalStats(ctx)
	if err != nil {
		return err
	}
	s.update(func(snap *Snapshot) {
		snap.Connections = conns
		snap.Stats = stats
		snap.Live = false
	})
	return nil
}
