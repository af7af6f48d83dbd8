package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tidwall/gjson"

	"github.com/elpatio/backoffice/internal/auth"
	"github.com/elpatio/backoffice/internal/dashboard"
	"github.com/elpatio/backoffice/internal/metrics"
	"github.com/elpatio/backoffice/internal/realtime"
)

// cmdWatch follows the live dashboard until interrupted. State arrives over
// the realtime channel; while the channel is down a poller refetches over
// REST at a fixed interval.
func cmdWatch(e *env, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	metricsAddr := fs.String("metrics-addr", e.cfg.Metrics.Addr, "expose Prometheus metrics on this address (empty disables)")
	fs.Parse(args)

	if !e.session.IsAuthenticated() {
		return auth.ErrNotAuthenticated
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := realtime.NewManager(
		e.session,
		realtime.WSFactory(realtime.WSConfig{
			URL:               e.cfg.Backend.URL,
			ReconnectAttempts: e.cfg.Realtime.ReconnectAttempts,
			ReconnectDelay:    e.cfg.Realtime.ReconnectDelay,
			Logger:            e.log.WithField("module", "realtime"),
		}),
		e.log.WithField("module", "realtime"),
	)
	e.session.OnLogout(manager.Disconnect)

	service := dashboard.NewService(e.log.WithField("module", "dashboard"))
	service.Attach(manager)
	service.OnChange(printSnapshot)

	manager.On(realtime.EventNotification, func(payload json.RawMessage) {
		msg := gjson.GetBytes(payload, "mensaje").String()
		if msg == "" {
			msg = string(payload)
		}
		fmt.Printf("notification: %s\n", msg)
	})
	manager.On(realtime.EventAuthError, func(payload json.RawMessage) {
		fmt.Fprintln(os.Stderr, "realtime authentication rejected; log in again")
	})
	manager.On(realtime.EventSessionReplaced, func(json.RawMessage) {
		fmt.Fprintln(os.Stderr, "session replaced by another connection")
	})

	poller := dashboard.NewPoller(service, e.client, manager, e.cfg.Realtime.PollInterval, e.log.WithField("module", "poller"))
	if err := poller.Start(ctx); err != nil {
		return err
	}

	var metricsSrv *http.Server
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				e.log.WithError(err).Error("metrics server failed")
			}
		}()
		e.log.WithField("addr", *metricsAddr).Info("metrics endpoint up")
	}

	// Seed the snapshot before the first push arrives.
	if err := service.Refresh(ctx, e.client); err != nil {
		e.log.WithError(err).Warn("initial refresh failed")
	}

	manager.Connect(ctx)

	<-ctx.Done()
	manager.Disconnect()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := poller.Stop(stopCtx); err != nil {
		e.log.WithError(err).Warn("poller did not stop cleanly")
	}
	if metricsSrv != nil {
		metricsSrv.Shutdown(stopCtx)
	}
	return nil
}

func printSnapshot(snap dashboard.Snapshot) {
	source := "poll"
	if snap.Live {
		source = "live"
	}
	fmt.Printf("[%s] %s connections=%d players=%d cashiers=%d (available=%d busy=%d) active-tx=%d pending-withdrawals=%d\n",
		snap.UpdatedAt.Format("15:04:05"),
		source,
		snap.Connections.Connections.TotalConnections,
		snap.Connections.Connections.PlayersConnected,
		snap.CashiersConnected(),
		snap.Connections.Details.CashiersAvailable,
		snap.Connections.Details.CashiersBusy,
		snap.Connections.Details.ActiveTransactions,
		snap.Stats.PendingWithdrawals,
	)
}
