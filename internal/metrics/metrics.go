// Package metrics exposes Prometheus counters fed by the event bus and
// gauges summarizing the last feasibility plan per user.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akyairhashvil/okrcap/internal/event"
	"github.com/akyairhashvil/okrcap/internal/logging"
	"github.com/akyairhashvil/okrcap/internal/scheduler"
)

const namespace = "okrcap"

// Metrics owns its registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	nodeEvents       *prometheus.CounterVec
	ancestorUpdates  prometheus.Counter
	nodesRemoved     prometheus.Counter
	capacityEvents   *prometheus.CounterVec
	planAvailable    *prometheus.GaugeVec
	planAllocated    *prometheus.GaugeVec
	planUnschedHours *prometheus.GaugeVec
	planLateTasks    *prometheus.GaugeVec
	planFeasible     *prometheus.GaugeVec

	bus  *event.Bus
	subs []string
	log  *logging.Logger
}

func New(log *logging.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		nodeEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nodes",
			Name:      "events_total",
			Help:      "Committed node mutations by event type",
		}, []string{"type"}),
		ancestorUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nodes",
			Name:      "ancestor_updates_total",
			Help:      "Ancestors whose derived progress changed after a mutation",
		}),
		nodesRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nodes",
			Name:      "removed_total",
			Help:      "Nodes removed by deletes, cascades included",
		}),
		capacityEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capacity",
			Name:      "events_total",
			Help:      "Capacity settings changes by reason",
		}, []string{"reason"}),
		planAvailable: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "available_hours",
			Help:      "OKR hours available in the last planned window",
		}, []string{"user"}),
		planAllocated: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "allocated_hours",
			Help:      "Hours allocated to tasks in the last planned window",
		}, []string{"user"}),
		planUnschedHours: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "unschedulable_hours",
			Help:      "Task hours that did not fit in the last planned window",
		}, []string{"user"}),
		planLateTasks: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "late_tasks",
			Help:      "Tasks projected to finish after their due date",
		}, []string{"user"}),
		planFeasible: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "feasible",
			Help:      "1 when every task fits in the last planned window",
		}, []string{"user"}),
		log: log.WithComponent("metrics"),
	}
}

// Attach subscribes to every event on bus. Attaching twice is a no-op.
func (m *Metrics) Attach(bus *event.Bus) {
	if m.bus != nil || bus == nil {
		return
	}
	m.bus = bus
	m.subs = append(m.subs, bus.SubscribeAll(m.record))
}

// Detach removes the subscriptions made by Attach.
func (m *Metrics) Detach() {
	if m.bus == nil {
		return
	}
	for _, id := range m.subs {
		m.bus.Unsubscribe(id)
	}
	m.subs = nil
	m.bus = nil
}

func (m *Metrics) record(e event.Event) {
	switch ev := e.(type) {
	case event.NodeEvent:
		m.nodeEvents.WithLabelValues(ev.EventType()).Inc()
		m.ancestorUpdates.Add(float64(len(ev.Ancestors)))
		m.nodesRemoved.Add(float64(len(ev.Removed)))
	case event.CapacityEvent:
		m.capacityEvents.WithLabelValues(ev.Reason).Inc()
	}
}

// ObservePlan publishes the totals of p under p.UserID.
func (m *Metrics) ObservePlan(p scheduler.Plan) {
	m.planAvailable.WithLabelValues(p.UserID).Set(p.TotalAvailable)
	m.planAllocated.WithLabelValues(p.UserID).Set(p.TotalAllocated)
	m.planUnschedHours.WithLabelValues(p.UserID).Set(p.UnschedulableHours)
	m.planLateTasks.WithLabelValues(p.UserID).Set(float64(len(p.Late())))
	feasible := 0.0
	if p.Feasible {
		feasible = 1
	}
	m.planFeasible.WithLabelValues(p.UserID).Set(feasible)
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is canceled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		m.log.Info("metrics server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
