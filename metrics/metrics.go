package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var StatEventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ggg_stat_events_recorded_total",
	Help: "Number of stat events recorded, by stat type",
}, []string{"stat_type"})

var StatEventsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ggg_stat_events_removed_total",
	Help: "Number of stat events removed (corrections), by stat type",
}, []string{"stat_type"})

var BroadcastsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ggg_broadcasts_published_total",
	Help: "Number of change notifications published, by sink",
}, []string{"sink"})

var BroadcastErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ggg_broadcast_errors_total",
	Help: "Number of change notification delivery failures, by sink",
}, []string{"sink"})

var LiveConnectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "ggg_live_connections",
	Help: "Current number of live game websocket subscribers",
})

var MigrationsRun = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ggg_migrations_run_total",
	Help: "Number of manual player migrations executed",
})

var ScoreDriftDetected = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ggg_score_drift_detected_total",
	Help: "Number of score audits that found drift between stored and recomputed scores",
})
