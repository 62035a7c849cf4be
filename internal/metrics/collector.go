package metrics

import (
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chronicle/internal/leader"
)

// Collector manages Chronicle's leader-lifecycle metrics. Two shapes set
// it apart from a flat counters-and-gauge dashboard: heartbeat latency is
// broken out per leader peer, since a node's heartbeat cadence is only
// meaningful relative to the specific leader it is currently tracking
// (not as one cluster-wide number), and the term gauge enforces the
// monotonicity invariant from spec.md — the established term this node
// reports must never move backward within a history, so SetCurrentTerm
// guards the gauge with a compare-and-swap instead of a bare Set.
type Collector struct {
	electionsStarted  prometheus.Counter
	votesGranted      prometheus.Counter
	leaderTransitions prometheus.Counter
	currentTerm       prometheus.Gauge
	heartbeatInterval *prometheus.HistogramVec

	// highestTerm guards currentTerm against regression. The prometheus
	// instruments below are already safe for concurrent use on their own
	// (Inc/Set/Observe need no external lock); this is the one field
	// that needs real coordination, since "only move forward" is a
	// read-then-maybe-write decision the metric types don't make for us.
	highestTerm atomic.Uint64
}

var (
	globalCollector *Collector
	once            sync.Once
)

// GetCollector returns the singleton metrics collector, registering its
// metrics with the default Prometheus registry on first use.
func GetCollector() *Collector {
	once.Do(func() {
		globalCollector = &Collector{
			electionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "chronicle_elections_started_total",
				Help: "Total number of leader elections this node has started",
			}),
			votesGranted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "chronicle_votes_granted_total",
				Help: "Total number of request_vote RPCs this node has granted",
			}),
			leaderTransitions: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "chronicle_leader_transitions_total",
				Help: "Total number of times this node, as leader, had its term established",
			}),
			currentTerm: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "chronicle_leader_term",
				Help: "Highest established term number this node has observed; never regresses within a history",
			}),
			heartbeatInterval: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "chronicle_heartbeat_interval_seconds",
				Help:    "Observed time between consecutive heartbeats from a tracked leader, by leader peer",
				Buckets: prometheus.DefBuckets,
			}, []string{"leader"}),
		}

		prometheus.MustRegister(globalCollector.electionsStarted)
		prometheus.MustRegister(globalCollector.votesGranted)
		prometheus.MustRegister(globalCollector.leaderTransitions)
		prometheus.MustRegister(globalCollector.currentTerm)
		prometheus.MustRegister(globalCollector.heartbeatInterval)
	})

	return globalCollector
}

// IncElectionsStarted implements leader.Metrics.
func (c *Collector) IncElectionsStarted() {
	c.electionsStarted.Inc()
}

// IncVotesGranted implements leader.Metrics.
func (c *Collector) IncVotesGranted() {
	c.votesGranted.Inc()
}

// IncLeaderTransitions implements leader.Metrics.
func (c *Collector) IncLeaderTransitions() {
	c.leaderTransitions.Inc()
}

// SetCurrentTerm implements leader.Metrics. It only ever moves the gauge
// forward: a report of a lower term number than already seen is stale
// (the FSM itself never regresses established_term within a history, but
// a restarted or lagging reporter could still call in with one) and is
// silently dropped rather than allowed to move the gauge backward.
func (c *Collector) SetCurrentTerm(termNumber uint64) {
	for {
		prev := c.highestTerm.Load()
		if termNumber <= prev {
			return
		}
		if c.highestTerm.CompareAndSwap(prev, termNumber) {
			c.currentTerm.Set(float64(termNumber))
			return
		}
	}
}

// ObserveHeartbeatInterval implements leader.Metrics.
func (c *Collector) ObserveHeartbeatInterval(leaderPeer leader.PeerID, d time.Duration) {
	c.heartbeatInterval.WithLabelValues(string(leaderPeer)).Observe(d.Seconds())
}

// StartServer starts the Prometheus metrics HTTP server on its own mux,
// logging through the standard log package like every other Chronicle
// component rather than printing straight to stdout.
func StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := ":" + strconv.Itoa(port)
	log.Printf("metrics: serving http://localhost%s/metrics", addr)
	return http.ListenAndServe(addr, mux)
}
