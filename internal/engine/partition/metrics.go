package partition

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	partitionLabel = "partition"
	queryLabel     = "query"
)

// Query kinds reported by the query counter.
const (
	queryRay     = "ray"
	queryFrustum = "frustum"
	queryAABB    = "aabb"
	queryOBB     = "obb"
	queryNearest = "nearest"
)

var (
	partitionDirtyQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "partition_dirty_queue_depth",
		Help: "The number of components waiting to be re-indexed.",
	}, []string{partitionLabel})

	partitionRegistered = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "partition_registered_components",
		Help: "The number of components registered with the partition.",
	}, []string{partitionLabel})

	partitionReindexedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partition_reindexed_total",
		Help: "The total number of components re-indexed.",
	}, []string{partitionLabel})

	partitionQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partition_queries_total",
		Help: "The total number of partition queries.",
	}, []string{partitionLabel, queryLabel})

	partitionUpdateSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "partition_update_duration_seconds",
		Help:    "The time spent in a partition update.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	}, []string{partitionLabel})
)

// metrics binds the collectors to one partition label.
type metrics struct {
	queueDepth prometheus.Gauge
	registered prometheus.Gauge
	reindexed  prometheus.Counter
	update     prometheus.Observer
	queries    map[string]prometheus.Counter
}

func newMetrics(name string) metrics {
	labels := prometheus.Labels{partitionLabel: name}
	m := metrics{
		queueDepth: partitionDirtyQueueDepth.With(labels),
		registered: partitionRegistered.With(labels),
		reindexed:  partitionReindexedTotal.With(labels),
		update:     partitionUpdateSeconds.With(labels),
		queries:    make(map[string]prometheus.Counter),
	}
	for _, kind := range []string{queryRay, queryFrustum, queryAABB, queryOBB, queryNearest} {
		m.queries[kind] = partitionQueriesTotal.With(prometheus.Labels{
			partitionLabel: name,
			queryLabel:     kind,
		})
	}
	return m
}

func (m metrics) countQuery(kind string) {
	m.queries[kind].Inc()
}
