package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	FetchSuccess = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "contestsync_fetch_success_total", Help: "Successful fetch cycles by platform and producing source"},
		[]string{"platform", "source"},
	)
	FetchFailure = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "contestsync_fetch_failure_total", Help: "Adapter invocations that exhausted retries"},
		[]string{"platform", "source"},
	)
	ContestsUpserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "contestsync_contests_upserted_total", Help: "Contests upserted into the store"},
		[]string{"platform"},
	)
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "contestsync_cache_hits_total", Help: "Fetches answered from the TTL cache"},
		[]string{"platform"},
	)
	TriggersSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "contestsync_triggers_skipped_total", Help: "Fetch triggers dropped because a cycle was already in flight"},
		[]string{"platform"},
	)
	RetentionDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "contestsync_retention_deleted_total", Help: "Ended contests removed by the retention sweep"},
	)
)

func Register() {
	prometheus.MustRegister(FetchSuccess, FetchFailure, ContestsUpserted, CacheHits, TriggersSkipped, RetentionDeleted)
}
