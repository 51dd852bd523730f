// Package metrics exposes Prometheus collectors for the gamification engines and the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "feyndora"

// RewardsGranted counts currency credited, by source (signin, quest, achievement) and currency.
var RewardsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "rewards_granted_total",
	Help:      "Currency credited to users.",
}, []string{"source", "currency"})

// ClaimsRejected counts claims refused by an engine, by engine and reason.
var ClaimsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "claims_rejected_total",
	Help:      "Claims refused because a precondition did not hold.",
}, []string{"engine", "reason"})

// CardDraws counts successful draws by draw type and rarity.
var CardDraws = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "card_draws_total",
	Help:      "Successful gacha draws.",
}, []string{"type", "rarity"})

// LearningPoints counts learning points logged.
var LearningPoints = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "learning_points_total",
	Help:      "Learning points logged by users.",
})

// QuestRowsPruned counts stale weekly quest rows removed by the janitor.
var QuestRowsPruned = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "quest_rows_pruned_total",
	Help:      "Weekly quest claim rows deleted after their week ended.",
})

// HTTPRequestDuration tracks request latency by route and status class.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})
