// Package metrics declares the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foodgram_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"limiter"},
	)

	// MembershipChanges counts favorite/cart/subscription toggles.
	MembershipChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_membership_changes_total",
			Help: "Favorite, shopping cart and subscription changes",
		},
		[]string{"relation", "action"},
	)

	RecipeWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipe_writes_total",
			Help: "Recipe create, update and delete operations",
		},
		[]string{"operation"},
	)

	ShoppingListDownloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_downloads_total",
			Help: "Shopping lists rendered",
		},
	)
)
