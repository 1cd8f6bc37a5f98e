package github

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghrest_requests_total",
			Help: "Total HTTP attempts sent to the API by method and response status",
		},
		[]string{"method", "status"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghrest_retries_total",
			Help: "Total retries scheduled by response status",
		},
		[]string{"status"},
	)
)
