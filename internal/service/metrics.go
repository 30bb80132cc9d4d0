package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "service_request_transitions_total",
			Help: "Committed service request status changes",
		},
		[]string{"from", "to", "role"},
	)

	staleTransitions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "service_request_transition_conflicts_total",
			Help: "Status changes rejected because the request moved concurrently",
		},
	)
)
