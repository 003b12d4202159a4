package filterset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	navigationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filterset_navigations_total",
		Help: "The total number of navigations issued by filter set controllers",
	})
	skippedNavigations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filterset_navigations_skipped_total",
		Help: "Navigations skipped because the current results already match",
	})
	navigationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filterset_navigation_errors_total",
		Help: "Navigations that completed with an error",
	})
	reconcilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filterset_reconciles_total",
		Help: "Block queries rewritten from search results",
	})
)
