package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strata_linalg_dispatch_total",
		Help: "Linear algebra calls by operation and execution path",
	}, []string{"op", "path"})

	decompositionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strata_linalg_decomposition_failures_total",
		Help: "Decompositions that reported a singular or non-converging input",
	}, []string{"op"})

	poolHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strata_workspace_pool_hits_total",
		Help: "Total number of workspace buffers served from the pool",
	})

	poolMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strata_workspace_pool_misses_total",
		Help: "Total number of workspace buffers that had to be allocated",
	})
)
