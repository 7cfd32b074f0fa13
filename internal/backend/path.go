package backend

// Path is the route a linear algebra call took.
type Path string

const (
	// PathNative means the call was handed to the registered BLAS/LAPACK.
	PathNative Path = "native"
	// PathGeneric means the element type or layout did not qualify and the
	// call ran on the generic loops.
	PathGeneric Path = "generic"
)

// Record counts one dispatch of op through path.
func Record(op string, path Path) {
	dispatchTotal.WithLabelValues(op, string(path)).Inc()
}

// RecordFailure counts a decomposition that reported failure.
func RecordFailure(op string) {
	decompositionFailures.WithLabelValues(op).Inc()
}
