package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/23skdu/strata/internal/cache"
	"github.com/23skdu/strata/internal/codec"
	"github.com/23skdu/strata/internal/layout"
	"github.com/23skdu/strata/internal/linalg"
	"github.com/23skdu/strata/internal/nd"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/fxamacker/cbor/v2"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strata_requests_total",
		Help: "Requests by endpoint and status code",
	}, []string{"endpoint", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "strata_request_duration_seconds",
		Help:    "Time spent processing requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)

const cborType = "application/cbor"

// pair is the request body of the two-operand endpoints.
type pair struct {
	A codec.Envelope `cbor:"a"`
	B codec.Envelope `cbor:"b"`
}

// normRequest selects a norm by its one-letter kind.
type normRequest struct {
	A    codec.Envelope `cbor:"a"`
	Kind string         `cbor:"kind"`
}

// scalarResponse carries a single number back.
type scalarResponse struct {
	Value float64 `cbor:"value"`
}

// statusError is an error with the HTTP status it maps to.
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &statusError{code: http.StatusBadRequest, err: fmt.Errorf(format, args...)}
}

// statusOf maps an operation error to its HTTP status.
func statusOf(err error) int {
	var se *statusError
	switch {
	case errors.As(err, &se):
		return se.code
	case errors.Is(err, linalg.ErrDecomposition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, codec.ErrMalformed),
		errors.Is(err, linalg.ErrInvalidArgument),
		errors.Is(err, layout.ErrPrecondition),
		errors.Is(err, layout.ErrRange),
		errors.Is(err, layout.ErrBounds):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type Server struct {
	alloc   memory.Allocator
	sem     *semaphore.Weighted
	cache   cache.FactorCache
	maxBody int64
}

func NewServer(maxConcurrent int, maxBody int64, c cache.FactorCache) *Server {
	return &Server{
		alloc:   memory.NewGoAllocator(),
		sem:     semaphore.NewWeighted(int64(max(maxConcurrent, 1))),
		cache:   c,
		maxBody: maxBody,
	}
}

// Handler routes every endpoint of the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/det", s.handle("det", s.det))
	mux.HandleFunc("/inv", s.handle("inv", s.inv))
	mux.HandleFunc("/solve", s.handle("solve", s.solve))
	mux.HandleFunc("/expm", s.handle("expm", s.expm))
	mux.HandleFunc("/norm", s.handle("norm", s.norm))
	mux.HandleFunc("/matmul", s.handle("matmul", s.matmul))
	mux.HandleFunc("/inv/arrow", s.handleInvArrow)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func startServer(addr string, maxConcurrent int, maxBody int64, c cache.FactorCache) {
	srv := NewServer(maxConcurrent, maxBody, c)

	log.Info().Str("addr", addr).Int("max_concurrent", maxConcurrent).Msg("Starting Strata Server")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

var tracer = otel.Tracer("strata-server")

// compute runs fn under admission control, turning precondition panics
// raised by the numeric core into errors. A request arriving while every
// slot is taken is rejected with 503 rather than queued.
func (s *Server) compute(r *http.Request, fn func() (any, error)) (res any, err error) {
	if !s.sem.TryAcquire(1) {
		return nil, &statusError{code: http.StatusServiceUnavailable, err: errors.New("server busy")}
	}
	defer s.sem.Release(1)

	defer func() {
		if p := recover(); p != nil {
			perr, ok := p.(error)
			if !ok || statusOf(perr) != http.StatusBadRequest {
				panic(p)
			}
			res, err = nil, perr
		}
	}()
	return fn()
}

// handle wraps a CBOR operation: decode the body into req, compute, encode
// the result.
func (s *Server) handle(endpoint string, op func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), endpoint)
		defer span.End()
		r = r.WithContext(ctx)

		start := time.Now()
		defer func() {
			requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		}()

		if r.Method != http.MethodPost {
			s.fail(w, endpoint, &statusError{code: http.StatusMethodNotAllowed, err: errors.New("method not allowed")})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

		res, err := s.compute(r, func() (any, error) { return op(r) })
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.fail(w, endpoint, err)
			return
		}

		var body []byte
		if a, ok := res.(*nd.Array[float64]); ok {
			span.SetAttributes(attribute.String("extents", a.Extents().String()))
			body, err = codec.MarshalCBOR(a.View())
		} else {
			body, err = cbor.Marshal(res)
		}
		if err != nil {
			s.fail(w, endpoint, err)
			return
		}
		w.Header().Set("Content-Type", cborType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(http.StatusOK)).Inc()
	}
}

func (s *Server) fail(w http.ResponseWriter, endpoint string, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("endpoint", endpoint).Msg("Request failed")
	} else {
		log.Debug().Err(err).Str("endpoint", endpoint).Int("code", code).Msg("Request rejected")
	}
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	http.Error(w, err.Error(), code)
}

func decode(r *http.Request, v any) error {
	if err := cbor.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("Bad Request (CBOR decode): %v", err)
	}
	return nil
}

// matrix decodes a single envelope body.
func matrix(r *http.Request) (*nd.Array[float64], error) {
	var e codec.Envelope
	if err := decode(r, &e); err != nil {
		return nil, err
	}
	return e.Array()
}

func (s *Server) det(r *http.Request) (any, error) {
	a, err := matrix(r)
	if err != nil {
		return nil, err
	}
	return scalarResponse{Value: linalg.Det(a.View())}, nil
}

func (s *Server) inv(r *http.Request) (any, error) {
	a, err := matrix(r)
	if err != nil {
		return nil, err
	}
	return linalg.Inverse(a.View())
}

func (s *Server) expm(r *http.Request) (any, error) {
	a, err := matrix(r)
	if err != nil {
		return nil, err
	}
	return linalg.Expm(a.View())
}

func (s *Server) norm(r *http.Request) (any, error) {
	var req normRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	a, err := req.A.Array()
	if err != nil {
		return nil, err
	}
	kind := req.Kind
	if kind == "" {
		kind = "F"
	}
	if len(kind) != 1 {
		return nil, badRequest("norm kind must be one letter, got %q", kind)
	}
	n, err := linalg.MatrixNorm(a.View(), kind[0])
	if err != nil {
		return nil, err
	}
	return scalarResponse{Value: n}, nil
}

func (s *Server) operands(r *http.Request) (a, b *nd.Array[float64], err error) {
	var req pair
	if err := decode(r, &req); err != nil {
		return nil, nil, err
	}
	if a, err = req.A.Array(); err != nil {
		return nil, nil, err
	}
	if b, err = req.B.Array(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (s *Server) solve(r *http.Request) (any, error) {
	a, b, err := s.operands(r)
	if err != nil {
		return nil, err
	}
	f, err := cache.Factorize(s.cache, a.View())
	if err != nil {
		return nil, err
	}
	return f.Solve(b.View()), nil
}

func (s *Server) matmul(r *http.Request) (any, error) {
	a, b, err := s.operands(r)
	if err != nil {
		return nil, err
	}
	return linalg.MatMul(a.View(), b.View()), nil
}

func (s *Server) handleInvArrow(w http.ResponseWriter, r *http.Request) {
	const endpoint = "inv_arrow"
	ctx, span := tracer.Start(r.Context(), "handleInvArrow")
	defer span.End()
	r = r.WithContext(ctx)

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	if r.Method != http.MethodPost {
		s.fail(w, endpoint, &statusError{code: http.StatusMethodNotAllowed, err: errors.New("method not allowed")})
		return
	}

	builder := codec.NewRecordBatchBuilder(s.alloc)
	a, err := builder.ReadIPC(http.MaxBytesReader(w, r.Body, s.maxBody), layout.RowMajor)
	if err != nil {
		span.RecordError(err)
		s.fail(w, endpoint, err)
		return
	}
	span.SetAttributes(attribute.Int("rows", a.Extent(0)), attribute.Int("cols", a.Extent(1)))

	res, err := s.compute(r, func() (any, error) { return linalg.Inverse(a.View()) })
	if err != nil {
		span.RecordError(err)
		s.fail(w, endpoint, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apache.arrow.stream")
	w.WriteHeader(http.StatusOK)
	if err := builder.WriteIPC(w, res.(*nd.Array[float64]).View()); err != nil {
		log.Error().Err(err).Msg("Error writing Arrow stream")
		return
	}
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(http.StatusOK)).Inc()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
