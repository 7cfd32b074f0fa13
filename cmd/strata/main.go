package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/23skdu/strata/internal/backend"
	"github.com/23skdu/strata/internal/cache"
	"github.com/23skdu/strata/internal/codec"
	"github.com/23skdu/strata/internal/layout"
	"github.com/23skdu/strata/internal/linalg"
	"github.com/23skdu/strata/internal/nd"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

var (
	listenAddr    = flag.String("listen", "", "Address to listen on for HTTP Server (e.g. :8080)")
	maxConcurrent = flag.Int("max-concurrent", 64, "Maximum number of requests computing at once")
	enableOTel    = flag.Bool("otel", false, "Enable OpenTelemetry tracing (stdout)")
	cpuProfile    = flag.String("cpuprofile", "", "Write cpu profile to file")
	flagMaxBody   = flag.String("max-body", "64MB", "Maximum request body size (e.g. 64MB, 512KB)")
	cacheEntries  = flag.Int("cache-entries", 128, "Number of LU factorizations kept for /solve")
	logLevel      = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	op            = flag.String("op", "det", "One-shot operation on a matrix read from stdin (det, inv, expm, norm, pinv)")
	outFmt        = flag.String("out", "text", "One-shot output format: text, cbor or arrow")
)

func parseBytes(s string) int64 {
	// 4GB, 100MB, 1024
	if s == "" || s == "0" {
		return 0
	}
	var val int64
	var unit string
	fmt.Sscanf(s, "%d%s", &val, &unit)

	switch unit {
	case "GB", "G":
		return val * 1024 * 1024 * 1024
	case "MB", "M":
		return val * 1024 * 1024
	case "KB", "K":
		return val * 1024
	default:
		return val
	}
}

func main() {
	// Initialize logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", *logLevel).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)
	log.Debug().Str("backend", backend.Name()).Msg("Linear algebra backend")

	if *enableOTel {
		shutdown, err := initTracer()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracer")
		}
		defer shutdown(context.Background())
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create CPU profile file")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("Could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	// Server Mode
	if *listenAddr != "" {
		maxBody := parseBytes(*flagMaxBody)
		log.Info().Str("max_body", *flagMaxBody).Int64("bytes", maxBody).Msg("Request size limit")
		startServer(*listenAddr, *maxConcurrent, maxBody, cache.NewLRUCache(*cacheEntries))
		return
	}

	start := time.Now()
	if err := runOnce(os.Stdin, os.Stdout, *op, *outFmt); err != nil {
		log.Fatal().Err(err).Str("op", *op).Msg("Operation failed")
	}
	log.Info().Str("op", *op).Dur("elapsed", time.Since(start)).Msg("Done")
}

// runOnce reads a matrix in text form from r, applies op and writes the
// result to w in the requested format.
func runOnce(r io.Reader, w io.Writer, op, format string) error {
	a, err := nd.ReadMatrix[float64](nd.NewTextReader(r), layout.RowMajor)
	if err != nil {
		return err
	}
	log.Debug().Str("op", op).Stringer("extents", a.Extents()).Msg("Read matrix")

	var res *nd.Array[float64]
	switch op {
	case "det":
		_, err = fmt.Fprintln(w, linalg.Det(a.View()))
		return err
	case "norm":
		n, err := linalg.MatrixNorm(a.View(), 'F')
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, n)
		return err
	case "inv":
		res, err = linalg.Inverse(a.View())
	case "expm":
		res, err = linalg.Expm(a.View())
	case "pinv":
		res, err = linalg.Pinv(a.View(), 0)
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
	if err != nil {
		return err
	}

	switch format {
	case "text":
		if err := nd.WriteText(w, res.View()); err != nil {
			return err
		}
		_, err = fmt.Fprintln(w)
		return err
	case "cbor":
		return codec.EncodeCBOR(w, res.View())
	case "arrow":
		return codec.NewRecordBatchBuilder(memory.NewGoAllocator()).WriteIPC(w, res.View())
	}
	return fmt.Errorf("unknown output format %q", format)
}

func initTracer() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("strata"),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}
