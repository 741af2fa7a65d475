package main

import (
	"bufio"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"firewatch/internal/api"
	"firewatch/internal/config"
	"firewatch/internal/cronjobs"
	"firewatch/internal/metrics"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	metrics.RegisterDefault()

	srvDeps, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	mux := http.NewServeMux()

	// Incidents
	mux.HandleFunc("/v1/incidents", srvDeps.IncidentsHandler)
	mux.HandleFunc("/v1/incidents/", srvDeps.IncidentByIDHandler)

	// Scoring pipeline
	mux.HandleFunc("/v1/triage", srvDeps.TriageHandler)
	mux.HandleFunc("/v1/risk", srvDeps.RiskHandler)
	mux.HandleFunc("/v1/escalation", srvDeps.EscalationHandler)
	mux.HandleFunc("/v1/allocate", srvDeps.AllocateHandler)

	// Fleet
	mux.HandleFunc("/v1/resources", srvDeps.ResourcesHandler)
	mux.HandleFunc("/v1/resources/", srvDeps.ResourceByIDHandler)

	// Subscriptions and live feeds
	mux.HandleFunc("/v1/subscriptions", srvDeps.SubscriptionsHandler)
	mux.HandleFunc("/v1/subscriptions/", srvDeps.SubscriptionByIDHandler)
	mux.HandleFunc("/v1/events/stream", srvDeps.EventsStreamHandler)
	mux.HandleFunc("/v1/ws", srvDeps.DispatchWSHandler)

	// Health and introspection
	mux.HandleFunc("/healthz", srvDeps.HealthHandler)
	mux.HandleFunc("/readyz", srvDeps.ReadyHandler)
	mux.HandleFunc("/debug/info", srvDeps.DebugJSON)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	limiter := api.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           logMiddleware(limiter.Middleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Start webhook worker
	if srvDeps.Pub != nil {
		worker := srvDeps.NewWebhookWorker()
		worker.Start()
	}

	// Scheduled risk sweep over watch locations
	sweeper, err := cronjobs.New(srvDeps.Engine, srvDeps.Broker, srvDeps.Pub, "t_demo", cfg.SweepSchedule, cfg.WatchLocations)
	if err != nil {
		log.Fatalf("failed to init risk sweep: %v", err)
	}
	if err := sweeper.Start(); err != nil {
		log.Fatalf("failed to start risk sweep: %v", err)
	}

	log.Printf("API listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		dur := time.Since(start)
		status := strconv.Itoa(sw.status)
		metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(dur.Seconds())
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush and Hijack pass through so SSE streaming and the WebSocket upgrade
// keep working behind the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijack not supported")
}
