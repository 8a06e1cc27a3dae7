package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/api"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/config"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/metrics"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	srv, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}
	metrics.RegisterDefault()

	mux := http.NewServeMux()

	// Orders & trucks
	mux.HandleFunc("/v1/orders", srv.OrdersHandler)
	mux.HandleFunc("/v1/orders/", srv.OrderByIDHandler)
	mux.HandleFunc("/v1/trucks", srv.TrucksHandler)
	mux.HandleFunc("/v1/trucks/", srv.TruckByIDHandler)

	// Missions
	mux.HandleFunc("/v1/missions", srv.MissionsHandler)
	mux.HandleFunc("/v1/missions/", srv.MissionByIDHandler) // includes /events/stream

	// Fleet sizing
	mux.HandleFunc("/v1/fleet/size", srv.FleetSizeHandler)

	// Health
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)

	// Metrics
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	addr := ":" + cfg.Port

	server := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(api.Instrument(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("API listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		dur := time.Since(start)
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
	})
}
