package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fieldnav/internal/api"
	"fieldnav/internal/catalog"
	"fieldnav/internal/config"
	"fieldnav/internal/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	srvDeps, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}
	metrics.RegisterDefault()

	// Optional catalog preload
	if path := os.Getenv("SITES_CSV"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("failed to open %s: %v", path, err)
		}
		cat, err := catalog.LoadCSV(f)
		f.Close()
		if err != nil {
			log.Fatalf("failed to load catalog: %v", err)
		}
		if err := srvDeps.LoadCatalog(cat.Sites()); err != nil {
			log.Fatalf("failed to load catalog: %v", err)
		}
		log.Printf("catalog loaded: %d sites, %d zones", cat.Len(), len(cat.Zones().Zones()))
	}

	mux := http.NewServeMux()

	// Catalog
	mux.HandleFunc("/v1/catalog", srvDeps.CatalogHandler)
	mux.HandleFunc("/v1/catalog/zones", srvDeps.ZonesHandler)

	// Simulation
	mux.HandleFunc("/v1/simulate", srvDeps.SimulateHandler)

	// Competitions
	mux.HandleFunc("/v1/competitions", srvDeps.CompetitionsHandler)
	mux.HandleFunc("/v1/competitions/", srvDeps.CompetitionByIDHandler) // includes /standings, /days, /events/stream

	// WebSocket event feed
	mux.HandleFunc("/v1/stream/ws", srvDeps.EventsWSHandler)

	// Admin
	mux.HandleFunc("/v1/admin/stats", srvDeps.StatsHandler)
	mux.HandleFunc("/v1/debug", srvDeps.DebugJSON)

	// Docs
	mux.HandleFunc("/openapi.yaml", srvDeps.OpenAPIHandler)
	mux.HandleFunc("/docs", srvDeps.DocsHandler)

	// Health
	mux.HandleFunc("/healthz", srvDeps.HealthHandler)
	mux.HandleFunc("/readyz", srvDeps.ReadyHandler)
	mux.HandleFunc("/version", srvDeps.VersionHandler)

	// Metrics
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           srvDeps.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("API listening on %s", addr)
	if srvDeps.Hooks != nil {
		srvDeps.Hooks.Start()
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
