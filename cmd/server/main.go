package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/you/go-agri-market/internal/auth"
	"github.com/you/go-agri-market/internal/config"
	"github.com/you/go-agri-market/internal/httpx"
	"github.com/you/go-agri-market/internal/market"
	"github.com/you/go-agri-market/internal/narrate"
	"github.com/you/go-agri-market/internal/service"
)

func main() {

	// Loading config
	cfg := config.Load()

	// Building the static reference tables out of config data
	table, err := market.NewReferenceTable(commodities(cfg), regions(cfg))
	if err != nil {
		log.Fatalf("bad reference data: %v", err)
	}
	calendar := market.NewCalendar(cfg.Holidays)
	sim := market.NewSimulator(table, calendar)

	// Creating services
	priceSvc := service.NewPriceService(sim, narrate.NewTemplate(), cfg.SimSeed, cfg.CacheTTL)
	harvestSvc := service.NewHarvestService(cfg.Provinces, cfg.CropCalendar)

	publicMux := http.NewServeMux()

	// Public: login to get JWT
	publicMux.HandleFunc("/auth/login", auth.LoginHandler(cfg))

	// Protected group with JWT
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("/market/commodities", httpx.CommoditiesHandler(table))
	protectedMux.HandleFunc("/market/trend", httpx.TrendHandler(priceSvc))
	protectedMux.HandleFunc("/market/compare", httpx.CompareHandler(priceSvc))
	protectedMux.HandleFunc("/harvest/calendar", httpx.HarvestHandler(harvestSvc))
	protectedMux.HandleFunc("/sse/", httpx.SubscribeSSEHandler(priceSvc, cfg.StreamInterval)) // /sse/Bawang Merah/Jawa Timur?period=30d
	protectedMux.HandleFunc("/ws/", httpx.SubscribeWSHandler(priceSvc, cfg.StreamInterval))

	// handler to control authenticated routes
	root := auth.JWTMiddleware(publicMux, protectedMux, cfg)

	// Creation of HTTP server
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           root,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      0,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Running http server on a secondary thread
	go func() {
		log.Printf("\n➡️ Server listening on http://localhost%s\n", srv.Addr)
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			log.Println("🔐 TLS enabled")
			log.Fatal(srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile))
		} else {
			log.Fatal(srv.ListenAndServe())
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func commodities(cfg *config.Config) []market.Commodity {
	out := make([]market.Commodity, 0, len(cfg.Commodities))
	for _, e := range cfg.Commodities {
		out = append(out, market.Commodity{
			Key:                e.Name,
			BasePrice:          e.BasePrice,
			WetSeasonSensitive: e.WetSeasonSensitive,
		})
	}
	return out
}

func regions(cfg *config.Config) []market.Region {
	out := make([]market.Region, 0, len(cfg.Regions))
	for _, e := range cfg.Regions {
		out = append(out, market.Region{Key: e.Name, Multiplier: e.Multiplier})
	}
	return out
}
