package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/you/go-agri-market/internal/market"
	"github.com/you/go-agri-market/internal/service"
)

// refDate resolves the optional date=YYYY-MM-DD parameter. The wall clock is
// only consulted here, at the edge; everything below takes the date as an
// explicit argument.
func refDate(r *http.Request) (time.Time, error) {
	if d := r.URL.Query().Get("date"); d != "" {
		return time.Parse("2006-01-02", d)
	}
	return time.Now().UTC(), nil
}

func TrendHandler(svc *service.PriceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		commodity := q.Get("commodity")
		region := q.Get("region")
		if commodity == "" || region == "" {
			http.Error(w, "commodity and region are required", http.StatusBadRequest)
			return
		}
		date, err := refDate(r)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		res, err := svc.Trend(r.Context(), commodity, region, q.Get("period"), date)
		if err != nil {
			writeTrendError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}
}

func CompareHandler(svc *service.PriceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		commodity := q.Get("commodity")
		regions := splitList(q.Get("regions"))
		if commodity == "" || len(regions) == 0 {
			http.Error(w, "commodity and regions are required", http.StatusBadRequest)
			return
		}
		date, err := refDate(r)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		res, err := svc.CompareRegions(r.Context(), commodity, regions, q.Get("period"), date)
		if err != nil {
			writeTrendError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}
}

// CommoditiesHandler lists the commodity keys the simulator has reference
// data for, so pickers don't have to hardcode them.
func CommoditiesHandler(table *market.ReferenceTable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys := table.Commodities()
		sort.Strings(keys)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(keys)
	}
}

func HarvestHandler(h *service.HarvestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := refDate(r)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		activity := h.Activity(r.URL.Query().Get("commodity"), date)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(activity)
	}
}

func writeTrendError(w http.ResponseWriter, err error) {
	if errors.Is(err, market.ErrUnknownCommodity) {
		// distinct from the missing-parameter case: the request was well
		// formed, we just have no reference data for this commodity
		http.Error(w, "data unavailable for this commodity", http.StatusNotFound)
		return
	}
	if errors.Is(err, market.ErrInvalidWindow) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SubscribeSSEHandler streams fresh simulations for a commodity/region pair
// on a fixed interval. Route shape: /sse/{commodity}/{region}?period=30d
func SubscribeSSEHandler(svc *service.PriceService, interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commodity, region, ok := pathPair(r, "/sse/")
		if !ok {
			http.Error(w, "use /sse/{commodity}/{region}?period=30d", 400)
			return
		}
		period := r.URL.Query().Get("period")

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", 500)
			return
		}

		updateTick := time.NewTicker(interval)
		defer updateTick.Stop()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				log.Println("SSE client closed")
				return

			case <-updateTick.C:
				res, err := svc.Trend(ctx, commodity, region, period, time.Now().UTC())
				if err != nil {
					fmt.Fprintf(w, "event: error\ndata: %q\n\n", err.Error())
					flusher.Flush()
					return
				}
				payload, _ := json.Marshal(res)
				fmt.Fprintf(w, "event: update\ndata: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // in prod, restrict origin
	},
}

func SubscribeWSHandler(svc *service.PriceService, interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commodity, region, ok := pathPair(r, "/ws/")
		if !ok {
			http.Error(w, "use /ws/{commodity}/{region}?period=30d", 400)
			return
		}
		period := r.URL.Query().Get("period")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		ctx := r.Context()
		for {
			res, err := svc.Trend(ctx, commodity, region, period, time.Now().UTC())
			if err != nil {
				conn.WriteJSON(map[string]string{"error": err.Error()})
				return
			}
			if err := conn.WriteJSON(res); err != nil {
				log.Printf("write error: %v", err)
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				continue
			}
		}
	}
}

func pathPair(r *http.Request, prefix string) (string, string, bool) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
