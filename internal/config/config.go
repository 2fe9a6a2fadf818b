package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Reference data is shaped as lists of records rather than name-keyed maps:
// viper lowercases map keys, which would mangle the display-cased commodity
// and province names we match exactly against.

// CommodityEntry is one configured commodity: market name, national base
// price (IDR per kg/liter) and whether rain drives its price.
type CommodityEntry struct {
	Name               string
	BasePrice          float64
	WetSeasonSensitive bool
}

// RegionEntry maps a province to its cost-of-living multiplier.
type RegionEntry struct {
	Name       string
	Multiplier float64
}

// Province is a map-dashboard pin.
type Province struct {
	Name string
	Lat  float64
	Lon  float64
}

// CropSeason is the planting/harvest month calendar for one crop.
type CropSeason struct {
	Planting []int
	Harvest  []int
	Icon     string
}

type Config struct {
	ListenAddr     string
	JWTSecret      string
	JWTUser        string
	JWTPassword    string
	CacheTTL       time.Duration
	StreamInterval time.Duration
	TLSCertFile    string
	TLSKeyFile     string

	// SimSeed pins the simulation rng for reproducible deployments.
	// Zero means seed from entropy per request.
	SimSeed int64

	// Reference data. Adding a commodity or region is a config edit,
	// never a code change.
	Commodities  []CommodityEntry
	Regions      []RegionEntry
	Holidays     map[int]time.Time // year -> peak-demand holiday (Idul Fitri)
	Provinces    []Province
	CropCalendar map[string]CropSeason
}

func Load() *Config {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("auth_user", "demo")
	v.SetDefault("auth_pass", "demo123")
	v.SetDefault("cache_ttl", "30s")
	v.SetDefault("stream_interval", "30s")
	v.SetDefault("sim_seed", 0)

	v.SetDefault("commodities", []any{
		map[string]any{"name": "Cabai Merah Keriting", "base_price": 48000, "wet_season_sensitive": true},
		map[string]any{"name": "Bawang Merah", "base_price": 35000, "wet_season_sensitive": true},
		map[string]any{"name": "Beras Medium", "base_price": 13500},
	})
	v.SetDefault("regions", []any{
		map[string]any{"name": "Jawa Timur", "multiplier": 1.0},
		map[string]any{"name": "Jawa Barat", "multiplier": 1.05},
		map[string]any{"name": "Sumatera Utara", "multiplier": 1.1},
		map[string]any{"name": "Sulawesi Selatan", "multiplier": 1.15},
	})
	// Idul Fitri moves ~11 days earlier each year; keep a few years configured.
	v.SetDefault("holidays", []any{
		map[string]any{"year": 2024, "date": "2024-04-10"},
		map[string]any{"year": 2025, "date": "2025-03-29"},
		map[string]any{"year": 2026, "date": "2026-03-20"},
	})
	v.SetDefault("provinces", []any{
		map[string]any{"name": "Jawa Timur", "lat": -7.5361, "lon": 112.2384},
		map[string]any{"name": "Jawa Barat", "lat": -6.9175, "lon": 107.6191},
		map[string]any{"name": "Jawa Tengah", "lat": -7.1509, "lon": 110.1402},
		map[string]any{"name": "Sumatera Utara", "lat": 2.1154, "lon": 99.5451},
		map[string]any{"name": "Sulawesi Selatan", "lat": -3.6447, "lon": 119.9975},
		map[string]any{"name": "Lampung", "lat": -4.5586, "lon": 105.4068},
		map[string]any{"name": "Bali", "lat": -8.4095, "lon": 115.1889},
	})
	v.SetDefault("crop_calendar", []any{
		map[string]any{"name": "Padi", "planting": []any{11, 12, 1, 5, 6}, "harvest": []any{3, 4, 8, 9}, "icon": "🌾"},
		map[string]any{"name": "Jagung", "planting": []any{11, 12, 4, 5}, "harvest": []any{2, 3, 7, 8}, "icon": "🌽"},
		map[string]any{"name": "Cabai Merah", "planting": []any{4, 5}, "harvest": []any{7, 8, 9}, "icon": "🌶️"},
		map[string]any{"name": "Bawang Merah", "planting": []any{3, 4}, "harvest": []any{6, 7, 8}, "icon": "🧅"},
		map[string]any{"name": "Kelapa Sawit", "planting": []any{}, "harvest": []any{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, "icon": "🌴"},
	})

	if path := os.Getenv("AGRIMARKET_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		// Fallback to conventional locations for local dev
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/agrimarket") // container path
	}

	if err := v.ReadInConfig(); err != nil {
		log.Printf("no config file found, using defaults + env vars: %v", err)
	}

	v.AutomaticEnv()

	ttl, err := time.ParseDuration(v.GetString("cache_ttl"))
	if err != nil {
		log.Fatalf("bad cache_ttl: %v", err)
	}
	interval, err := time.ParseDuration(v.GetString("stream_interval"))
	if err != nil {
		log.Fatalf("bad stream_interval: %v", err)
	}

	commodities, err := parseCommodities(cast.ToSlice(v.Get("commodities")))
	if err != nil {
		log.Fatalf("bad commodities: %v", err)
	}
	regions, err := parseRegions(cast.ToSlice(v.Get("regions")))
	if err != nil {
		log.Fatalf("bad regions: %v", err)
	}
	holidays, err := parseHolidays(cast.ToSlice(v.Get("holidays")))
	if err != nil {
		log.Fatalf("bad holidays: %v", err)
	}
	provinces, err := parseProvinces(cast.ToSlice(v.Get("provinces")))
	if err != nil {
		log.Fatalf("bad provinces: %v", err)
	}
	crops, err := parseCropCalendar(cast.ToSlice(v.Get("crop_calendar")))
	if err != nil {
		log.Fatalf("bad crop_calendar: %v", err)
	}

	return &Config{
		ListenAddr:     v.GetString("listen_addr"),
		JWTSecret:      v.GetString("jwt_secret"),
		JWTUser:        v.GetString("auth_user"),
		JWTPassword:    v.GetString("auth_pass"),
		CacheTTL:       ttl,
		StreamInterval: interval,
		TLSCertFile:    os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:     os.Getenv("TLS_KEY_FILE"),
		SimSeed:        v.GetInt64("sim_seed"),
		Commodities:    commodities,
		Regions:        regions,
		Holidays:       holidays,
		Provinces:      provinces,
		CropCalendar:   crops,
	}
}

func parseCommodities(in []any) ([]CommodityEntry, error) {
	out := make([]CommodityEntry, 0, len(in))
	for _, raw := range in {
		m := cast.ToStringMap(raw)
		e := CommodityEntry{
			Name:               cast.ToString(m["name"]),
			BasePrice:          cast.ToFloat64(m["base_price"]),
			WetSeasonSensitive: cast.ToBool(m["wet_season_sensitive"]),
		}
		if e.Name == "" {
			return nil, fmt.Errorf("commodity entry without a name: %v", raw)
		}
		out = append(out, e)
	}
	return out, nil
}

func parseRegions(in []any) ([]RegionEntry, error) {
	out := make([]RegionEntry, 0, len(in))
	for _, raw := range in {
		m := cast.ToStringMap(raw)
		e := RegionEntry{
			Name:       cast.ToString(m["name"]),
			Multiplier: cast.ToFloat64(m["multiplier"]),
		}
		if e.Name == "" {
			return nil, fmt.Errorf("region entry without a name: %v", raw)
		}
		out = append(out, e)
	}
	return out, nil
}

func parseHolidays(in []any) (map[int]time.Time, error) {
	out := make(map[int]time.Time, len(in))
	for _, raw := range in {
		m := cast.ToStringMap(raw)
		year := cast.ToInt(m["year"])
		if year == 0 {
			return nil, fmt.Errorf("holiday entry without a year: %v", raw)
		}
		d, err := time.Parse("2006-01-02", cast.ToString(m["date"]))
		if err != nil {
			return nil, fmt.Errorf("holiday for %d: %w", year, err)
		}
		out[year] = d
	}
	return out, nil
}

func parseProvinces(in []any) ([]Province, error) {
	out := make([]Province, 0, len(in))
	for _, raw := range in {
		m := cast.ToStringMap(raw)
		p := Province{
			Name: cast.ToString(m["name"]),
			Lat:  cast.ToFloat64(m["lat"]),
			Lon:  cast.ToFloat64(m["lon"]),
		}
		if p.Name == "" {
			return nil, fmt.Errorf("province entry without a name: %v", raw)
		}
		out = append(out, p)
	}
	return out, nil
}

func parseCropCalendar(in []any) (map[string]CropSeason, error) {
	out := make(map[string]CropSeason, len(in))
	for _, raw := range in {
		m := cast.ToStringMap(raw)
		name := cast.ToString(m["name"])
		if name == "" {
			return nil, fmt.Errorf("crop entry without a name: %v", raw)
		}
		season := CropSeason{
			Planting: cast.ToIntSlice(m["planting"]),
			Harvest:  cast.ToIntSlice(m["harvest"]),
			Icon:     cast.ToString(m["icon"]),
		}
		for _, month := range append(append([]int{}, season.Planting...), season.Harvest...) {
			if month < 1 || month > 12 {
				return nil, fmt.Errorf("crop %q: month %d out of range", name, month)
			}
		}
		out[name] = season
	}
	return out, nil
}
