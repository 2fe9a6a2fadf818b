package service

import (
	"hash/fnv"
	"math/rand"
	"sort"
	"time"

	"github.com/you/go-agri-market/internal/config"
)

type ProvinceActivity struct {
	Province      string     `json:"province"`
	Coords        [2]float64 `json:"coords"`
	HarvestingNow []string   `json:"harvesting_now"`
}

// HarvestService synthesizes the harvest-activity layer of the map dashboard:
// which crops each province is plausibly harvesting in a given month. There
// is no real agricultural census behind it; each province grows a
// deterministic pseudo-random subset of the configured crops, so the map is
// stable across requests and deployments.
type HarvestService struct {
	provinces []config.Province
	crops     map[string]config.CropSeason
	cropNames []string
}

func NewHarvestService(provinces []config.Province, crops map[string]config.CropSeason) *HarvestService {
	sorted := append([]config.Province(nil), provinces...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	names := make([]string, 0, len(crops))
	for c := range crops {
		names = append(names, c)
	}
	sort.Strings(names)

	return &HarvestService{provinces: sorted, crops: crops, cropNames: names}
}

// Activity reports per-province harvest status for the month of refDate,
// optionally filtered to provinces where the given crop is being harvested
// or planted. Provinces come back sorted by name.
func (h *HarvestService) Activity(cropFilter string, refDate time.Time) []ProvinceActivity {
	month := int(refDate.Month())

	out := make([]ProvinceActivity, 0, len(h.provinces))
	for _, province := range h.provinces {
		grown := h.cropsFor(province.Name)

		var harvesting []string
		for _, crop := range grown {
			if containsMonth(h.crops[crop].Harvest, month) {
				harvesting = append(harvesting, h.crops[crop].Icon+" "+crop)
			}
		}

		if cropFilter != "" {
			inHarvest := false
			for _, crop := range grown {
				if crop == cropFilter && containsMonth(h.crops[crop].Harvest, month) {
					inHarvest = true
				}
			}
			if !inHarvest {
				planting := grownContains(grown, cropFilter) && containsMonth(h.crops[cropFilter].Planting, month)
				if !planting {
					continue
				}
			}
		}

		if len(harvesting) == 0 {
			harvesting = []string{"Planting / maintenance"}
		}
		out = append(out, ProvinceActivity{
			Province:      province.Name,
			Coords:        [2]float64{province.Lat, province.Lon},
			HarvestingNow: harvesting,
		})
	}
	return out
}

// cropsFor picks the 2-4 crops a province grows. The pick is pseudo-random
// but seeded from the province name, so it never changes between calls.
func (h *HarvestService) cropsFor(province string) []string {
	all := append([]string(nil), h.cropNames...)

	hash := fnv.New64a()
	hash.Write([]byte(province))
	rng := rand.New(rand.NewSource(int64(hash.Sum64())))

	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	k := 2 + rng.Intn(3)
	if k > len(all) {
		k = len(all)
	}
	return all[:k]
}

func containsMonth(months []int, m int) bool {
	for _, x := range months {
		if x == m {
			return true
		}
	}
	return false
}

func grownContains(grown []string, crop string) bool {
	for _, g := range grown {
		if g == crop {
			return true
		}
	}
	return false
}
