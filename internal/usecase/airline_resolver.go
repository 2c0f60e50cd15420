package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"flightwatch-bot/internal/domain/repository"
	"flightwatch-bot/pkg/utils"
)

var defaultAirlines = map[string]string{
	"aer lingus":         "EI",
	"aeromexico":         "AM",
	"air canada":         "AC",
	"air china":          "CA",
	"air france":         "AF",
	"air india":          "AI",
	"air new zealand":    "NZ",
	"alaska airlines":    "AS",
	"american airlines":  "AA",
	"ana":                "NH",
	"british airways":    "BA",
	"cathay pacific":     "CX",
	"delta":              "DL",
	"easyjet":            "U2",
	"emirates":           "EK",
	"etihad":             "EY",
	"finnair":            "AY",
	"garuda indonesia":   "GA",
	"iberia":             "IB",
	"japan airlines":     "JL",
	"jetblue":            "B6",
	"klm":                "KL",
	"korean air":         "KE",
	"lufthansa":          "LH",
	"qantas":             "QF",
	"qatar airways":      "QR",
	"ryanair":            "FR",
	"scandinavian":       "SK",
	"singapore airlines": "SQ",
	"southwest":          "WN",
	"swiss":              "LX",
	"tap air portugal":   "TP",
	"thai airways":       "TG",
	"turkish airlines":   "TK",
	"united airlines":    "UA",
	"virgin atlantic":    "VS",
	"vueling":            "VY",
	"wizz air":           "W6",
}

// AirlineResolver maps free-text airline names to carrier codes
type AirlineResolver struct {
	mu     sync.RWMutex
	byName map[string]string
	names  []string
	codes  map[string]string

	reference repository.AirlineRepository
}

// NewAirlineResolver creates a resolver seeded with well-known carriers
func NewAirlineResolver() *AirlineResolver {
	r := &AirlineResolver{}
	r.reset(defaultAirlines)
	return r
}

// LoadFrom merges the airline reference table into the resolver
func (r *AirlineResolver) LoadFrom(ctx context.Context, repo repository.AirlineRepository) (int, error) {
	airlines, err := repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list airlines: %w", err)
	}

	r.mu.RLock()
	merged := make(map[string]string, len(r.byName)+len(airlines))
	for name, code := range r.byName {
		merged[name] = code
	}
	r.mu.RUnlock()

	added := 0
	for _, a := range airlines {
		name := strings.ToLower(strings.TrimSpace(a.Name))
		code := strings.ToUpper(strings.TrimSpace(a.Code))
		if name == "" || code == "" {
			continue
		}
		if _, ok := merged[name]; !ok {
			added++
		}
		merged[name] = code
	}
	r.reset(merged)

	r.mu.Lock()
	r.reference = repo
	r.mu.Unlock()
	return added, nil
}

func (r *AirlineResolver) reset(table map[string]string) {
	names := make([]string, 0, len(table))
	codes := make(map[string]string, len(table))
	byName := make(map[string]string, len(table))
	for name, code := range table {
		byName[name] = code
		names = append(names, name)
		if _, ok := codes[code]; !ok {
			codes[code] = name
		}
	}
	sort.Strings(names)

	r.mu.Lock()
	r.byName = byName
	r.names = names
	r.codes = codes
	r.mu.Unlock()
}

// Resolve returns the carrier code for input. Exact name or code wins,
// then substring containment in either direction, then input itself when
// it is shaped like a carrier code.
func (r *AirlineResolver) Resolve(input string) (string, bool) {
	query := strings.ToLower(strings.TrimSpace(input))
	if query == "" {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if code, ok := r.byName[query]; ok {
		return code, true
	}
	upper := strings.ToUpper(query)
	if _, ok := r.codes[upper]; ok {
		return upper, true
	}
	if len(query) >= 3 {
		for _, name := range r.names {
			if strings.Contains(name, query) || strings.Contains(query, name) {
				return r.byName[name], true
			}
		}
	}
	if utils.IsCarrierCode(upper) {
		return upper, true
	}
	return "", false
}

// Name returns a display name for code, or code itself. Codes missing from
// the table are looked up in the reference data and remembered.
func (r *AirlineResolver) Name(ctx context.Context, code string) string {
	upper := strings.ToUpper(strings.TrimSpace(code))

	r.mu.RLock()
	name, ok := r.codes[upper]
	reference := r.reference
	r.mu.RUnlock()
	if ok {
		return utils.TitleCase(name)
	}
	if reference == nil || !utils.IsCarrierCode(upper) {
		return code
	}

	airline, err := reference.GetByCode(ctx, upper)
	if err != nil || strings.TrimSpace(airline.Name) == "" {
		return code
	}
	name = strings.ToLower(strings.TrimSpace(airline.Name))

	r.mu.Lock()
	if _, exists := r.codes[upper]; !exists {
		r.codes[upper] = name
	}
	r.mu.Unlock()
	return utils.TitleCase(name)
}
