package feed

import (
	"math"
	"strings"
	"time"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

const earthRadiusKm = 6371.0

// Filter is the shared filter state every list surface applies. Zero
// values mean "no constraint".
type Filter struct {
	Sources    []models.Source
	Categories []string // ids or display names
	Statuses   []string
	Home       *models.Coordinates
	RadiusKm   float64
	Locality   string
	Since      time.Time
	Limit      int
}

func (f Filter) WantsSource(s models.Source) bool {
	if len(f.Sources) == 0 {
		return true
	}
	for _, want := range f.Sources {
		if want == s {
			return true
		}
	}
	return false
}

// Match reports whether u passes every active constraint. With a radius
// set, incidents without coordinates never match.
func (f Filter) Match(u models.UnifiedIncident) bool {
	if !f.WantsSource(u.Source) {
		return false
	}

	if len(f.Categories) > 0 && !containsFold(f.Categories, u.CategoryID, u.Category) {
		return false
	}

	if len(f.Statuses) > 0 && !containsFold(f.Statuses, u.Status) {
		return false
	}

	if f.Locality != "" && !strings.Contains(strings.ToLower(u.Location), strings.ToLower(f.Locality)) {
		return false
	}

	if !f.Since.IsZero() && u.Timestamp.Before(f.Since) {
		return false
	}

	if f.Home != nil && f.RadiusKm > 0 {
		c, ok := u.Coordinates()
		if !ok {
			return false
		}
		if DistanceKm(*f.Home, c) > f.RadiusKm {
			return false
		}
	}

	return true
}

// Apply returns the matching incidents in input order, truncated to Limit.
func (f Filter) Apply(incs []models.UnifiedIncident) []models.UnifiedIncident {
	out := make([]models.UnifiedIncident, 0, len(incs))
	for _, u := range incs {
		if !f.Match(u) {
			continue
		}
		out = append(out, u)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// DistanceKm is the great-circle distance between a and b.
func DistanceKm(a, b models.Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func containsFold(set []string, values ...string) bool {
	for _, want := range set {
		for _, v := range values {
			if v != "" && strings.EqualFold(want, v) {
				return true
			}
		}
	}
	return false
}
