package incident

import (
	"cmp"
	"slices"
	"time"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

// Unify normalises a tagged incident for display.
func Unify(inc models.Incident, now time.Time) models.UnifiedIncident {
	class := Classify(inc)
	ts := Timestamp(inc)

	u := models.UnifiedIncident{
		ID:          ID(inc),
		Source:      inc.Source,
		Title:       Title(inc),
		Description: Description(inc),
		Location:    Location(inc),
		CategoryID:  class.CategoryID,
		Category:    class.Category,
		Subcategory: class.Subcategory,
		Icon:        class.Icon,
		Color:       class.Color,
		Status:      Status(inc),
		Timestamp:   ts,
		TimeLabel:   TimeLabel(ts, now),
		Properties:  inc,
	}
	if c, ok := Coordinates(inc); ok {
		lat, lng := c.Latitude, c.Longitude
		u.Latitude, u.Longitude = &lat, &lng
	}
	return u
}

func UnifyAll(incs []models.Incident, now time.Time) []models.UnifiedIncident {
	out := make([]models.UnifiedIncident, 0, len(incs))
	for _, inc := range incs {
		out = append(out, Unify(inc, now))
	}
	return out
}

// Dedupe keeps one record per identity key. A record replaces the held one
// only when its timestamp is strictly later; ties keep the first seen.
// Output order is the order keys were first seen.
func Dedupe(incs []models.UnifiedIncident) []models.UnifiedIncident {
	index := make(map[string]int, len(incs))
	out := make([]models.UnifiedIncident, 0, len(incs))

	for _, u := range incs {
		i, seen := index[u.ID]
		if !seen {
			index[u.ID] = len(out)
			out = append(out, u)
			continue
		}
		if u.Timestamp.After(out[i].Timestamp) {
			out[i] = u
		}
	}
	return out
}

// SortByRecency orders newest first. Undated records sort as the epoch, so
// they end up last. The sort is stable.
func SortByRecency(incs []models.UnifiedIncident) {
	slices.SortStableFunc(incs, func(a, b models.UnifiedIncident) int {
		return cmp.Compare(unixOrEpoch(b.Timestamp), unixOrEpoch(a.Timestamp))
	})
}

func unixOrEpoch(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
