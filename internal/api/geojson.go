package api

import (
	"strings"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON renders map markers. Incidents without a position are left out.
func toGeoJSON(incs []models.UnifiedIncident) FeatureCollection {
	features := make([]Feature, 0, len(incs))

	for _, u := range incs {
		pos, ok := u.Coordinates()
		if !ok {
			continue
		}

		f := Feature{
			Type: "Feature",
			ID:   u.ID,
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{pos.Longitude, pos.Latitude},
			},
			Properties: map[string]any{
				"id":          u.ID,
				"source":      u.Source,
				"title":       u.Title,
				"description": u.Description,
				"location":    u.Location,
				"category":    u.Category,
				"subcategory": u.Subcategory,
				"icon":        u.Icon,
				"color":       u.Color,
				"status":      u.Status,
				"timestamp":   u.Timestamp,
				"timeLabel":   u.TimeLabel,
				"popup":       popup(u),
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// popup is the plain-text marker summary: title, location, then age.
func popup(u models.UnifiedIncident) string {
	var lines []string
	for _, s := range []string{u.Title, u.Location, u.TimeLabel} {
		if s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}
