package api

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-safety-feed/internal/feed"
	"github.com/mr1hm/go-safety-feed/internal/models"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// parseFilter reads the shared filter state from the query string:
// sources, categories, status, lat, lng, radius_km, locality, since, limit.
func parseFilter(c *gin.Context) (feed.Filter, error) {
	f := feed.Filter{Limit: defaultLimit}

	for _, s := range splitList(c.Query("sources")) {
		src, err := models.ParseSource(s)
		if err != nil {
			return f, err
		}
		f.Sources = append(f.Sources, src)
	}
	f.Categories = splitList(c.Query("categories"))
	f.Statuses = splitList(c.Query("status"))
	f.Locality = strings.TrimSpace(c.Query("locality"))

	lat, lng := c.Query("lat"), c.Query("lng")
	if lat != "" || lng != "" {
		home, err := parseCoordinates(lat, lng)
		if err != nil {
			return f, err
		}
		f.Home = &home
	}
	if r := c.Query("radius_km"); r != "" {
		radius, err := parseFinite(r)
		if err != nil || radius < 0 {
			return f, fmt.Errorf("invalid radius_km %q", r)
		}
		if f.Home == nil {
			return f, fmt.Errorf("radius_km requires lat and lng")
		}
		f.RadiusKm = radius
	}

	if s := c.Query("since"); s != "" {
		since, err := models.ParseTime(s)
		if err != nil {
			return f, fmt.Errorf("invalid since: %w", err)
		}
		f.Since = since
	}

	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= maxLimit {
			f.Limit = lim
		}
	}

	return f, nil
}

func parseCoordinates(lat, lng string) (models.Coordinates, error) {
	la, err := parseFinite(lat)
	if err != nil || la < -90 || la > 90 {
		return models.Coordinates{}, fmt.Errorf("invalid lat %q", lat)
	}
	ln, err := parseFinite(lng)
	if err != nil || ln < -180 || ln > 180 {
		return models.Coordinates{}, fmt.Errorf("invalid lng %q", lng)
	}
	return models.Coordinates{Latitude: la, Longitude: ln}, nil
}

// parseFinite is strconv.ParseFloat without NaN or the infinities.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
