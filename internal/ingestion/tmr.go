package ingestion

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

// pollTMR fetches current QLDTraffic events.
func (m *Manager) pollTMR(ctx context.Context, endpoint string) ([]models.Incident, error) {
	if key := m.cfg.Sources.TMRAPIKey; key != "" {
		u, err := url.Parse(endpoint)
		if err == nil {
			q := u.Query()
			q.Set("apikey", key)
			u.RawQuery = q.Encode()
			endpoint = u.String()
		}
	}

	features, err := m.fetchFeatures(ctx, models.SourceTMR, endpoint)
	if err != nil {
		return nil, err
	}

	incidents := make([]models.Incident, 0, len(features))
	for _, f := range features {
		e, err := decodeTrafficEvent(f)
		if err != nil {
			slog.Warn("skipping malformed traffic event", "id", f.ID, "error", err)
			continue
		}
		incidents = append(incidents, models.NewTrafficIncident(e))
	}
	return incidents, nil
}

func decodeTrafficEvent(f feature) (*models.TrafficEvent, error) {
	var e models.TrafficEvent
	if len(f.Properties) > 0 {
		if err := json.Unmarshal(f.Properties, &e); err != nil {
			return nil, err
		}
	}
	if e.ID == "" {
		e.ID = f.ID
	}
	if f.Geometry != nil {
		e.Geometry = *f.Geometry
	}
	return &e, nil
}
