package ingestion

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

// pollESQ fetches current QFES incidents from the ArcGIS feature service.
func (m *Manager) pollESQ(ctx context.Context, endpoint string) ([]models.Incident, error) {
	features, err := m.fetchFeatures(ctx, models.SourceEmergency, endpoint)
	if err != nil {
		return nil, err
	}

	incidents := make([]models.Incident, 0, len(features))
	for _, f := range features {
		e, err := decodeEmergencyIncident(f)
		if err != nil {
			slog.Warn("skipping malformed emergency incident", "id", f.ID, "error", err)
			continue
		}
		incidents = append(incidents, models.NewEmergencyIncident(e))
	}
	return incidents, nil
}

func decodeEmergencyIncident(f feature) (*models.EmergencyIncident, error) {
	var e models.EmergencyIncident
	if len(f.Properties) > 0 {
		if err := json.Unmarshal(f.Properties, &e); err != nil {
			return nil, err
		}
	}
	if e.ObjectID == "" {
		e.ObjectID = f.ID
	}
	if f.Geometry != nil {
		e.Geometry = *f.Geometry
	}
	return &e, nil
}
