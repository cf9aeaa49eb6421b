package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

// Upstream bodies above this size are rejected.
const maxBodyBytes = 32 << 20

type featureCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type feature struct {
	ID         models.FlexString `json:"id"`
	Properties json.RawMessage   `json:"properties"`
	Geometry   *models.Geometry  `json:"geometry"`
}

// fetchFeatures GETs a GeoJSON FeatureCollection and returns its features.
// Features that are not objects are skipped with a warning.
func (m *Manager) fetchFeatures(ctx context.Context, source models.Source, url string) ([]feature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var fc featureCollection
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&fc); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	features := make([]feature, 0, len(fc.Features))
	for i, raw := range fc.Features {
		var f feature
		if err := json.Unmarshal(raw, &f); err != nil {
			slog.Warn("skipping undecodable feature", "source", source, "index", i, "error", err)
			continue
		}
		features = append(features, f)
	}
	return features, nil
}
