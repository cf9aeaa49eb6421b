package feed

import (
	"time"

	"github.com/mr1hm/go-safety-feed/internal/incident"
	"github.com/mr1hm/go-safety-feed/internal/models"
)

const DefaultAdStride = 6

type ItemKind string

const (
	KindIncident ItemKind = "incident"
	KindAd       ItemKind = "ad"
)

// Item is one card in the composed feed.
type Item struct {
	Kind     ItemKind                `json:"type"`
	Incident *models.UnifiedIncident `json:"incident,omitempty"`
	Ad       *models.AdCampaign      `json:"ad,omitempty"`
}

// Merge unifies every source set, dedupes by identity key and orders the
// result newest first.
func Merge(now time.Time, sets ...[]models.Incident) []models.UnifiedIncident {
	var all []models.UnifiedIncident
	for _, set := range sets {
		all = append(all, incident.UnifyAll(set, now)...)
	}
	merged := incident.Dedupe(all)
	incident.SortByRecency(merged)
	return merged
}

// Compose interleaves one ad after every stride incidents, so with a stride
// of 6 ads sit at indices 6, 13, 20 and so on. Each ad is used at most once;
// once they run out the remaining incidents follow unbroken.
func Compose(incs []models.UnifiedIncident, ads []models.AdCampaign, stride int) []Item {
	if stride <= 0 {
		stride = DefaultAdStride
	}

	items := make([]Item, 0, len(incs)+min(len(ads), len(incs)/stride))
	next := 0
	for i := range incs {
		items = append(items, Item{Kind: KindIncident, Incident: &incs[i]})
		if (i+1)%stride == 0 && next < len(ads) {
			items = append(items, Item{Kind: KindAd, Ad: &ads[next]})
			next++
		}
	}
	return items
}
