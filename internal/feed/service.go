package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

// Store is the subset of persistence the feed reads from.
type Store interface {
	ListIncidents(ctx context.Context, source models.Source) ([]models.Incident, error)
	ActiveAds(ctx context.Context, suburb string) ([]models.AdCampaign, error)
}

type Service struct {
	store    Store
	adStride int
	now      func() time.Time
}

func NewService(store Store, adStride int) *Service {
	return &Service{
		store:    store,
		adStride: adStride,
		now:      time.Now,
	}
}

var allSources = []models.Source{models.SourceTMR, models.SourceEmergency, models.SourceUser}

// Unified loads every wanted source concurrently and returns the deduped,
// recency-ordered and filtered list. The first failing load cancels the rest.
func (s *Service) Unified(ctx context.Context, f Filter) ([]models.UnifiedIncident, error) {
	sets := make([][]models.Incident, len(allSources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range allSources {
		if !f.WantsSource(src) {
			continue
		}
		g.Go(func() error {
			incs, err := s.store.ListIncidents(gctx, src)
			if err != nil {
				return fmt.Errorf("error loading %s incidents: %w", src, err)
			}
			sets[i] = incs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return f.Apply(Merge(s.now(), sets...)), nil
}

// Feed is Unified with ads for suburb interleaved. A failed ad lookup
// degrades to an ad-free feed.
func (s *Service) Feed(ctx context.Context, f Filter, suburb string) ([]Item, error) {
	incs, err := s.Unified(ctx, f)
	if err != nil {
		return nil, err
	}

	ads, err := s.store.ActiveAds(ctx, suburb)
	if err != nil {
		slog.Warn("error loading ads, serving feed without them", "suburb", suburb, "error", err)
		ads = nil
	}

	return Compose(incs, ads, s.adStride), nil
}
