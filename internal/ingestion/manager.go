package ingestion

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mr1hm/go-safety-feed/internal/config"
	"github.com/mr1hm/go-safety-feed/internal/incident"
	"github.com/mr1hm/go-safety-feed/internal/models"
	"github.com/mr1hm/go-safety-feed/internal/repository"
	"github.com/mr1hm/go-safety-feed/internal/stream"
	"github.com/mr1hm/go-safety-feed/internal/worker"
)

type job struct {
	incident models.Incident
	seenAt   time.Time
}

type Manager struct {
	cfg         *config.Config
	repo        repository.IncidentRepository
	broadcaster *stream.Broadcaster
	client      *http.Client
	pool        *worker.Pool[job]
	wg          sync.WaitGroup
	now         func() time.Time
}

func NewManager(cfg *config.Config, repo repository.IncidentRepository, broadcaster *stream.Broadcaster) *Manager {
	timeout := cfg.Sources.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Manager{
		cfg:         cfg,
		repo:        repo,
		broadcaster: broadcaster,
		client:      &http.Client{Timeout: timeout},
		now:         time.Now,
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.pool = worker.NewPool("ingestion", m.cfg.Worker.Count, m.cfg.Worker.BufferSize, m.process)
	m.pool.Start(ctx)

	if m.cfg.Sources.TMREnabled {
		m.wg.Add(1)
		go m.runPoller(ctx, models.SourceTMR, m.cfg.Sources.TMRURL, m.cfg.Sources.TMRPollInterval)
	}

	if m.cfg.Sources.ESQEnabled {
		m.wg.Add(1)
		go m.runPoller(ctx, models.SourceEmergency, m.cfg.Sources.ESQURL, m.cfg.Sources.ESQPollInterval)
	}
}

// process upserts one incident and broadcasts it when the stored copy changed.
func (m *Manager) process(ctx context.Context, j job) error {
	id := incident.ID(j.incident)

	changed, err := m.repo.UpsertIncident(ctx, j.incident, j.seenAt)
	if err != nil {
		slog.Error("error upserting incident", "id", id, "error", err)
		return err
	}
	if !changed {
		return nil
	}

	if m.broadcaster != nil {
		u := incident.Unify(j.incident, m.now())
		m.broadcaster.Broadcast(&u)
	}

	slog.Debug("stored incident", "id", id, "source", j.incident.Source)
	return nil
}

func (m *Manager) runPoller(ctx context.Context, source models.Source, url string, interval time.Duration) {
	defer m.wg.Done()
	slog.Info("starting poller", "source", source, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.poll(ctx, source, url, interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("poller shutting down", "source", source)
			return
		case <-ticker.C:
			m.poll(ctx, source, url, interval)
		}
	}
}

func (m *Manager) poll(ctx context.Context, source models.Source, url string, interval time.Duration) {
	slog.Debug("polling", "source", source)
	seenAt := m.now()

	var (
		incidents []models.Incident
		err       error
	)

	switch source {
	case models.SourceTMR:
		incidents, err = m.pollTMR(ctx, url)
	case models.SourceEmergency:
		incidents, err = m.pollESQ(ctx, url)
	default:
		slog.Error("no poller for source", "source", source)
		return
	}
	if err != nil {
		slog.Error("poll failed", "source", source, "error", err)
		return
	}

	// Rows in this fetch may not be written yet, so they are kept explicitly.
	fetched := make([]string, len(incidents))
	for i, inc := range incidents {
		fetched[i] = incident.ID(inc)
	}
	cutoff := seenAt.Add(-time.Duration(max(m.cfg.Sources.StaleAfter, 1)) * interval)
	if n, err := m.repo.PruneStale(ctx, source, cutoff, fetched); err != nil {
		slog.Error("prune failed", "source", source, "error", err)
	} else if n > 0 {
		slog.Info("pruned stale incidents", "source", source, "count", n)
	}

	for _, inc := range incidents {
		if err := m.pool.Submit(ctx, job{incident: inc, seenAt: seenAt}); err != nil {
			slog.Warn("poll interrupted", "source", source, "error", err)
			return
		}
	}

	slog.Debug("poll complete", "source", source, "count", len(incidents))
}

func (m *Manager) Stop() {
	m.wg.Wait()
	if m.pool != nil {
		m.pool.Stop()
	}
	slog.Info("ingestion manager stopped")
}
