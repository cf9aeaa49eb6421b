package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mr1hm/go-safety-feed/internal/config"
	"github.com/mr1hm/go-safety-feed/internal/incident"
	"github.com/mr1hm/go-safety-feed/internal/models"
	"github.com/mr1hm/go-safety-feed/internal/repository"
	"github.com/mr1hm/go-safety-feed/internal/stream"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockIncidentRepo implements repository.IncidentRepository with the same
// last-write-wins rule as the SQLite store.
type mockIncidentRepo struct {
	mu        sync.Mutex
	incidents map[string]models.Incident
	seen      map[string]time.Time
	upserts   atomic.Int64
	pruned    atomic.Int64
}

func newMockRepo() *mockIncidentRepo {
	return &mockIncidentRepo{
		incidents: make(map[string]models.Incident),
		seen:      make(map[string]time.Time),
	}
}

func (m *mockIncidentRepo) UpsertIncident(ctx context.Context, inc models.Incident, seenAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts.Add(1)

	id := incident.ID(inc)
	m.seen[id] = seenAt
	if held, ok := m.incidents[id]; ok && !incident.Timestamp(inc).After(incident.Timestamp(held)) {
		return false, nil
	}
	m.incidents[id] = inc
	return true, nil
}

func (m *mockIncidentRepo) GetIncident(ctx context.Context, id string) (models.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incidents[id]
	if !ok {
		return models.Incident{}, repository.ErrNotFound
	}
	return inc, nil
}

func (m *mockIncidentRepo) ListIncidents(ctx context.Context, source models.Source) ([]models.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Incident
	for _, inc := range m.incidents {
		if inc.Source == source {
			out = append(out, inc)
		}
	}
	return out, nil
}

func (m *mockIncidentRepo) DeleteIncident(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.incidents, id)
	return nil
}

func (m *mockIncidentRepo) PruneStale(ctx context.Context, source models.Source, cutoff time.Time, keep []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, inc := range m.incidents {
		if inc.Source == source && m.seen[id].Before(cutoff) && !slices.Contains(keep, id) {
			delete(m.incidents, id)
			n++
		}
	}
	m.pruned.Add(n)
	return n, nil
}

func (m *mockIncidentRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.incidents)
}

const tmrBody = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [153.4, -28.0]},
			"properties": {
				"id": 1001,
				"event_type": "Crash",
				"description": "Multi-vehicle crash",
				"status": "Published",
				"road_summary": {"road_name": "M1", "locality": "Gold Coast"},
				"last_updated": "2024-06-01T10:00:00+10:00"
			}
		},
		{
			"type": "Feature",
			"geometry": {"type": "LineString", "coordinates": [[152.9, -27.5], [153.0, -27.6]]},
			"properties": {
				"id": "1002",
				"event_type": "Roadworks",
				"road_summary": {"road_name": "Ipswich Mwy", "locality": "Darra"},
				"published": "2024-06-01T08:00:00"
			}
		},
		"not a feature"
	]
}`

const esqBody = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"id": 7,
			"geometry": {"type": "Point", "coordinates": [153.02, -27.47]},
			"properties": {
				"OBJECTID": 7,
				"Master_Incident_Number": "QF240601-0001",
				"GroupedType": "Fire",
				"Location": "Queen St",
				"Locality": "Brisbane City",
				"Status": "Going",
				"LastUpdate": 1717200000000,
				"VehiclesAssigned": 3
			}
		},
		{
			"type": "Feature",
			"properties": {"OBJECTID": 8, "LastUpdate": "not a time"}
		}
	]
}`

func newSourceServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/tmr", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("apikey") != "test-key" {
			http.Error(w, "bad key", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, tmrBody)
	})
	mux.HandleFunc("/esq", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, esqBody)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srvURL string) *config.Config {
	return &config.Config{
		Worker: config.WorkerConfig{
			Count:      2,
			BufferSize: 10,
		},
		Sources: config.SourcesConfig{
			TMREnabled:      srvURL != "",
			TMRURL:          srvURL + "/tmr",
			TMRAPIKey:       "test-key",
			TMRPollInterval: time.Minute,
			ESQEnabled:      srvURL != "",
			ESQURL:          srvURL + "/esq",
			ESQPollInterval: time.Minute,
			HTTPTimeout:     time.Second,
			StaleAfter:      3,
		},
	}
}

func TestManager_StartStop(t *testing.T) {
	mgr := NewManager(testConfig(""), newMockRepo(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)

	time.Sleep(50 * time.Millisecond)

	cancel()
	mgr.Stop()
}

func TestManager_InitialPollStoresAndBroadcasts(t *testing.T) {
	var hits atomic.Int64
	srv := newSourceServer(t, &hits)

	repo := newMockRepo()
	b := stream.NewBroadcaster()
	defer b.Close()
	subID, updates := b.Subscribe()
	defer b.Unsubscribe(subID)

	mgr := NewManager(testConfig(srv.URL), repo, b)
	defer mgr.client.CloseIdleConnections()

	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)

	require.Eventually(t, func() bool { return repo.count() == 3 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	mgr.Stop()

	crash, err := repo.GetIncident(context.Background(), "tmr:1001")
	require.NoError(t, err)
	assert.Equal(t, "M1, Gold Coast", incident.Location(crash))
	c, ok := incident.Coordinates(crash)
	require.True(t, ok)
	assert.Equal(t, -28.0, c.Latitude)

	roadworks, err := repo.GetIncident(context.Background(), "tmr:1002")
	require.NoError(t, err)
	c, ok = incident.Coordinates(roadworks)
	require.True(t, ok)
	assert.Equal(t, 152.9, c.Longitude)

	fire, err := repo.GetIncident(context.Background(), "emergency:QF240601-0001")
	require.NoError(t, err)
	assert.Equal(t, "Fire", fire.Emergency.GroupedType)
	assert.Equal(t, int64(1717200000000), fire.Emergency.LastUpdate.UnixMilli())

	_, err = repo.GetIncident(context.Background(), "emergency:8")
	assert.ErrorIs(t, err, repository.ErrNotFound, "malformed features are skipped")

	assert.Len(t, updates, 3)
}

func TestManager_PollSkipsFailedSource(t *testing.T) {
	var hits atomic.Int64
	srv := newSourceServer(t, &hits)

	repo := newMockRepo()
	cfg := testConfig(srv.URL)
	cfg.Sources.TMRURL = srv.URL + "/broken"
	cfg.Sources.ESQEnabled = false

	mgr := NewManager(cfg, repo, nil)
	defer mgr.client.CloseIdleConnections()

	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)
	time.Sleep(100 * time.Millisecond)
	cancel()
	mgr.Stop()

	assert.Zero(t, repo.count())
}

func TestManager_FailedPollKeepsStoredRows(t *testing.T) {
	var hits atomic.Int64
	srv := newSourceServer(t, &hits)

	repo := newMockRepo()
	now := time.Now()
	held := models.NewTrafficIncident(&models.TrafficEvent{ID: "1001", EventType: "Crash"})
	_, err := repo.UpsertIncident(context.Background(), held, now.Add(-4*time.Minute))
	require.NoError(t, err)

	cfg := testConfig(srv.URL)
	cfg.Sources.TMRURL = srv.URL + "/broken"
	mgr := NewManager(cfg, repo, nil)
	mgr.now = func() time.Time { return now }
	defer mgr.client.CloseIdleConnections()

	// The row is past its stale window but the fetch failed.
	mgr.poll(context.Background(), models.SourceTMR, cfg.Sources.TMRURL, time.Minute)

	_, err = repo.GetIncident(context.Background(), "tmr:1001")
	assert.NoError(t, err)
	assert.Zero(t, repo.pruned.Load())
}

func TestManager_PruneSparesRefetchedRows(t *testing.T) {
	var hits atomic.Int64
	srv := newSourceServer(t, &hits)

	repo := newMockRepo()
	now := time.Now()
	old := models.NewTrafficIncident(&models.TrafficEvent{ID: "1001", EventType: "Crash"})
	_, err := repo.UpsertIncident(context.Background(), old, now.Add(-time.Hour))
	require.NoError(t, err)

	cfg := testConfig(srv.URL)
	cfg.Sources.ESQEnabled = false
	mgr := NewManager(cfg, repo, nil)
	mgr.now = func() time.Time { return now }
	defer mgr.client.CloseIdleConnections()

	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)
	require.Eventually(t, func() bool { return repo.upserts.Load() == 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	mgr.Stop()

	assert.Zero(t, repo.pruned.Load(), "an id present in the fetch is not stale")
}

func TestManager_UnchangedIncidentsNotRebroadcast(t *testing.T) {
	var hits atomic.Int64
	srv := newSourceServer(t, &hits)

	repo := newMockRepo()
	b := stream.NewBroadcaster()
	defer b.Close()
	subID, updates := b.Subscribe()
	defer b.Unsubscribe(subID)

	cfg := testConfig(srv.URL)
	cfg.Sources.TMREnabled = false
	mgr := NewManager(cfg, repo, b)
	defer mgr.client.CloseIdleConnections()

	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)
	require.Eventually(t, func() bool { return repo.upserts.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	mgr.poll(ctx, models.SourceEmergency, cfg.Sources.ESQURL, time.Minute)
	require.Eventually(t, func() bool { return repo.upserts.Load() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	mgr.Stop()

	assert.Len(t, updates, 1)
}

func TestManager_PrunesStaleRows(t *testing.T) {
	var hits atomic.Int64
	srv := newSourceServer(t, &hits)

	repo := newMockRepo()
	now := time.Now()
	old := models.NewEmergencyIncident(&models.EmergencyIncident{MasterIncidentNumber: "gone"})
	_, err := repo.UpsertIncident(context.Background(), old, now.Add(-4*time.Minute))
	require.NoError(t, err)

	cfg := testConfig(srv.URL)
	cfg.Sources.TMREnabled = false
	mgr := NewManager(cfg, repo, nil)
	mgr.now = func() time.Time { return now }
	defer mgr.client.CloseIdleConnections()

	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)
	require.Eventually(t, func() bool { return repo.upserts.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	mgr.Stop()

	_, err = repo.GetIncident(context.Background(), "emergency:gone")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, int64(1), repo.pruned.Load())
}

func TestManager_GracefulShutdown(t *testing.T) {
	repo := newMockRepo()
	cfg := testConfig("")
	cfg.Worker.BufferSize = 100
	mgr := NewManager(cfg, repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)

	for i := 0; i < 50; i++ {
		inc := models.NewUserIncident(&models.UserReport{ID: fmt.Sprintf("shutdown_%d", i), UpdatedAt: time.Now()})
		require.NoError(t, mgr.pool.Submit(ctx, job{incident: inc, seenAt: time.Now()}))
	}

	cancel()

	done := make(chan struct{})
	go func() {
		mgr.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("manager.Stop() timed out - possible goroutine leak")
	}
}

func TestManager_ConcurrentSubmit(t *testing.T) {
	cfg := testConfig("")
	cfg.Worker.Count = 4
	cfg.Worker.BufferSize = 100

	repo := newMockRepo()
	mgr := NewManager(cfg, repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				inc := models.NewUserIncident(&models.UserReport{ID: fmt.Sprintf("r_%d_%d", g, j), UpdatedAt: time.Now()})
				_ = mgr.pool.Submit(ctx, job{incident: inc, seenAt: time.Now()})
			}
		}(g)
	}
	wg.Wait()

	require.Eventually(t, func() bool { return repo.count() == 500 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	mgr.Stop()
}
