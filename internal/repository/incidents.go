package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mr1hm/go-safety-feed/internal/incident"
	"github.com/mr1hm/go-safety-feed/internal/models"
)

func (s *SQLiteDB) UpsertIncident(ctx context.Context, inc models.Incident, seenAt time.Time) (bool, error) {
	if err := inc.Validate(); err != nil {
		return false, err
	}

	id := incident.ID(inc)
	payload, err := json.Marshal(inc)
	if err != nil {
		return false, fmt.Errorf("error encoding incident %s: %w", id, err)
	}

	var owner any
	if inc.Source == models.SourceUser {
		owner = inc.Report.ReporterID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO incidents (id, source, owner_id, payload, timestamp, last_seen_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			payload = excluded.payload,
			timestamp = excluded.timestamp,
			last_seen_at = excluded.last_seen_at
		WHERE excluded.timestamp > incidents.timestamp`,
		id, string(inc.Source), owner, payload,
		toMillis(incident.Timestamp(inc)), toMillis(seenAt), toMillis(seenAt))
	if err != nil {
		return false, fmt.Errorf("error upserting incident %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	changed := n > 0
	if !changed {
		if _, err := tx.ExecContext(ctx, `UPDATE incidents SET last_seen_at = ? WHERE id = ?`, toMillis(seenAt), id); err != nil {
			return false, fmt.Errorf("error touching incident %s: %w", id, err)
		}
	}

	return changed, tx.Commit()
}

func (s *SQLiteDB) GetIncident(ctx context.Context, id string) (models.Incident, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM incidents WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		return models.Incident{}, notFound(err)
	}

	var inc models.Incident
	if err := json.Unmarshal(payload, &inc); err != nil {
		return models.Incident{}, fmt.Errorf("error decoding incident %s: %w", id, err)
	}
	return inc, nil
}

func (s *SQLiteDB) ListIncidents(ctx context.Context, source models.Source) ([]models.Incident, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload FROM incidents
		WHERE source = ?
		ORDER BY timestamp DESC, id`, string(source))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Incident
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var inc models.Incident
		if err := json.Unmarshal(payload, &inc); err != nil {
			return nil, fmt.Errorf("error decoding incident %s: %w", id, err)
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

// DeleteIncident removes the incident with its comments and likes.
func (s *SQLiteDB) DeleteIncident(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := affected(tx.ExecContext(ctx, `DELETE FROM incidents WHERE id = ?`, id)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE incident_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE incident_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// PruneStale deletes rows of source last seen before cutoff, along with
// their comments and likes. Ids in keep are left alone.
func (s *SQLiteDB) PruneStale(ctx context.Context, source models.Source, cutoff time.Time, keep []string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM incidents WHERE source = ? AND last_seen_at < ?`,
		string(source), toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("error pruning %s incidents: %w", source, err)
	}

	kept := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}

	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		if _, ok := kept[id]; !ok {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range stale {
		for _, q := range []string{
			`DELETE FROM incidents WHERE id = ?`,
			`DELETE FROM comments WHERE incident_id = ?`,
			`DELETE FROM likes WHERE incident_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return 0, fmt.Errorf("error pruning %s: %w", id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int64(len(stale)), nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
