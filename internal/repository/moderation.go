package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

func (s *SQLiteDB) AddContentReport(ctx context.Context, r *models.ContentReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_reports (id, entity_type, entity_id, reporter_id, reason, details, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.EntityType, r.EntityID, r.ReporterID, r.Reason, r.Details, string(r.Status), toMillis(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("error adding content report: %w", err)
	}
	return nil
}

// ListContentReports returns reports newest first, optionally by status.
func (s *SQLiteDB) ListContentReports(ctx context.Context, status models.ReportStatus) ([]models.ContentReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, reporter_id, reason, COALESCE(details, ''), status, created_at, reviewed_at
		FROM content_reports
		WHERE ? = '' OR status = ?
		ORDER BY created_at DESC`, string(status), string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ContentReport
	for rows.Next() {
		var (
			r        models.ContentReport
			created  int64
			reviewed sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.EntityType, &r.EntityID, &r.ReporterID, &r.Reason, &r.Details, &r.Status, &created, &reviewed); err != nil {
			return nil, err
		}
		r.CreatedAt = fromMillis(created)
		if reviewed.Valid {
			t := fromMillis(reviewed.Int64)
			r.ReviewedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) SetContentReportStatus(ctx context.Context, id string, status models.ReportStatus, at time.Time) error {
	var reviewed any
	if status != models.ReportPending {
		reviewed = toMillis(at)
	}
	return affected(s.db.ExecContext(ctx,
		`UPDATE content_reports SET status = ?, reviewed_at = ? WHERE id = ?`,
		string(status), reviewed, id))
}

func (s *SQLiteDB) AddFeedback(ctx context.Context, f *models.Feedback) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, user_id, email, subject, message, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.Email, f.Subject, f.Message, string(f.Status), toMillis(f.CreatedAt))
	if err != nil {
		return fmt.Errorf("error adding feedback: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListFeedback(ctx context.Context, status models.FeedbackStatus) ([]models.Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(user_id, ''), email, subject, message, status, created_at
		FROM feedback
		WHERE ? = '' OR status = ?
		ORDER BY created_at DESC`, string(status), string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Feedback
	for rows.Next() {
		var (
			f       models.Feedback
			created int64
		)
		if err := rows.Scan(&f.ID, &f.UserID, &f.Email, &f.Subject, &f.Message, &f.Status, &created); err != nil {
			return nil, err
		}
		f.CreatedAt = fromMillis(created)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) SetFeedbackStatus(ctx context.Context, id string, status models.FeedbackStatus) error {
	return affected(s.db.ExecContext(ctx, `UPDATE feedback SET status = ? WHERE id = ?`, string(status), id))
}
