package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

func (s *SQLiteDB) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, ''), icon, color, sort_order
		FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.Color, &c.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListSubcategories returns every subcategory, or only those of categoryID
// when it is set.
func (s *SQLiteDB) ListSubcategories(ctx context.Context, categoryID string) ([]models.Subcategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, name, sort_order FROM subcategories
		WHERE ? = '' OR category_id = ?
		ORDER BY category_id, sort_order, name`, categoryID, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Subcategory
	for rows.Next() {
		var sc models.Subcategory
		if err := rows.Scan(&sc.ID, &sc.CategoryID, &sc.Name, &sc.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) AddComment(ctx context.Context, c *models.Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, incident_id, user_id, author_name, parent_comment_id, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.IncidentID, c.UserID, c.AuthorName, c.ParentCommentID, c.Content, toMillis(c.CreatedAt))
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("error adding comment: %w", err)
	}
	return nil
}

const commentColumns = `id, incident_id, user_id, author_name, parent_comment_id, content, created_at`

func scanComment(row interface{ Scan(...any) error }) (models.Comment, error) {
	var (
		c       models.Comment
		parent  sql.NullString
		created int64
	)
	if err := row.Scan(&c.ID, &c.IncidentID, &c.UserID, &c.AuthorName, &parent, &c.Content, &created); err != nil {
		return c, err
	}
	if parent.Valid {
		c.ParentCommentID = &parent.String
	}
	c.CreatedAt = fromMillis(created)
	return c, nil
}

func (s *SQLiteDB) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListComments returns the flat comment list oldest first.
func (s *SQLiteDB) ListComments(ctx context.Context, incidentID string) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+commentColumns+` FROM comments
		WHERE incident_id = ? ORDER BY created_at, id`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteComment removes the comment. Replies stay and render as roots.
func (s *SQLiteDB) DeleteComment(ctx context.Context, id string) error {
	return affected(s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id))
}

func (s *SQLiteDB) ToggleLike(ctx context.Context, incidentID, userID string) (models.LikeSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.LikeSummary{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE incident_id = ? AND user_id = ?`, incidentID, userID)
	if err != nil {
		return models.LikeSummary{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO likes (incident_id, user_id, created_at) VALUES (?, ?, ?)`,
			incidentID, userID, time.Now().UnixMilli())
		if err != nil {
			return models.LikeSummary{}, fmt.Errorf("error adding like: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return models.LikeSummary{}, err
	}

	return s.LikeSummary(ctx, incidentID, userID)
}

func (s *SQLiteDB) LikeSummary(ctx context.Context, incidentID, userID string) (models.LikeSummary, error) {
	sum := models.LikeSummary{IncidentID: incidentID}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(user_id = ?), 0)
		FROM likes WHERE incident_id = ?`, userID, incidentID).Scan(&sum.Count, &sum.Liked)
	if err != nil {
		return models.LikeSummary{}, err
	}
	return sum, nil
}
