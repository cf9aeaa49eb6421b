package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

const adColumns = `id, user_id, business_name, title, content, COALESCE(image_url, ''), COALESCE(website_url, ''),
	COALESCE(call_to_action, ''), suburb, daily_budget, status, COALESCE(rejection_reason, ''), created_at, updated_at`

func (s *SQLiteDB) CreateAd(ctx context.Context, ad *models.AdCampaign) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ad_campaigns (id, user_id, business_name, title, content, image_url, website_url,
			call_to_action, suburb, daily_budget, status, rejection_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ad.ID, ad.UserID, ad.BusinessName, ad.Title, ad.Content, ad.ImageURL, ad.WebsiteURL,
		ad.CallToAction, ad.Suburb, ad.DailyBudget, string(ad.Status), ad.RejectionReason,
		toMillis(ad.CreatedAt), toMillis(ad.UpdatedAt))
	if err != nil {
		return fmt.Errorf("error creating ad: %w", err)
	}
	return nil
}

func scanAd(row interface{ Scan(...any) error }) (models.AdCampaign, error) {
	var (
		ad               models.AdCampaign
		created, updated int64
	)
	err := row.Scan(&ad.ID, &ad.UserID, &ad.BusinessName, &ad.Title, &ad.Content, &ad.ImageURL, &ad.WebsiteURL,
		&ad.CallToAction, &ad.Suburb, &ad.DailyBudget, &ad.Status, &ad.RejectionReason, &created, &updated)
	ad.CreatedAt = fromMillis(created)
	ad.UpdatedAt = fromMillis(updated)
	return ad, err
}

func (s *SQLiteDB) GetAd(ctx context.Context, id string) (*models.AdCampaign, error) {
	ad, err := scanAd(s.db.QueryRowContext(ctx, `SELECT `+adColumns+` FROM ad_campaigns WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &ad, nil
}

// UpdateAd rewrites the editable fields and status of ad.
func (s *SQLiteDB) UpdateAd(ctx context.Context, ad *models.AdCampaign) error {
	return affected(s.db.ExecContext(ctx, `
		UPDATE ad_campaigns SET business_name = ?, title = ?, content = ?, image_url = ?, website_url = ?,
			call_to_action = ?, suburb = ?, daily_budget = ?, status = ?, rejection_reason = ?, updated_at = ?
		WHERE id = ?`,
		ad.BusinessName, ad.Title, ad.Content, ad.ImageURL, ad.WebsiteURL, ad.CallToAction, ad.Suburb,
		ad.DailyBudget, string(ad.Status), ad.RejectionReason, toMillis(ad.UpdatedAt), ad.ID))
}

func (s *SQLiteDB) ListAds(ctx context.Context, filter AdFilter) ([]models.AdCampaign, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + adColumns + ` FROM ad_campaigns`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	return s.queryAds(ctx, query, args...)
}

// ActiveAds returns active campaigns, those targeting suburb first. An empty
// suburb returns every active campaign.
func (s *SQLiteDB) ActiveAds(ctx context.Context, suburb string) ([]models.AdCampaign, error) {
	return s.queryAds(ctx, `
		SELECT `+adColumns+` FROM ad_campaigns
		WHERE status = ?
		ORDER BY CASE WHEN ? <> '' AND suburb = ? COLLATE NOCASE THEN 0 ELSE 1 END,
			daily_budget DESC, created_at`,
		string(models.AdActive), suburb, suburb)
}

func (s *SQLiteDB) queryAds(ctx context.Context, query string, args ...any) ([]models.AdCampaign, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AdCampaign
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ad)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) SetAdStatus(ctx context.Context, id string, status models.AdStatus, reason string) error {
	if !status.Valid() {
		return fmt.Errorf("invalid ad status %q", status)
	}
	if status != models.AdRejected {
		reason = ""
	}
	return affected(s.db.ExecContext(ctx,
		`UPDATE ad_campaigns SET status = ?, rejection_reason = ?, updated_at = strftime('%s','now') * 1000 WHERE id = ?`,
		string(status), reason, id))
}
