package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

func (s *SQLiteDB) ListPlans(ctx context.Context, activeOnly bool) ([]models.BillingPlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, ''), price_per_day, minimum_days, is_active
		FROM billing_plans
		WHERE ? = 0 OR is_active = 1
		ORDER BY price_per_day`, boolInt(activeOnly))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BillingPlan
	for rows.Next() {
		var p models.BillingPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PricePerDay, &p.MinimumDays, &p.IsActive); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) GetPlan(ctx context.Context, id string) (*models.BillingPlan, error) {
	var p models.BillingPlan
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description, ''), price_per_day, minimum_days, is_active
		FROM billing_plans WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.PricePerDay, &p.MinimumDays, &p.IsActive)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *SQLiteDB) CreatePlan(ctx context.Context, p *models.BillingPlan) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO billing_plans (id, name, description, price_per_day, minimum_days, is_active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.PricePerDay, p.MinimumDays, boolInt(p.IsActive))
	if err != nil {
		return fmt.Errorf("error creating plan: %w", err)
	}
	return nil
}

// CreateDiscountCode returns ErrConflict when the code already exists.
func (s *SQLiteDB) CreateDiscountCode(ctx context.Context, d *models.DiscountCode) error {
	var from, until any
	if d.ValidFrom != nil {
		from = toMillis(*d.ValidFrom)
	}
	if d.ValidUntil != nil {
		until = toMillis(*d.ValidUntil)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO discount_codes (id, code, description, discount_type, discount_value, max_uses,
			uses_count, valid_from, valid_until, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Code, d.Description, string(d.Type), d.Value, d.MaxUses, d.UsesCount,
		from, until, boolInt(d.IsActive), toMillis(d.CreatedAt))
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("error creating discount code: %w", err)
	}
	return nil
}

const discountColumns = `id, code, COALESCE(description, ''), discount_type, discount_value, max_uses,
	uses_count, valid_from, valid_until, is_active, created_at`

func scanDiscount(row interface{ Scan(...any) error }) (models.DiscountCode, error) {
	var (
		d           models.DiscountCode
		from, until sql.NullInt64
		created     int64
	)
	err := row.Scan(&d.ID, &d.Code, &d.Description, &d.Type, &d.Value, &d.MaxUses,
		&d.UsesCount, &from, &until, &d.IsActive, &created)
	if err != nil {
		return d, err
	}
	if from.Valid {
		t := fromMillis(from.Int64)
		d.ValidFrom = &t
	}
	if until.Valid {
		t := fromMillis(until.Int64)
		d.ValidUntil = &t
	}
	d.CreatedAt = fromMillis(created)
	return d, nil
}

// GetDiscountCode looks code up case-insensitively.
func (s *SQLiteDB) GetDiscountCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	d, err := scanDiscount(s.db.QueryRowContext(ctx, `SELECT `+discountColumns+` FROM discount_codes WHERE code = ?`, code))
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (s *SQLiteDB) ListDiscountCodes(ctx context.Context) ([]models.DiscountCode, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+discountColumns+` FROM discount_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DiscountCode
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) SetDiscountCodeActive(ctx context.Context, id string, active bool) error {
	return affected(s.db.ExecContext(ctx, `UPDATE discount_codes SET is_active = ? WHERE id = ?`, boolInt(active), id))
}

func (s *SQLiteDB) CreatePayment(ctx context.Context, p *models.Payment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if p.DiscountCode != "" {
		res, err := tx.ExecContext(ctx, `
			UPDATE discount_codes SET uses_count = uses_count + 1
			WHERE code = ? AND is_active = 1 AND (max_uses = 0 OR uses_count < max_uses)`,
			p.DiscountCode)
		if err != nil {
			return fmt.Errorf("error redeeming discount code: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrConflict
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, campaign_id, user_id, plan_id, days, amount, currency, discount_code, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CampaignID, p.UserID, p.PlanID, p.Days, p.Amount, p.Currency, p.DiscountCode,
		string(p.Status), toMillis(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("error recording payment: %w", err)
	}

	return tx.Commit()
}

// ListPayments returns a user's payments, or every payment when userID is empty.
func (s *SQLiteDB) ListPayments(ctx context.Context, userID string) ([]models.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, campaign_id, user_id, plan_id, days, amount, currency, COALESCE(discount_code, ''), status, created_at
		FROM payments
		WHERE ? = '' OR user_id = ?
		ORDER BY created_at DESC`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Payment
	for rows.Next() {
		var (
			p       models.Payment
			created int64
		)
		if err := rows.Scan(&p.ID, &p.CampaignID, &p.UserID, &p.PlanID, &p.Days, &p.Amount, &p.Currency,
			&p.DiscountCode, &p.Status, &created); err != nil {
			return nil, err
		}
		p.CreatedAt = fromMillis(created)
		out = append(out, p)
	}
	return out, rows.Err()
}
