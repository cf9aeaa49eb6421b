package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-safety-feed/internal/incident"
)

type SQLiteDB struct {
	db *sql.DB
}

var _ Store = (*SQLiteDB)(nil)

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Each :memory: connection is its own database.
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}
	if err := s.seedTaxonomy(context.Background()); err != nil {
		return nil, fmt.Errorf("error seeding taxonomy: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		PRAGMA foreign_keys = ON;

		CREATE TABLE IF NOT EXISTS incidents (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			owner_id TEXT,
			payload BLOB NOT NULL,
			timestamp INTEGER NOT NULL,
			last_seen_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			icon TEXT NOT NULL,
			color TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS subcategories (
			id TEXT PRIMARY KEY,
			category_id TEXT NOT NULL REFERENCES categories(id),
			name TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE COLLATE NOCASE,
			display_name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			account_type TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 0,
			home_suburb TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			incident_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			author_name TEXT NOT NULL,
			parent_comment_id TEXT,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS likes (
			incident_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (incident_id, user_id)
		);

		CREATE TABLE IF NOT EXISTS content_reports (
			id TEXT PRIMARY KEY,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			reporter_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			details TEXT,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			reviewed_at INTEGER
		);

		CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			user_id TEXT,
			email TEXT NOT NULL,
			subject TEXT NOT NULL,
			message TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS ad_campaigns (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			business_name TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			image_url TEXT,
			website_url TEXT,
			call_to_action TEXT,
			suburb TEXT NOT NULL,
			daily_budget INTEGER NOT NULL,
			status TEXT NOT NULL,
			rejection_reason TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS billing_plans (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			price_per_day INTEGER NOT NULL,
			minimum_days INTEGER NOT NULL DEFAULT 1,
			is_active INTEGER NOT NULL DEFAULT 1
		);

		CREATE TABLE IF NOT EXISTS discount_codes (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE COLLATE NOCASE,
			description TEXT,
			discount_type TEXT NOT NULL,
			discount_value INTEGER NOT NULL,
			max_uses INTEGER NOT NULL DEFAULT 0,
			uses_count INTEGER NOT NULL DEFAULT 0,
			valid_from INTEGER,
			valid_until INTEGER,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			plan_id TEXT NOT NULL,
			days INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			currency TEXT NOT NULL,
			discount_code TEXT,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_incidents_source_seen ON incidents(source, last_seen_at);
		CREATE INDEX IF NOT EXISTS idx_incidents_timestamp ON incidents(timestamp);
		CREATE INDEX IF NOT EXISTS idx_comments_incident ON comments(incident_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_ads_status_suburb ON ad_campaigns(status, suburb);
		CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id);
  	`

	_, err := s.db.Exec(schema)
	return err
}

// seedTaxonomy loads the built-in categories. Existing rows are refreshed so
// renamed icons and colours reach old databases.
func (s *SQLiteDB) seedTaxonomy(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range incident.Categories() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, name, description, icon, color, sort_order)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, icon = excluded.icon,
				color = excluded.color, sort_order = excluded.sort_order`,
			c.ID, c.Name, c.Description, c.Icon, c.Color, c.SortOrder)
		if err != nil {
			return fmt.Errorf("category %s: %w", c.ID, err)
		}
	}
	for _, sc := range incident.Subcategories() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO subcategories (id, category_id, name, sort_order)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				category_id = excluded.category_id, name = excluded.name,
				sort_order = excluded.sort_order`,
			sc.ID, sc.CategoryID, sc.Name, sc.SortOrder)
		if err != nil {
			return fmt.Errorf("subcategory %s: %w", sc.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// affected maps a zero-row write to ErrNotFound.
func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
