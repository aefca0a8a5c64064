package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a link with the given id or slug does not exist.
	ErrNotFound = errors.New("link not found")
	// ErrDuplicateSlug is returned when a write would violate slug uniqueness.
	ErrDuplicateSlug = errors.New("slug already exists")
)

type Link struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	OriginalURL string    `json:"originalUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	Clicks      int64     `json:"clicks"`
	CustomSlug  bool      `json:"customSlug"`
}

type Stats struct {
	TotalLinks         int64 `json:"totalLinks"`
	TotalClicks        int64 `json:"totalClicks"`
	CustomLinks        int64 `json:"customLinks"`
	AutoGeneratedLinks int64 `json:"autoGeneratedLinks"`
}

func CreateLink(ctx context.Context, db *sql.DB, l *Link) error {
	custom := 0
	if l.CustomSlug {
		custom = 1
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO links (slug, original_url, custom_slug) VALUES (?, ?, ?)`,
		l.Slug, l.OriginalURL, custom,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("insert link: %w", err)
	}
	id, _ := res.LastInsertId()

	// Re-read to get the assigned timestamp
	got, err := GetLinkByID(ctx, db, id)
	if err != nil {
		return err
	}
	*l = *got
	return nil
}

func GetLinkByID(ctx context.Context, db *sql.DB, id int64) (*Link, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, slug, original_url, custom_slug, clicks, created_at FROM links WHERE id = ?`, id)
	return scanLink(row)
}

func GetLinkBySlug(ctx context.Context, db *sql.DB, slug string) (*Link, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, slug, original_url, custom_slug, clicks, created_at FROM links WHERE slug = ?`, slug)
	return scanLink(row)
}

func SlugExists(ctx context.Context, db *sql.DB, slug string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links WHERE slug = ?`, slug).Scan(&count)
	return count > 0, err
}

// ListLinks returns links in insertion order. A non-empty search term filters
// by case-insensitive substring match against slug or original URL.
func ListLinks(ctx context.Context, db *sql.DB, search string) ([]Link, error) {
	query := `SELECT id, slug, original_url, custom_slug, clicks, created_at FROM links`
	var args []any
	if search != "" {
		query += ` WHERE slug LIKE ? OR original_url LIKE ?`
		s := "%" + search + "%"
		args = append(args, s, s)
	}
	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		var custom int
		if err := rows.Scan(&l.ID, &l.Slug, &l.OriginalURL, &custom, &l.Clicks, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		l.CustomSlug = custom == 1
		links = append(links, l)
	}
	return links, rows.Err()
}

// UpdateLink rewrites slug and original URL for the record with l.ID.
// Clicks, created_at and custom_slug are never touched.
func UpdateLink(ctx context.Context, db *sql.DB, l *Link) error {
	res, err := db.ExecContext(ctx,
		`UPDATE links SET slug = ?, original_url = ? WHERE id = ?`,
		l.Slug, l.OriginalURL, l.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("update link: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	got, err := GetLinkByID(ctx, db, l.ID)
	if err != nil {
		return err
	}
	*l = *got
	return nil
}

// IncrementClicks bumps the click counter in a single UPDATE so that rapid
// back-to-back redirects never lose an increment.
func IncrementClicks(ctx context.Context, db *sql.DB, slug string) (*Link, error) {
	res, err := db.ExecContext(ctx, `UPDATE links SET clicks = clicks + 1 WHERE slug = ?`, slug)
	if err != nil {
		return nil, fmt.Errorf("increment clicks: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, ErrNotFound
	}
	return GetLinkBySlug(ctx, db, slug)
}

// DeleteLink reports whether a record existed and was removed. A missing id
// is not an error.
func DeleteLink(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete link: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func ClearLinks(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM links`); err != nil {
		return fmt.Errorf("clear links: %w", err)
	}
	return nil
}

func GetStats(ctx context.Context, db *sql.DB) (*Stats, error) {
	var s Stats
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(clicks), 0), COALESCE(SUM(custom_slug), 0) FROM links`,
	).Scan(&s.TotalLinks, &s.TotalClicks, &s.CustomLinks)
	if err != nil {
		return nil, fmt.Errorf("link stats: %w", err)
	}
	s.AutoGeneratedLinks = s.TotalLinks - s.CustomLinks
	return &s, nil
}

func scanLink(row *sql.Row) (*Link, error) {
	var l Link
	var custom int
	if err := row.Scan(&l.ID, &l.Slug, &l.OriginalURL, &custom, &l.Clicks, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan link: %w", err)
	}
	l.CustomSlug = custom == 1
	return &l, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
