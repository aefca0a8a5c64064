package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wikankun/localurl/internal/cache"
	"github.com/wikankun/localurl/internal/models"
	"github.com/wikankun/localurl/internal/slug"
)

// ErrInvalidURL is returned when the original URL is not an absolute
// http or https URL. The store is never touched in that case.
var ErrInvalidURL = errors.New("original url must be an absolute http or https url")

const maxSlugAttempts = 10

// SortCriterion selects the ordering of SortedList. Unknown values fall back
// to SortCreatedDesc.
type SortCriterion string

const (
	SortCreatedDesc SortCriterion = "created-desc"
	SortCreatedAsc  SortCriterion = "created-asc"
	SortClicksDesc  SortCriterion = "clicks-desc"
	SortClicksAsc   SortCriterion = "clicks-asc"
	SortSlugAsc     SortCriterion = "slug-asc"
	SortSlugDesc    SortCriterion = "slug-desc"
)

// UpdateParams carries the editable fields of a link. An empty field leaves
// the stored value unchanged.
type UpdateParams struct {
	Slug        string
	OriginalURL string
}

// Store is the durable link collection. Every operation is a single SQLite
// statement or transaction; the connection pool is capped at one connection,
// so writes serialize inside the store.
type Store struct {
	db    *sql.DB
	cache *cache.LinkCache
	log   zerolog.Logger
}

func New(db *sql.DB, c *cache.LinkCache, logger zerolog.Logger) *Store {
	return &Store{db: db, cache: c, log: logger}
}

// Create adds a new link. An empty slug triggers random generation (and the
// record is marked auto-generated regardless of the custom flag).
func (s *Store) Create(ctx context.Context, slugStr, originalURL string, custom bool) (*models.Link, error) {
	norm, err := normalizeURL(originalURL)
	if err != nil {
		return nil, err
	}
	if slugStr == "" {
		slugStr, err = s.generateSlug(ctx)
		if err != nil {
			return nil, err
		}
		custom = false
	}

	l := &models.Link{Slug: slugStr, OriginalURL: norm, CustomSlug: custom}
	if err := models.CreateLink(ctx, s.db, l); err != nil {
		return nil, err
	}
	s.cache.Set(l.Slug, *l)
	s.log.Info().Int64("id", l.ID).Str("slug", l.Slug).Bool("custom", l.CustomSlug).Msg("link created")
	return l, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*models.Link, error) {
	return models.GetLinkByID(ctx, s.db, id)
}

// GetBySlug resolves a slug, cache-aside over the LRU.
func (s *Store) GetBySlug(ctx context.Context, slugStr string) (*models.Link, error) {
	if l, ok := s.cache.Get(slugStr); ok {
		return &l, nil
	}
	l, err := models.GetLinkBySlug(ctx, s.db, slugStr)
	if err != nil {
		return nil, err
	}
	s.cache.Set(slugStr, *l)
	return l, nil
}

// Update edits slug and/or original URL. ID, creation time and click count
// are preserved no matter what the caller passes.
func (s *Store) Update(ctx context.Context, id int64, p UpdateParams) (*models.Link, error) {
	existing, err := models.GetLinkByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	oldSlug := existing.Slug

	if p.Slug != "" {
		existing.Slug = p.Slug
	}
	if p.OriginalURL != "" {
		norm, err := normalizeURL(p.OriginalURL)
		if err != nil {
			return nil, err
		}
		existing.OriginalURL = norm
	}

	if err := models.UpdateLink(ctx, s.db, existing); err != nil {
		return nil, err
	}
	s.cache.Invalidate(oldSlug)
	s.cache.Set(existing.Slug, *existing)
	s.log.Info().Int64("id", id).Str("slug", existing.Slug).Msg("link updated")
	return existing, nil
}

// IncrementClicks is the redirect-resolution counter bump. The increment is a
// single atomic UPDATE, so sequential redirects never lose a count.
func (s *Store) IncrementClicks(ctx context.Context, slugStr string) (*models.Link, error) {
	l, err := models.IncrementClicks(ctx, s.db, slugStr)
	if err != nil {
		return nil, err
	}
	s.cache.Set(slugStr, *l)
	return l, nil
}

// Delete reports whether a record existed and was removed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	if l, err := models.GetLinkByID(ctx, s.db, id); err == nil {
		s.cache.Invalidate(l.Slug)
	}
	removed, err := models.DeleteLink(ctx, s.db, id)
	if err != nil {
		return false, err
	}
	if removed {
		s.log.Info().Int64("id", id).Msg("link deleted")
	}
	return removed, nil
}

// List returns the full collection in insertion order.
func (s *Store) List(ctx context.Context) ([]models.Link, error) {
	return models.ListLinks(ctx, s.db, "")
}

// Clear removes every link unconditionally.
func (s *Store) Clear(ctx context.Context) error {
	if err := models.ClearLinks(ctx, s.db); err != nil {
		return err
	}
	s.cache.Purge()
	s.log.Info().Msg("all links cleared")
	return nil
}

func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	return models.GetStats(ctx, s.db)
}

// Search filters by case-insensitive substring against slug or original URL.
// A blank query returns everything.
func (s *Store) Search(ctx context.Context, query string) ([]models.Link, error) {
	return models.ListLinks(ctx, s.db, strings.TrimSpace(query))
}

// SortedList returns the collection ordered by the given criterion. The sort
// is stable: ties keep insertion order.
func (s *Store) SortedList(ctx context.Context, by SortCriterion) ([]models.Link, error) {
	links, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	Sort(links, by)
	return links, nil
}

// Sort orders links in place by the given criterion, stable on ties.
func Sort(links []models.Link, by SortCriterion) {
	switch by {
	case SortCreatedAsc:
		sort.SliceStable(links, func(i, j int) bool { return links[i].CreatedAt.Before(links[j].CreatedAt) })
	case SortClicksDesc:
		sort.SliceStable(links, func(i, j int) bool { return links[i].Clicks > links[j].Clicks })
	case SortClicksAsc:
		sort.SliceStable(links, func(i, j int) bool { return links[i].Clicks < links[j].Clicks })
	case SortSlugAsc:
		sort.SliceStable(links, func(i, j int) bool { return links[i].Slug < links[j].Slug })
	case SortSlugDesc:
		sort.SliceStable(links, func(i, j int) bool { return links[i].Slug > links[j].Slug })
	default: // created-desc
		sort.SliceStable(links, func(i, j int) bool { return links[i].CreatedAt.After(links[j].CreatedAt) })
	}
}

func (s *Store) generateSlug(ctx context.Context) (string, error) {
	for i := 0; i < maxSlugAttempts; i++ {
		candidate, err := slug.Generate()
		if err != nil {
			return "", fmt.Errorf("generate slug: %w", err)
		}
		exists, err := models.SlugExists(ctx, s.db, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errors.New("failed to generate a unique slug")
}

func normalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u.String(), nil
}
