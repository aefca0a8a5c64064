package codec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wikankun/localurl/internal/models"
	"github.com/wikankun/localurl/internal/store"
)

// Version is informational; import never branches on it.
const Version = "1.0"

// ErrInvalidEnvelope is returned when the import payload is structurally
// broken (not JSON, or links missing / not a collection). Bad individual
// entries never trigger it.
var ErrInvalidEnvelope = errors.New("invalid import envelope")

// Envelope is the export file format.
type Envelope struct {
	Version    string        `json:"version"`
	ExportedAt time.Time     `json:"exportedAt"`
	Links      []models.Link `json:"links"`
}

// Result summarizes an import run.
type Result struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// Export snapshots the full collection in store order.
func Export(ctx context.Context, st *store.Store) (*Envelope, error) {
	links, err := st.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export links: %w", err)
	}
	if links == nil {
		links = []models.Link{}
	}
	return &Envelope{Version: Version, ExportedAt: time.Now().UTC(), Links: links}, nil
}

// importEntry reads only the fields import cares about; anything else in an
// entry is ignored. IDs, timestamps and click counts are regenerated by
// Create, never preserved.
type importEntry struct {
	Slug        string `json:"slug"`
	OriginalURL string `json:"originalUrl"`
	CustomSlug  bool   `json:"customSlug"`
}

// Import restores links from an envelope. Entries whose slug already exists
// are skipped; entries missing slug or originalUrl are recorded as per-entry
// errors. Neither aborts the rest of the import.
func Import(ctx context.Context, st *store.Store, data []byte) (*Result, error) {
	var env struct {
		Links []importEntry `json:"links"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if env.Links == nil {
		return nil, fmt.Errorf("%w: links is not a collection", ErrInvalidEnvelope)
	}

	res := &Result{}
	for _, entry := range env.Links {
		if entry.Slug == "" || entry.OriginalURL == "" {
			res.Errors = append(res.Errors, "invalid link data: missing slug or originalUrl")
			continue
		}

		_, err := st.GetBySlug(ctx, entry.Slug)
		if err == nil {
			res.Skipped++
			continue
		}
		if !errors.Is(err, models.ErrNotFound) {
			res.Errors = append(res.Errors, fmt.Sprintf("failed to import link %s: %v", entry.Slug, err))
			continue
		}

		if _, err := st.Create(ctx, entry.Slug, entry.OriginalURL, entry.CustomSlug); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("failed to import link %s: %v", entry.Slug, err))
			continue
		}
		res.Imported++
	}
	return res, nil
}
