package models

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/wikankun/localurl/internal/db"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func mustCreate(t *testing.T, d *sql.DB, slug, url string) *Link {
	t.Helper()
	l := &Link{Slug: slug, OriginalURL: url}
	if err := CreateLink(context.Background(), d, l); err != nil {
		t.Fatal(err)
	}
	return l
}

func linkCount(t *testing.T, d *sql.DB) int {
	t.Helper()
	var n int
	if err := d.QueryRow(`SELECT COUNT(*) FROM links`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestCreateLink_SetsIDAndDefaults(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	l := &Link{Slug: "abc", OriginalURL: "https://example.com", CustomSlug: true}
	if err := CreateLink(ctx, d, l); err != nil {
		t.Fatal(err)
	}
	if l.ID <= 0 {
		t.Errorf("ID = %d, want > 0", l.ID)
	}
	if l.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
	if l.Clicks != 0 {
		t.Errorf("Clicks = %d, want 0", l.Clicks)
	}
	if !l.CustomSlug {
		t.Error("CustomSlug = false, want true")
	}
}

func TestCreateLink_DuplicateSlug(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	orig := mustCreate(t, d, "dup", "https://a.com")

	l2 := &Link{Slug: "dup", OriginalURL: "https://b.com"}
	if err := CreateLink(ctx, d, l2); !errors.Is(err, ErrDuplicateSlug) {
		t.Fatalf("err = %v, want ErrDuplicateSlug", err)
	}

	// Prior state untouched
	if n := linkCount(t, d); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	got, err := GetLinkBySlug(ctx, d, "dup")
	if err != nil {
		t.Fatal(err)
	}
	if got.OriginalURL != orig.OriginalURL {
		t.Errorf("OriginalURL = %q, want %q", got.OriginalURL, orig.OriginalURL)
	}
}

func TestGetLinkByID_NotFound(t *testing.T) {
	d := testDB(t)
	_, err := GetLinkByID(context.Background(), d, 99999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetLinkBySlug(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	orig := mustCreate(t, d, "found", "https://example.com")

	got, err := GetLinkBySlug(ctx, d, "found")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != orig.ID {
		t.Errorf("ID = %d, want %d", got.ID, orig.ID)
	}
	if got.OriginalURL != "https://example.com" {
		t.Errorf("OriginalURL = %q, want %q", got.OriginalURL, "https://example.com")
	}

	if _, err := GetLinkBySlug(ctx, d, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSlugExists(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	mustCreate(t, d, "here", "https://example.com")

	exists, err := SlugExists(ctx, d, "here")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("expected SlugExists to return true")
	}

	exists, err = SlugExists(ctx, d, "nope")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("expected SlugExists to return false")
	}
}

func TestUpdateLink_PreservesIdentity(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	l := mustCreate(t, d, "upd", "https://old.com")
	if _, err := IncrementClicks(ctx, d, "upd"); err != nil {
		t.Fatal(err)
	}
	before, err := GetLinkByID(ctx, d, l.ID)
	if err != nil {
		t.Fatal(err)
	}

	before.OriginalURL = "https://new.com"
	if err := UpdateLink(ctx, d, before); err != nil {
		t.Fatal(err)
	}

	if before.ID != l.ID {
		t.Errorf("ID = %d, want %d", before.ID, l.ID)
	}
	if !before.CreatedAt.Equal(l.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", l.CreatedAt, before.CreatedAt)
	}
	if before.Clicks != 1 {
		t.Errorf("Clicks = %d, want 1", before.Clicks)
	}
	if before.OriginalURL != "https://new.com" {
		t.Errorf("OriginalURL = %q, want %q", before.OriginalURL, "https://new.com")
	}
}

func TestUpdateLink_DuplicateSlug(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	mustCreate(t, d, "one", "https://a.com")
	l2 := mustCreate(t, d, "two", "https://b.com")

	l2.Slug = "one" // conflict
	if err := UpdateLink(ctx, d, l2); !errors.Is(err, ErrDuplicateSlug) {
		t.Fatalf("err = %v, want ErrDuplicateSlug", err)
	}
}

func TestUpdateLink_SameSlugNoConflict(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	l := mustCreate(t, d, "same", "https://a.com")
	l.OriginalURL = "https://b.com"
	if err := UpdateLink(ctx, d, l); err != nil {
		t.Fatalf("updating a record keeping its own slug should succeed: %v", err)
	}
}

func TestUpdateLink_NotFound(t *testing.T) {
	d := testDB(t)
	l := &Link{ID: 99999, Slug: "x", OriginalURL: "https://a.com"}
	if err := UpdateLink(context.Background(), d, l); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestIncrementClicks_Monotonic(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	mustCreate(t, d, "clicky", "https://example.com")

	const n = 25
	var last *Link
	var err error
	for i := 0; i < n; i++ {
		last, err = IncrementClicks(ctx, d, "clicky")
		if err != nil {
			t.Fatal(err)
		}
	}
	if last.Clicks != n {
		t.Errorf("clicks = %d, want %d", last.Clicks, n)
	}
}

func TestIncrementClicks_NotFound(t *testing.T) {
	d := testDB(t)
	if _, err := IncrementClicks(context.Background(), d, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteLink(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	l := mustCreate(t, d, "del", "https://example.com")

	removed, err := DeleteLink(ctx, d, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !removed {
		t.Error("removed = false, want true")
	}
	if _, err := GetLinkBySlug(ctx, d, "del"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}

	// Absent id is success=false, not an error
	removed, err = DeleteLink(ctx, d, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	if removed {
		t.Error("removed = true, want false for absent id")
	}
}

func TestClearLinks(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	mustCreate(t, d, "a", "https://a.com")
	mustCreate(t, d, "b", "https://b.com")

	if err := ClearLinks(ctx, d); err != nil {
		t.Fatal(err)
	}
	if n := linkCount(t, d); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestListLinks_InsertionOrderAndSearch(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	mustCreate(t, d, "findme", "https://other.com")
	mustCreate(t, d, "xyz", "https://findme.com")
	mustCreate(t, d, "nope", "https://nope.com")

	all, err := ListLinks(ctx, d, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Slug != "findme" || all[2].Slug != "nope" {
		t.Errorf("unexpected order: %q, %q, %q", all[0].Slug, all[1].Slug, all[2].Slug)
	}

	// Matches slug OR original URL, case-insensitive
	results, err := ListLinks(ctx, d, "FINDME")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("len = %d, want 2", len(results))
	}
}

func TestGetStats(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	custom := &Link{Slug: "cust", OriginalURL: "https://a.com", CustomSlug: true}
	if err := CreateLink(ctx, d, custom); err != nil {
		t.Fatal(err)
	}
	mustCreate(t, d, "auto1", "https://b.com")
	mustCreate(t, d, "auto2", "https://c.com")

	for i := 0; i < 3; i++ {
		if _, err := IncrementClicks(ctx, d, "cust"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := IncrementClicks(ctx, d, "auto1"); err != nil {
		t.Fatal(err)
	}

	stats, err := GetStats(ctx, d)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalLinks != 3 {
		t.Errorf("TotalLinks = %d, want 3", stats.TotalLinks)
	}
	if stats.TotalClicks != 4 {
		t.Errorf("TotalClicks = %d, want 4", stats.TotalClicks)
	}
	if stats.CustomLinks != 1 {
		t.Errorf("CustomLinks = %d, want 1", stats.CustomLinks)
	}
	if stats.AutoGeneratedLinks != 2 {
		t.Errorf("AutoGeneratedLinks = %d, want 2", stats.AutoGeneratedLinks)
	}
}

func TestGetStats_Empty(t *testing.T) {
	d := testDB(t)
	stats, err := GetStats(context.Background(), d)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalLinks != 0 || stats.TotalClicks != 0 {
		t.Errorf("stats = %+v, want all zeros", stats)
	}
}
