package cache

import (
	"testing"

	"github.com/wikankun/localurl/internal/models"
)

func TestCache_SetAndGet(t *testing.T) {
	c, err := New(10)
	if err != nil {
		t.Fatal(err)
	}

	c.Set("abc", models.Link{ID: 1, Slug: "abc", OriginalURL: "https://example.com"})

	got, found := c.Get("abc")
	if !found {
		t.Fatal("expected cache hit")
	}
	if got.ID != 1 || got.OriginalURL != "https://example.com" {
		t.Errorf("got %+v, want link with ID=1", got)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c, err := New(10)
	if err != nil {
		t.Fatal(err)
	}

	_, found := c.Get("nonexistent")
	if found {
		t.Error("expected cache miss")
	}
}

func TestCache_Invalidate(t *testing.T) {
	c, err := New(10)
	if err != nil {
		t.Fatal(err)
	}

	c.Set("abc", models.Link{ID: 1, Slug: "abc"})
	c.Invalidate("abc")

	if _, found := c.Get("abc"); found {
		t.Error("expected cache miss after invalidate")
	}
}

func TestCache_Purge(t *testing.T) {
	c, err := New(10)
	if err != nil {
		t.Fatal(err)
	}

	c.Set("a", models.Link{ID: 1})
	c.Set("b", models.Link{ID: 2})
	c.Purge()

	if _, found := c.Get("a"); found {
		t.Error("expected 'a' to be gone after purge")
	}
	if _, found := c.Get("b"); found {
		t.Error("expected 'b' to be gone after purge")
	}
}

func TestCache_EvictsLRU(t *testing.T) {
	c, err := New(2)
	if err != nil {
		t.Fatal(err)
	}

	c.Set("a", models.Link{ID: 1})
	c.Set("b", models.Link{ID: 2})
	// Access "a" to make "b" the LRU
	c.Get("a")
	// Insert "c" — should evict "b" (LRU)
	c.Set("c", models.Link{ID: 3})

	if _, found := c.Get("b"); found {
		t.Error("expected 'b' to be evicted")
	}
	if _, found := c.Get("a"); !found {
		t.Error("expected 'a' to still be cached")
	}
	if _, found := c.Get("c"); !found {
		t.Error("expected 'c' to be cached")
	}
}

func TestCache_CopySemantics(t *testing.T) {
	c, err := New(10)
	if err != nil {
		t.Fatal(err)
	}

	c.Set("abc", models.Link{ID: 1, Slug: "abc", Clicks: 1})

	got, _ := c.Get("abc")
	got.Clicks = 99

	again, _ := c.Get("abc")
	if again.Clicks != 1 {
		t.Errorf("cached value mutated through a returned copy: clicks = %d, want 1", again.Clicks)
	}
}
