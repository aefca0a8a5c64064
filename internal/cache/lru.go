package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wikankun/localurl/internal/models"
)

// LinkCache is an LRU cache over slug lookups. It stores Link values, not
// pointers, so callers always work on copies.
type LinkCache struct {
	c *lru.Cache[string, models.Link]
}

func New(size int) (*LinkCache, error) {
	c, err := lru.New[string, models.Link](size)
	if err != nil {
		return nil, err
	}
	return &LinkCache{c: c}, nil
}

func (lc *LinkCache) Get(slug string) (models.Link, bool) {
	return lc.c.Get(slug)
}

func (lc *LinkCache) Set(slug string, link models.Link) {
	lc.c.Add(slug, link)
}

func (lc *LinkCache) Invalidate(slug string) {
	lc.c.Remove(slug)
}

func (lc *LinkCache) Purge() {
	lc.c.Purge()
}
