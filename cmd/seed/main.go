// Seeds the local database with sample links and click counts, for trying
// out the manage/list/stats commands on non-empty data.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/wikankun/localurl/internal/config"
	"github.com/wikankun/localurl/internal/db"
	"github.com/wikankun/localurl/internal/models"
)

type seedLink struct {
	slug   string
	url    string
	custom bool
	// weight controls relative click volume (higher = more clicks)
	weight float64
}

var links = []seedLink{
	{"docs", "https://go.dev/doc/", true, 5.0},
	{"blog", "https://go.dev/blog/", true, 3.5},
	{"spec", "https://go.dev/ref/spec", true, 2.5},
	{"play", "https://go.dev/play/", true, 4.0},
	{"wiki", "https://en.wikipedia.org/wiki/URL_shortening", true, 1.5},
	{"hn", "https://news.ycombinator.com/", true, 4.5},
	{"sqlite", "https://sqlite.org/docs.html", true, 2.0},
	{"Xk29fA", "https://example.com/some/deep/path?ref=newsletter", false, 1.0},
	{"p3Qz_m", "https://example.org/articles/2024/local-first-software", false, 0.8},
	{"t9-wBc", "https://example.net/downloads/report.pdf", false, 0.4},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "database:", err)
		os.Exit(1)
	}
	defer database.Close()

	ctx := context.Background()
	created := 0
	for _, s := range links {
		l := &models.Link{Slug: s.slug, OriginalURL: s.url, CustomSlug: s.custom}
		if err := models.CreateLink(ctx, database, l); err != nil {
			if errors.Is(err, models.ErrDuplicateSlug) {
				continue // already seeded
			}
			fmt.Fprintf(os.Stderr, "seed %s: %v\n", s.slug, err)
			os.Exit(1)
		}
		created++

		clicks := int(s.weight * float64(rand.Intn(20)))
		for i := 0; i < clicks; i++ {
			if _, err := models.IncrementClicks(ctx, database, s.slug); err != nil {
				fmt.Fprintf(os.Stderr, "clicks %s: %v\n", s.slug, err)
				os.Exit(1)
			}
		}
	}

	fmt.Printf("seeded %d links into %s\n", created, cfg.DBPath)
}
