package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wikankun/localurl/internal/cache"
	"github.com/wikankun/localurl/internal/config"
	"github.com/wikankun/localurl/internal/db"
	"github.com/wikankun/localurl/internal/events"
	"github.com/wikankun/localurl/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	setupLogger(cfg)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer database.Close()

	linkCache, err := cache.New(cfg.CacheSize)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	collector := events.NewCollector(database, cfg.EventBuffer, cfg.FlushInterval, cfg.EventKeep, log.Logger)
	defer collector.Shutdown()

	st := store.New(database, linkCache, log.Logger)
	a := newApp(cfg, database, st, collector)

	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}
	return a.dispatch(args[0], args[1:])
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Pretty console logs on a terminal, JSON otherwise
	if cfg.LogPretty && isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `localurl - local, privacy-first URL shortener

Usage:
  localurl create [-slug name] <url>         shorten a URL
  localurl list [-sort criterion] [-search q]  show all links
  localurl open <slug | fragment>            resolve a short link
  localurl edit [-slug name] [-url u] <id>   edit a link
  localurl delete [-y] <id>                  delete a link
  localurl clear [-y]                        delete all links
  localurl stats                             collection statistics
  localurl export [-o file]                  export links as JSON
  localurl import -file <file>               import links from JSON
  localurl qr [-o file] [-shape s] [-fg hex] <slug>  write a QR code PNG
  localurl events [-n limit]                 recent activity
  localurl home|manage|about|settings        show a page
`)
}
