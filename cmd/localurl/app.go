package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/wikankun/localurl/internal/codec"
	"github.com/wikankun/localurl/internal/config"
	"github.com/wikankun/localurl/internal/events"
	"github.com/wikankun/localurl/internal/models"
	"github.com/wikankun/localurl/internal/qr"
	"github.com/wikankun/localurl/internal/router"
	"github.com/wikankun/localurl/internal/slug"
	"github.com/wikankun/localurl/internal/store"
)

// app is the terminal UI around the core: it implements the router's
// Notifier, Navigator and Confirmer sinks and maps subcommands onto store,
// router and codec operations.
type app struct {
	cfg    *config.Config
	db     *sql.DB
	store  *store.Store
	events *events.Collector
	router *router.Router

	out io.Writer
	in  io.Reader

	assumeYes bool

	// manage-page state driven by the router hooks
	lastSort   store.SortCriterion
	lastSearch string
	pending    *models.Link
}

func newApp(cfg *config.Config, database *sql.DB, st *store.Store, collector *events.Collector) *app {
	a := &app{
		cfg:      cfg,
		db:       database,
		store:    st,
		events:   collector,
		out:      os.Stdout,
		in:       os.Stdin,
		lastSort: store.SortCreatedDesc,
	}
	a.router = router.New(st, a, a, log.Logger,
		router.WithHook(router.PageHome, a.homeHook),
		router.WithHook(router.PageManage, a.manageHook),
	)
	return a
}

// --- router sinks ---

func (a *app) Notify(message string) {
	fmt.Fprintln(os.Stderr, "» "+message)
}

func (a *app) OpenURL(url string) {
	fmt.Fprintln(a.out, url)
}

func (a *app) ShowPage(page router.Page) {
	switch page {
	case router.PageAbout:
		fmt.Fprintln(a.out, "LocalURL - a local, privacy-first URL shortener.")
		fmt.Fprintln(a.out, "Links live in a local database and resolve only on this machine.")
	case router.PageSettings:
		fmt.Fprintf(a.out, "database:  %s\n", a.cfg.DBPath)
		fmt.Fprintf(a.out, "base url:  %s\n", a.cfg.BaseURL)
		fmt.Fprintf(a.out, "cache:     %d entries\n", a.cfg.CacheSize)
		fmt.Fprintf(a.out, "event log: keep %d, buffer %d\n", a.cfg.EventKeep, a.cfg.EventBuffer)
	}
	// home and manage render through their hooks
}

func (a *app) SetFragment(fragment string) {
	log.Debug().Str("fragment", fragment).Msg("location reset")
}

func (a *app) Confirm(message string) bool {
	if a.assumeYes {
		return true
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", message)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

// --- page hooks ---

// homeHook clears the result of the previous creation, like resetting the
// create form.
func (a *app) homeHook(ctx context.Context) error {
	a.pending = nil
	return nil
}

// manageHook reloads the link list with the last-used sort and filter.
func (a *app) manageHook(ctx context.Context) error {
	links, err := a.store.Search(ctx, a.lastSearch)
	if err != nil {
		return err
	}
	store.Sort(links, a.lastSort)
	a.renderLinks(links)
	return nil
}

// --- commands ---

func (a *app) dispatch(cmd string, args []string) error {
	ctx := context.Background()
	switch cmd {
	case "create":
		return a.cmdCreate(ctx, args)
	case "list":
		return a.cmdList(ctx, args)
	case "open":
		return a.cmdOpen(ctx, args)
	case "edit":
		return a.cmdEdit(ctx, args)
	case "delete":
		return a.cmdDelete(ctx, args)
	case "clear":
		return a.cmdClear(ctx, args)
	case "stats":
		return a.cmdStats(ctx)
	case "export":
		return a.cmdExport(ctx, args)
	case "import":
		return a.cmdImport(ctx, args)
	case "qr":
		return a.cmdQR(ctx, args)
	case "events":
		return a.cmdEvents(ctx, args)
	case "home", "manage", "about", "settings":
		a.router.HandleLocation(ctx, "#/"+cmd)
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) cmdCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	slugFlag := fs.String("slug", "", "custom slug")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: localurl create [-slug name] <url>")
	}

	custom := *slugFlag != ""
	cleaned := slug.Sanitize(*slugFlag)
	if custom && cleaned == "" {
		a.Notify("Custom slug has no valid characters (a-z, 0-9, _ and -)")
		return fmt.Errorf("invalid custom slug %q", *slugFlag)
	}

	link, err := a.store.Create(ctx, cleaned, fs.Arg(0), custom)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicateSlug):
			a.Notify("That slug is already taken, pick another one")
		case errors.Is(err, store.ErrInvalidURL):
			a.Notify("Enter a valid http or https URL")
		default:
			a.Notify("Failed to create link")
		}
		return err
	}
	a.pending = link
	a.events.Push("link_created", link.Slug)
	fmt.Fprintln(a.out, router.ShortURL(a.cfg.BaseURL, link.Slug))
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	sortBy := fs.String("sort", string(store.SortCreatedDesc),
		"created-desc|created-asc|clicks-desc|clicks-asc|slug-asc|slug-desc")
	search := fs.String("search", "", "filter by slug or URL substring")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a.lastSort = store.SortCriterion(*sortBy)
	a.lastSearch = *search
	a.router.HandleLocation(ctx, "#/manage")
	return nil
}

func (a *app) cmdOpen(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: localurl open <slug | fragment>")
	}
	loc := args[0]
	// Bare slugs are shorthand for the redirect fragment
	if !strings.HasPrefix(loc, "#") && !strings.Contains(loc, "/") {
		loc = "#/go/" + loc
	}
	d := a.router.HandleLocation(ctx, loc)
	if d.Kind == router.DispositionRedirect {
		a.events.Push("redirect", d.Slug)
	}
	return nil
}

func (a *app) cmdEdit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	slugFlag := fs.String("slug", "", "new slug")
	urlFlag := fs.String("url", "", "new original URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: localurl edit [-slug name] [-url u] <id>")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", fs.Arg(0))
	}

	link, err := a.store.Update(ctx, id, store.UpdateParams{
		Slug:        slug.Sanitize(*slugFlag),
		OriginalURL: *urlFlag,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			a.Notify("Link not found")
		case errors.Is(err, models.ErrDuplicateSlug):
			a.Notify("That slug is already taken, pick another one")
		case errors.Is(err, store.ErrInvalidURL):
			a.Notify("Enter a valid http or https URL")
		default:
			a.Notify("Failed to update link")
		}
		return err
	}
	a.events.Push("link_updated", link.Slug)
	fmt.Fprintln(a.out, router.ShortURL(a.cfg.BaseURL, link.Slug))
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.BoolVar(&a.assumeYes, "y", a.assumeYes, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: localurl delete [-y] <id>")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", fs.Arg(0))
	}

	if !a.Confirm("Delete this link?") {
		a.Notify("Delete cancelled")
		return nil
	}
	removed, err := a.store.Delete(ctx, id)
	if err != nil {
		a.Notify("Failed to delete link")
		return err
	}
	if !removed {
		a.Notify(fmt.Sprintf("No link with id %d", id))
		return nil
	}
	a.events.Push("link_deleted", "")
	fmt.Fprintln(a.out, "deleted")
	return nil
}

func (a *app) cmdClear(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.BoolVar(&a.assumeYes, "y", a.assumeYes, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !a.Confirm("Delete ALL links? This cannot be undone.") {
		a.Notify("Clear cancelled")
		return nil
	}
	if err := a.store.Clear(ctx); err != nil {
		a.Notify("Failed to clear links")
		return err
	}
	a.events.Push("links_cleared", "")
	fmt.Fprintln(a.out, "all links deleted")
	return nil
}

func (a *app) cmdStats(ctx context.Context) error {
	stats, err := a.store.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "links:          %d\n", stats.TotalLinks)
	fmt.Fprintf(a.out, "total clicks:   %d\n", stats.TotalClicks)
	fmt.Fprintf(a.out, "custom slugs:   %d\n", stats.CustomLinks)
	fmt.Fprintf(a.out, "auto-generated: %d\n", stats.AutoGeneratedLinks)
	return nil
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := codec.Export(ctx, a.store)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	data = append(data, '\n')

	if *out == "" {
		_, err = a.out.Write(data)
	} else {
		err = os.WriteFile(*out, data, 0o644)
	}
	if err != nil {
		return err
	}
	a.events.Push("links_exported", "")
	return nil
}

func (a *app) cmdImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	file := fs.String("file", "", "JSON file to import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("usage: localurl import -file <file>")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	res, err := codec.Import(ctx, a.store, data)
	if err != nil {
		if errors.Is(err, codec.ErrInvalidEnvelope) {
			a.Notify("Invalid import file")
		}
		return err
	}

	fmt.Fprintf(a.out, "imported %d, skipped %d\n", res.Imported, res.Skipped)
	for _, msg := range res.Errors {
		a.Notify(msg)
	}
	a.events.Push("links_imported", "")
	return nil
}

func (a *app) cmdQR(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("qr", flag.ContinueOnError)
	out := fs.String("o", "", "output file (default <slug>-qr.png)")
	shape := fs.String("shape", "square", "square or circle")
	fg := fs.String("fg", "", "foreground color, #rrggbb")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: localurl qr [-o file] [-shape s] [-fg hex] <slug>")
	}

	link, err := a.store.GetBySlug(ctx, fs.Arg(0))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			a.Notify("Link not found: " + fs.Arg(0))
		}
		return err
	}

	png, err := qr.PNG(router.ShortURL(a.cfg.BaseURL, link.Slug), qr.Options{Shape: *shape, FgHex: *fg})
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = link.Slug + "-qr.png"
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(a.out, path)
	return nil
}

func (a *app) cmdEvents(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	limit := fs.Int("n", 20, "number of events to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	evs, err := models.RecentEvents(ctx, a.db, *limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, e := range evs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", humanize.Time(e.OccurredAt), e.Name, e.Slug)
	}
	return w.Flush()
}

func (a *app) renderLinks(links []models.Link) {
	if len(links) == 0 {
		fmt.Fprintln(a.out, "no links")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLUG\tURL\tCLICKS\tCREATED\tCUSTOM")
	for _, l := range links {
		custom := ""
		if l.CustomSlug {
			custom = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
			l.ID, l.Slug, l.OriginalURL, l.Clicks, humanize.Time(l.CreatedAt), custom)
	}
	w.Flush()
}
