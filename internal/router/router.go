package router

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wikankun/localurl/internal/models"
	"github.com/wikankun/localurl/internal/store"
)

// Notifier receives fire-and-forget user-visible messages (toasts).
type Notifier interface {
	Notify(message string)
}

// Navigator performs the navigation side effects the router decides on:
// leaving for an external URL, switching the visible in-app page, or
// rewriting the location fragment.
type Navigator interface {
	OpenURL(url string)
	ShowPage(page Page)
	SetFragment(fragment string)
}

// Confirmer is the yes/no gate the UI runs before destructive operations.
type Confirmer interface {
	Confirm(message string) bool
}

// DispositionKind is the routing decision for a location.
type DispositionKind int

const (
	// DispositionPage means an in-app page was displayed.
	DispositionPage DispositionKind = iota
	// DispositionRedirect means the browsing context was sent to the
	// link's original URL.
	DispositionRedirect
	// DispositionNotFound means a redirect was requested for an unknown
	// slug and the router fell back to home.
	DispositionNotFound
)

type Disposition struct {
	Kind DispositionKind
	Page Page   // page shown, for Page and NotFound kinds
	Slug string // slug of the redirect attempt, if any
	URL  string // redirect target, Redirect kind only
}

// Hook runs after its page becomes visible. Errors are logged, never fatal.
type Hook func(ctx context.Context) error

type Option func(*Router)

// WithHook registers a per-page setup hook. Hooks are fixed at construction.
func WithHook(p Page, h Hook) Option {
	return func(r *Router) { r.hooks[p] = h }
}

// Router turns location fragments into dispositions and drives the
// navigation sinks.
type Router struct {
	store  *store.Store
	nav    Navigator
	notify Notifier
	hooks  map[Page]Hook
	log    zerolog.Logger

	mu      sync.Mutex
	current Page
}

func New(st *store.Store, nav Navigator, notifier Notifier, logger zerolog.Logger, opts ...Option) *Router {
	r := &Router{
		store:  st,
		nav:    nav,
		notify: notifier,
		hooks:  make(map[Page]Hook),
		log:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleLocation resolves a location fragment such as "#/go/abc" or
// "#/manage". A redirect to an unknown slug is not an error: it notifies,
// shows home, and resets the fragment so back/forward does not re-trigger it.
func (r *Router) HandleLocation(ctx context.Context, location string) Disposition {
	segments := splitLocation(location)

	if len(segments) >= 2 && segments[0] == "go" {
		return r.redirect(ctx, segments[1])
	}

	page := PageHome
	if len(segments) > 0 {
		page = parsePage(segments[0])
	}
	r.showPage(ctx, page)
	return Disposition{Kind: DispositionPage, Page: page}
}

// CurrentPage returns the page shown by the last navigation, or PageNone
// before the first one.
func (r *Router) CurrentPage() Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// ShortURL builds the shareable short link for a slug. Pure function, no
// store access.
func ShortURL(base, slug string) string {
	return base + "#/go/" + slug
}

func (r *Router) redirect(ctx context.Context, slug string) Disposition {
	link, err := r.store.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			r.notify.Notify("Link not found: " + slug)
		} else {
			r.log.Error().Err(err).Str("slug", slug).Msg("redirect lookup failed")
			r.notify.Notify("Error redirecting to link")
		}
		return r.fallbackHome(ctx, slug)
	}

	if _, err := r.store.IncrementClicks(ctx, slug); err != nil {
		r.log.Error().Err(err).Str("slug", slug).Msg("click increment failed")
		r.notify.Notify("Error redirecting to link")
		return r.fallbackHome(ctx, slug)
	}

	r.log.Info().Str("slug", slug).Str("url", link.OriginalURL).Msg("redirect")
	r.nav.OpenURL(link.OriginalURL)
	return Disposition{Kind: DispositionRedirect, Slug: slug, URL: link.OriginalURL}
}

func (r *Router) fallbackHome(ctx context.Context, slug string) Disposition {
	r.showPage(ctx, PageHome)
	r.nav.SetFragment("#/")
	return Disposition{Kind: DispositionNotFound, Page: PageHome, Slug: slug}
}

func (r *Router) showPage(ctx context.Context, page Page) {
	r.nav.ShowPage(page)
	r.mu.Lock()
	r.current = page
	r.mu.Unlock()

	if hook := r.hooks[page]; hook != nil {
		if err := hook(ctx); err != nil {
			r.log.Error().Err(err).Stringer("page", page).Msg("page hook failed")
		}
	}
}

func splitLocation(location string) []string {
	location = strings.TrimPrefix(location, "#")
	var segments []string
	for _, seg := range strings.Split(location, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}
