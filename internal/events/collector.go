package events

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/wikankun/localurl/internal/models"
)

// Collector buffers activity events and flushes them to the events table in
// batches, keeping only the most recent entries.
type Collector struct {
	ch   chan models.Event
	stop chan struct{}
	done chan struct{}
	db   *sql.DB
	keep int
	log  zerolog.Logger
}

func NewCollector(db *sql.DB, bufferSize int, flushInterval time.Duration, keep int, logger zerolog.Logger) *Collector {
	c := &Collector{
		ch:   make(chan models.Event, bufferSize),
		stop: make(chan struct{}),
		done: make(chan struct{}),
		db:   db,
		keep: keep,
		log:  logger,
	}
	go c.run(flushInterval)
	return c
}

// Push records an event non-blocking. Drops the event if the buffer is full.
func (c *Collector) Push(name, slug string) {
	ev := models.Event{Name: name, Slug: slug, OccurredAt: time.Now().UTC()}
	select {
	case c.ch <- ev:
	default:
		// buffer full, drop event
	}
}

// Shutdown flushes remaining events and returns.
func (c *Collector) Shutdown() {
	close(c.stop)
	<-c.done
}

func (c *Collector) run(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.stop:
			c.flush()
			return
		}
	}
}

func (c *Collector) flush() {
	var batch []models.Event
	for {
		select {
		case ev := <-c.ch:
			batch = append(batch, ev)
		default:
			goto done
		}
	}
done:
	if len(batch) == 0 {
		return
	}

	ctx := context.Background()
	if err := models.BatchInsertEvents(ctx, c.db, batch); err != nil {
		c.log.Error().Err(err).Int("count", len(batch)).Msg("event flush failed")
		return
	}
	if err := models.TrimEvents(ctx, c.db, c.keep); err != nil {
		c.log.Error().Err(err).Msg("event trim failed")
		return
	}
	c.log.Debug().Int("count", len(batch)).Msg("events flushed")
}
