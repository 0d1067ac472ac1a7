package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jobradar-hq/jobradar-feedwatch/internal/cursor"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/dedup"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/domain"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/feed"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/filter"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/logger"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/session"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/sink"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/storage"
)

// statusKey identifies this worker in the sink's health status table.
const statusKey = "feedwatch"

// SessionManager is the slice of the session machinery the coordinator drives.
type SessionManager interface {
	Ensure(ctx context.Context) (feed.Client, error)
	ReportFloodWait(d time.Duration)
	FloodRemaining() time.Duration
	Invalidate()
}

// SourceLister returns the sources to poll this cycle.
type SourceLister interface {
	ListSources(ctx context.Context) []domain.Source
}

// Deliverer posts accepted items and health statuses downstream.
type Deliverer interface {
	Deliver(ctx context.Context, src domain.Source, item domain.Item) (sink.Outcome, error)
	ReportStatus(ctx context.Context, key, value string)
}

// Notifier posts best-effort operator alerts.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Coordinator runs one ingestion pass over all sources: acquire cursor,
// fetch new items since cursor, filter, deliver, advance cursor, emit
// status. It exclusively owns the cursor store and the dedup window.
type Coordinator struct {
	sessions   SessionManager
	registry   SourceLister
	filters    *filter.Chain
	cursors    *cursor.Store
	window     *dedup.Window
	store      storage.Store
	sink       Deliverer
	notify     Notifier
	fetchLimit int
	log        logger.Logger
}

// Options collects the coordinator dependencies.
type Options struct {
	Sessions   SessionManager
	Registry   SourceLister
	Filters    *filter.Chain
	Cursors    *cursor.Store
	Window     *dedup.Window
	Store      storage.Store
	Sink       Deliverer
	Notify     Notifier
	FetchLimit int
	Log        logger.Logger
}

// New builds a cycle coordinator.
func New(opts Options) *Coordinator {
	if opts.Log == nil {
		opts.Log = &logger.NopLogger{}
	}
	if opts.Cursors == nil {
		opts.Cursors = cursor.NewStore()
	}
	if opts.Window == nil {
		opts.Window = dedup.NewWindow(0)
	}
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = 50
	}
	return &Coordinator{
		sessions:   opts.Sessions,
		registry:   opts.Registry,
		filters:    opts.Filters,
		cursors:    opts.Cursors,
		window:     opts.Window,
		store:      opts.Store,
		sink:       opts.Sink,
		notify:     opts.Notify,
		fetchLimit: opts.FetchLimit,
		log:        opts.Log,
	}
}

// RunCycle executes one full pass and reports the cycle status. Per-source
// failures never abort the cycle; only a missing/broken session skips it.
func (c *Coordinator) RunCycle(ctx context.Context) domain.CycleStats {
	var stats domain.CycleStats

	client, err := c.sessions.Ensure(ctx)
	if err != nil {
		c.reportSessionFailure(ctx, err)
		return stats
	}

	if c.filters.NoKeywords() {
		// Fail-closed: an empty keyword list would flood downstream with
		// everything, so nothing is fetched and operators get a distinct
		// status to notice.
		c.log.WarnObj("keyword list is empty; skipping cycle", "filter_state", "no_keywords")
		c.sink.ReportStatus(ctx, statusKey, "no_keywords")
		return stats
	}

	sources := c.registry.ListSources(ctx)
	if len(sources) == 0 {
		c.log.WarnObj("no sources to poll this cycle", "registry_state", "empty")
		c.sink.ReportStatus(ctx, statusKey, "no_sources")
		return stats
	}

	for _, src := range sources {
		if remaining := c.sessions.FloodRemaining(); remaining > 0 {
			// Provider-mandated cool-down: every remaining source is
			// skipped without a provider call.
			c.log.WarnObj("flood wait active; skipping source", "flood_skip", map[string]any{
				"source":        src.Identity,
				"remaining_sec": int(remaining.Seconds()),
			})
			continue
		}
		c.processSource(ctx, client, src, &stats)
	}

	status := fmt.Sprintf("ok new=%d sent=%d sources=%d", stats.Seen, stats.Delivered, stats.Sources)
	c.sink.ReportStatus(ctx, statusKey, status)
	c.log.InfoObj("cycle completed", "cycle_stats", map[string]any{
		"sources":    stats.Sources,
		"seen":       stats.Seen,
		"filtered":   stats.Filtered,
		"delivered":  stats.Delivered,
		"duplicates": stats.Duplicates,
		"failed":     stats.Failed,
	})
	return stats
}

// reportSessionFailure maps session errors onto the health statuses the
// operators watch for.
func (c *Coordinator) reportSessionFailure(ctx context.Context, err error) {
	var fw *feed.FloodWaitError
	var status string
	switch {
	case errors.As(err, &fw):
		status = fmt.Sprintf("flood_wait %ds", int(fw.RetryAfter.Seconds()))
	case errors.Is(err, session.ErrNoCredential), errors.Is(err, session.ErrCredentialInvalid):
		status = "no_session"
	case errors.Is(err, feed.ErrUnauthorized):
		status = "not_authorized"
	default:
		status = "connect_error"
	}

	c.log.WarnObj("session unavailable; skipping cycle", "session_status", map[string]any{
		"status": status,
		"error":  err.Error(),
	})
	c.sink.ReportStatus(ctx, statusKey, status)
}

// processSource handles one source end to end. The cursor only advances
// after the full fetch-and-filter pass for the source, never before.
func (c *Coordinator) processSource(ctx context.Context, client feed.Client, src domain.Source, stats *domain.CycleStats) {
	handle, err := client.Resolve(ctx, src.Identity)
	if err != nil {
		c.handleProviderError(ctx, src, "resolve", err)
		return
	}

	cur, known := c.cursors.Get(src.Identity)
	if !known {
		// Warm start: seed the cursor to the current maximum so the
		// historical backlog is never delivered.
		max, err := client.CurrentMax(ctx, handle)
		if err != nil {
			c.handleProviderError(ctx, src, "head", err)
			return
		}
		c.cursors.Seed(src.Identity, max)
		c.log.InfoObj("warm start: cursor seeded", "warm_start", map[string]any{
			"source": src.Identity,
			"cursor": max,
		})
		stats.Sources++
		return
	}

	items, err := client.FetchSince(ctx, handle, cur, c.fetchLimit)
	if err != nil {
		c.handleProviderError(ctx, src, "fetch", err)
		return
	}

	maxSeen := cur
	for _, item := range items {
		if item.Seq > maxSeen {
			maxSeen = item.Seq
		}
		stats.Seen++
		c.processItem(ctx, src, item, stats)
	}

	// Advance even when nothing passed filtering, otherwise the same
	// backlog is re-scanned every cycle.
	c.cursors.Advance(src.Identity, maxSeen)
	stats.Sources++
}

func (c *Coordinator) processItem(ctx context.Context, src domain.Source, item domain.Item, stats *domain.CycleStats) {
	verdict := c.filters.Evaluate(ctx, item)
	if !verdict.Relevant {
		stats.Filtered++
		c.log.DebugObj("item filtered", "filter_drop", map[string]any{
			"source": src.Identity,
			"seq":    item.Seq,
			"reason": verdict.Reason,
		})
		return
	}

	fp := domain.ItemFingerprint(src.Identity, item.Seq)
	if c.window.Seen(fp) {
		stats.Duplicates++
		return
	}
	if c.store != nil {
		if seen, err := c.store.SeenFingerprint(fp); err == nil && seen {
			stats.Duplicates++
			c.window.Record(fp)
			return
		}
	}

	outcome, err := c.sink.Deliver(ctx, src, item)
	switch outcome {
	case sink.OutcomeAccepted:
		stats.Delivered++
	case sink.OutcomeDuplicate:
		// The sink already holds this fingerprint; success, not a retry.
		stats.Duplicates++
	default:
		stats.Failed++
		c.alert(ctx, fmt.Sprintf("delivery failed for %s seq %d: %v (item will not be retried)", src.Identity, item.Seq, err))
		c.log.ErrorObj("delivery failed", "delivery_error", map[string]any{
			"source": src.Identity,
			"seq":    item.Seq,
			"error":  fmt.Sprint(err),
		})
		return
	}

	c.window.Record(fp)
	if c.store != nil {
		if err := c.store.MarkFingerprint(fp); err != nil {
			c.log.WarnObj("fingerprint store mark failed", "store_error", err.Error())
		}
	}
}

// handleProviderError alerts and skips the source; a flood-wait signal
// additionally arms the session gate so no further provider calls happen
// until the mandated cool-down elapses.
func (c *Coordinator) handleProviderError(ctx context.Context, src domain.Source, op string, err error) {
	var fw *feed.FloodWaitError
	if errors.As(err, &fw) {
		c.sessions.ReportFloodWait(fw.RetryAfter)
		c.alert(ctx, fmt.Sprintf("provider flood wait of %s during %s of %s", fw.RetryAfter, op, src.Identity))
		return
	}

	if errors.Is(err, feed.ErrUnauthorized) {
		// Authorization lost mid-cycle: drop the session now so the next
		// Ensure re-polls the secret store instead of reusing a dead client.
		c.sessions.Invalidate()
		c.log.WarnObj("session lost authorization mid-cycle", "source_error", map[string]any{
			"source": src.Identity,
			"op":     op,
		})
		c.alert(ctx, fmt.Sprintf("session lost authorization during %s of %s; reconnecting next cycle", op, src.Identity))
		return
	}

	if errors.Is(err, feed.ErrSourceUnresolvable) {
		c.log.WarnObj("source unresolvable; skipped", "source_error", map[string]any{
			"source": src.Identity,
			"op":     op,
		})
		c.alert(ctx, fmt.Sprintf("source %s is unresolvable and was skipped", src.Identity))
		return
	}

	c.log.ErrorObj("provider call failed; source skipped", "source_error", map[string]any{
		"source": src.Identity,
		"op":     op,
		"error":  err.Error(),
	})
	c.alert(ctx, fmt.Sprintf("%s failed for %s: %v", op, src.Identity, err))
}

func (c *Coordinator) alert(ctx context.Context, text string) {
	if c.notify == nil {
		return
	}
	c.notify.Notify(ctx, text)
}
