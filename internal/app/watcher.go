package app

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/jobradar-hq/jobradar-feedwatch/internal/config"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/cursor"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/dedup"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/feed"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/filter"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/ingest"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/logger"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/registry"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/session"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/sink"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/storage"
	"github.com/jobradar-hq/jobradar-feedwatch/pkg/alerts"
	"github.com/jobradar-hq/jobradar-feedwatch/pkg/httpclient"
)

// Watcher represents the feed watcher runtime. It wires the session manager,
// source registry, filter chain, and sink client into the cycle coordinator
// and drives the jittered poll loop. It also owns storage initialization and
// cleanup.
type Watcher struct {
	cfg      *config.Config
	sessions *session.Manager
	coord    *ingest.Coordinator
	log      logger.Logger
	store    storage.Store
	rnd      *rand.Rand
}

// opsNotifier adapts the alert fanout to the narrow Notify surface the
// session manager and coordinator consume.
type opsNotifier struct {
	fanout *alerts.Fanout
}

func (n *opsNotifier) Notify(ctx context.Context, text string) {
	if n == nil || n.fanout == nil {
		return
	}
	n.fanout.Notify(ctx, alerts.Warning(text))
}

// NewWatcher builds a watcher runtime from config files.
func NewWatcher(ctx context.Context, cfg *config.Config, log logger.Logger) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	fanout, err := buildAlerts(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("build alerters: %w", err)
	}
	notify := &opsNotifier{fanout: fanout}

	httpClient := httpclient.NewRestyClient(cfg.HTTPTimeout)
	reg := registry.NewClient(httpClient, cfg.ConfigServiceURL, cfg.ConfigServiceToken, cfg.SourcesFile, log)

	dial := func(credential string) (feed.Client, error) {
		return feed.NewGateway(cfg.GatewayURL, cfg.APIID, cfg.APIHash, credential, httpClient, cfg.HTTPTimeout)
	}
	sessions := session.NewManager(reg, cfg.SessionSecretKey, cfg.SessionCredential, dial, notify, log)

	chain := buildFilters(cfg, log)

	storeOpts := storage.Options{
		FingerprintTTL:  cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"fingerprint_ttl_seconds":  int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	deliverer := sink.NewClient(cfg.SinkURL, cfg.SinkSecret, cfg.HTTPTimeout, log)

	coord := ingest.New(ingest.Options{
		Sessions:   sessions,
		Registry:   reg,
		Filters:    chain,
		Cursors:    cursor.NewStore(),
		Window:     dedup.NewWindow(cfg.DedupCapacity),
		Store:      store,
		Sink:       deliverer,
		Notify:     notify,
		FetchLimit: cfg.FetchLimit,
		Log:        log,
	})

	return &Watcher{
		cfg:      cfg,
		sessions: sessions,
		coord:    coord,
		log:      log,
		store:    store,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// buildAlerts loads the alerter registry and assembles the fanout. A missing
// registry file is not fatal: alerts degrade to the structured log.
func buildAlerts(ctx context.Context, cfg *config.Config, log logger.Logger) (*alerts.Fanout, error) {
	if _, err := os.Stat(cfg.AlertsFile); err != nil {
		log.WarnObj("alerts registry missing; alerts go to the log only", "alerts_file", cfg.AlertsFile)
		return alerts.NewFanout([]alerts.Alerter{alerts.NewLogAlerter("log", log)}, log), nil
	}

	alertReg, err := alerts.LoadRegistry(cfg.AlertsFile)
	if err != nil {
		return nil, fmt.Errorf("load alerts registry: %w", err)
	}
	enabled := alertReg.Enabled()
	if len(enabled) == 0 {
		log.WarnObj("no alerters enabled; alerts go to the log only", "alerts_file", cfg.AlertsFile)
		return alerts.NewFanout([]alerts.Alerter{alerts.NewLogAlerter("log", log)}, log), nil
	}

	built, err := alerts.BuildAll(ctx, alerts.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, err
	}
	summaries := make([]map[string]string, 0, len(enabled))
	for _, ac := range enabled {
		summaries = append(summaries, map[string]string{"id": ac.ID, "type": ac.Type})
	}
	log.InfoObj("alerters registry loaded", "alerters_meta", map[string]any{
		"count":    len(summaries),
		"alerters": summaries,
	})
	return alerts.NewFanout(built, log), nil
}

// buildFilters assembles the lexical stage and, when enabled, the semantic
// classifier behind it.
func buildFilters(cfg *config.Config, log logger.Logger) *filter.Chain {
	lexical := filter.NewLexical(cfg.Keywords)
	var semantic filter.Filter
	if cfg.SemanticEnabled {
		semantic = filter.NewSemantic(filter.SemanticConfig{
			URL:      cfg.SemanticURL,
			Model:    cfg.SemanticModel,
			APIKey:   cfg.SemanticAPIKey,
			MaxChars: cfg.SemanticMaxChars,
			Timeout:  cfg.HTTPTimeout,
		}, log)
	}
	return filter.NewChain(lexical, semantic)
}

// Run starts the poll loop until the context is cancelled. Cycles are spaced
// by a uniformly random interval inside the configured window so the
// provider never sees a fixed request cadence.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.coord == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	defer w.close()

	w.log.InfoObj("watcher loop starting", "watcher_state", map[string]any{
		"poll_interval_min": w.cfg.PollIntervalMin.String(),
		"poll_interval_max": w.cfg.PollIntervalMax.String(),
		"fetch_limit":       w.cfg.FetchLimit,
	})

	w.runOnce(ctx)

	timer := time.NewTimer(w.nextInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watcher loop exiting", "reason", ctx.Err())
			return nil
		case <-timer.C:
			w.runOnce(ctx)
			timer.Reset(w.nextInterval())
		}
	}
}

// runOnce performs a single ingestion cycle and logs its timing.
func (w *Watcher) runOnce(ctx context.Context) {
	start := time.Now()
	stats := w.coord.RunCycle(ctx)
	w.log.InfoObj("cycle finished", "cycle_meta", map[string]any{
		"sources":    stats.Sources,
		"delivered":  stats.Delivered,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
}

// nextInterval draws a uniform delay from [PollIntervalMin, PollIntervalMax].
func (w *Watcher) nextInterval() time.Duration {
	min := w.cfg.PollIntervalMin
	max := w.cfg.PollIntervalMax
	if max <= min {
		return min
	}
	return min + time.Duration(w.rnd.Int63n(int64(max-min)+1))
}

// close tears down the session and the storage backend.
func (w *Watcher) close() {
	if w == nil {
		return
	}
	if w.sessions != nil {
		w.sessions.Close()
	}
	if w.store != nil {
		if err := w.store.Close(); err != nil {
			w.log.ErrorObj("storage close failed", "error", err)
		}
	}
}
