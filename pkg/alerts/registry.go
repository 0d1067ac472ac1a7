package alerts

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Builder creates an Alerter from a config entry.
type Builder func(ctx context.Context, cfg AlerterConfig, log Logger) (Alerter, error)

// Registry maps alerter types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	AlerterFor(ctx context.Context, cfg AlerterConfig, log Logger) (Alerter, error)
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) Registry {
	r := &registry{
		builders: make(map[string]Builder),
	}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// Register associates a builder with an alerter type.
func (r *registry) Register(typ string, builder Builder) {
	if typ = strings.TrimSpace(strings.ToLower(typ)); typ == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// AlerterFor returns the alerter built for the provided config.
func (r *registry) AlerterFor(ctx context.Context, cfg AlerterConfig, log Logger) (Alerter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("alerter %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no alerter registered for type %q", cfg.Type)
	}
	return builder(ctx, cfg, log)
}

// DefaultRegistry wires up known alerters.
func DefaultRegistry() Registry {
	builders := map[string]Builder{
		TypeWebhook: newWebhookAlerter,
		TypeLog:     newLogAlerter,
		TypeSQS:     newSQSAlerter,
		TypeSNS:     newSNSAlerter,
		TypePubSub:  newPubSubAlerter,
	}
	return NewRegistry(builders)
}

// BuildAll instantiates alerters for configs using the registry.
func BuildAll(ctx context.Context, reg Registry, cfgs []AlerterConfig, log Logger) ([]Alerter, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var out []Alerter
	for _, cfg := range cfgs {
		a, err := reg.AlerterFor(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
