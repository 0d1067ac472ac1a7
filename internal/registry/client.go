package registry

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"strings"

	"github.com/jobradar-hq/jobradar-feedwatch/internal/domain"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/logger"
	"github.com/jobradar-hq/jobradar-feedwatch/pkg/httpclient"
	"gopkg.in/yaml.v3"
)

// Client fetches the authoritative source list and the rotating session
// secret from the config service. List failures are never fatal: the caller
// gets an empty slice (after the local fallback file was tried) and retries
// next cycle.
type Client struct {
	http        httpclient.Client
	baseURL     string
	token       string
	sourcesFile string
	log         logger.Logger
}

// NewClient builds a registry client. baseURL may be empty to run purely
// off the fallback sources file.
func NewClient(http httpclient.Client, baseURL, token, sourcesFile string, log logger.Logger) *Client {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Client{
		http:        http,
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:       token,
		sourcesFile: sourcesFile,
		log:         log,
	}
}

// ListSources returns the enabled, provider-type-matching sources in
// discovery order, deduplicated by normalized identity. It never returns an
// error; any failure degrades to the fallback file or an empty list.
func (c *Client) ListSources(ctx context.Context) []domain.Source {
	sources := c.fetchRemote(ctx)
	if len(sources) == 0 {
		sources = c.loadFallback()
	}
	return normalizeSources(sources, c.log)
}

// Secret reads a named secret from the config service.
func (c *Client) Secret(ctx context.Context, key string) (string, bool) {
	if c.baseURL == "" || c.http == nil {
		return "", false
	}

	u := c.baseURL + "/secrets/" + url.PathEscape(key)
	resp, err := c.http.Get(ctx, u, c.headers())
	if err != nil {
		c.log.WarnObj("secret fetch failed", "secret_error", err.Error())
		return "", false
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		c.log.WarnObj("secret fetch returned error status", "secret_status", resp.StatusCode())
		return "", false
	}

	var payload struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		c.log.WarnObj("secret response undecodable", "secret_error", err.Error())
		return "", false
	}
	value := strings.TrimSpace(payload.Value)
	return value, value != ""
}

func (c *Client) headers() map[string]string {
	if c.token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.token}
}

func (c *Client) fetchRemote(ctx context.Context) []domain.Source {
	if c.baseURL == "" || c.http == nil {
		return nil
	}

	resp, err := c.http.Get(ctx, c.baseURL+"/sources", c.headers())
	if err != nil {
		c.log.WarnObj("source registry fetch failed, trying fallback file", "registry_error", err.Error())
		return nil
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		c.log.WarnObj("source registry returned error status, trying fallback file", "registry_status", resp.StatusCode())
		return nil
	}

	var payload struct {
		Sources []domain.Source `json:"sources"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		c.log.WarnObj("source registry response undecodable", "registry_error", err.Error())
		return nil
	}
	return payload.Sources
}

// loadFallback reads the local YAML sources file so the watcher keeps
// running when the registry is unreachable.
func (c *Client) loadFallback() []domain.Source {
	if strings.TrimSpace(c.sourcesFile) == "" {
		return nil
	}

	raw, err := os.ReadFile(c.sourcesFile)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.WarnObj("fallback sources file unreadable", "sources_file_error", err.Error())
		}
		return nil
	}

	var payload struct {
		Sources []domain.Source `yaml:"sources"`
	}
	if err := yaml.Unmarshal(raw, &payload); err != nil {
		c.log.WarnObj("fallback sources file undecodable", "sources_file_error", err.Error())
		return nil
	}
	c.log.InfoObj("using fallback sources file", "sources_meta", map[string]any{
		"path":  c.sourcesFile,
		"count": len(payload.Sources),
	})
	return payload.Sources
}

// normalizeSources keeps enabled entries of the supported kind with a
// recognizable identifier, deduplicated by normalized identity, original
// discovery order preserved.
func normalizeSources(in []domain.Source, log logger.Logger) []domain.Source {
	out := make([]domain.Source, 0, len(in))
	seen := make(map[string]struct{}, len(in))

	for _, src := range in {
		if !src.Enabled {
			continue
		}
		if src.Kind != "" && !strings.EqualFold(src.Kind, domain.KindTelegram) {
			continue
		}
		identity, ok := NormalizeIdentity(src.Identity)
		if !ok {
			log.DebugObj("skipping unrecognizable source identifier", "source_id", src.Identity)
			continue
		}
		if _, dup := seen[identity]; dup {
			continue
		}
		seen[identity] = struct{}{}

		src.Identity = identity
		if src.Title == "" {
			src.Title = identity
		}
		src.Kind = domain.KindTelegram
		out = append(out, src)
	}
	return out
}
