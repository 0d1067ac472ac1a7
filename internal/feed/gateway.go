package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jobradar-hq/jobradar-feedwatch/internal/domain"
	"github.com/jobradar-hq/jobradar-feedwatch/pkg/httpclient"
)

// ErrBadCredential signals the session credential cannot produce a valid
// session object. Recovery requires out-of-band rotation, not a retry.
var ErrBadCredential = errors.New("feed: malformed session credential")

const minCredentialLength = 16

// Gateway implements Client against an HTTP gateway that fronts the
// provider. Every call is authenticated with the application identity and
// the session credential.
type Gateway struct {
	http       httpclient.Client
	baseURL    string
	apiID      int64
	apiHash    string
	credential string
}

// NewGateway validates the credential shape and builds a gateway client.
// An empty credential or one containing whitespace cannot be a session
// blob, so construction fails with ErrBadCredential.
func NewGateway(baseURL string, apiID int64, apiHash, credential string, client httpclient.Client, timeout time.Duration) (*Gateway, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" || len(credential) < minCredentialLength || strings.ContainsAny(credential, " \t\n") {
		return nil, ErrBadCredential
	}
	if client == nil {
		client = httpclient.NewRestyClient(timeout)
	}
	return &Gateway{
		http:       client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiID:      apiID,
		apiHash:    apiHash,
		credential: credential,
	}, nil
}

func (g *Gateway) headers() map[string]string {
	return map[string]string{
		"X-Api-Id":   strconv.FormatInt(g.apiID, 10),
		"X-Api-Hash": g.apiHash,
		"X-Session":  g.credential,
	}
}

// Connect establishes the provider connection behind the gateway.
func (g *Gateway) Connect(ctx context.Context) error {
	resp, err := g.http.Post(ctx, g.baseURL+"/v1/connect", g.headers(), nil)
	if err != nil {
		return fmt.Errorf("gateway connect: %w", err)
	}
	return mapStatus(resp, "connect")
}

// Authorized checks the session against the provider and returns the principal.
func (g *Gateway) Authorized(ctx context.Context) (string, error) {
	resp, err := g.http.Get(ctx, g.baseURL+"/v1/me", g.headers())
	if err != nil {
		return "", fmt.Errorf("gateway me: %w", err)
	}
	if err := mapStatus(resp, "me"); err != nil {
		return "", err
	}

	var me struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(resp.Body(), &me); err != nil {
		return "", fmt.Errorf("decode me response: %w", err)
	}
	if me.Username != "" {
		return "@" + me.Username, nil
	}
	return strconv.FormatInt(me.ID, 10), nil
}

// Resolve maps a source identity to its provider-side handle.
func (g *Gateway) Resolve(ctx context.Context, source string) (Handle, error) {
	u := g.baseURL + "/v1/resolve?source=" + url.QueryEscape(source)
	resp, err := g.http.Get(ctx, u, g.headers())
	if err != nil {
		return Handle{}, fmt.Errorf("gateway resolve %s: %w", source, err)
	}
	if resp.StatusCode() == 404 {
		return Handle{}, fmt.Errorf("resolve %s: %w", source, ErrSourceUnresolvable)
	}
	if err := mapStatus(resp, "resolve"); err != nil {
		return Handle{}, err
	}

	var h struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Title    string `json:"title"`
	}
	if err := json.Unmarshal(resp.Body(), &h); err != nil {
		return Handle{}, fmt.Errorf("decode resolve response: %w", err)
	}
	return Handle{ID: h.ID, Username: h.Username, Title: h.Title}, nil
}

type gatewayMessage struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	HTML   string `json:"text_html"`
	Date   string `json:"date"`
	Author string `json:"author"`
	URL    string `json:"url"`
}

// FetchSince returns messages with id greater than sinceSeq, ascending.
func (g *Gateway) FetchSince(ctx context.Context, h Handle, sinceSeq int64, limit int) ([]domain.Item, error) {
	u := fmt.Sprintf("%s/v1/messages?peer_id=%d&min_id=%d&limit=%d", g.baseURL, h.ID, sinceSeq, limit)
	resp, err := g.http.Get(ctx, u, g.headers())
	if err != nil {
		return nil, fmt.Errorf("gateway messages: %w", err)
	}
	if err := mapStatus(resp, "messages"); err != nil {
		return nil, err
	}

	var payload struct {
		Messages []gatewayMessage `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decode messages response: %w", err)
	}

	items := make([]domain.Item, 0, len(payload.Messages))
	for _, m := range payload.Messages {
		if m.ID <= sinceSeq {
			continue
		}
		items = append(items, g.toItem(h, m))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Seq < items[j].Seq })
	return items, nil
}

// CurrentMax returns the highest message id currently present for the handle.
func (g *Gateway) CurrentMax(ctx context.Context, h Handle) (int64, error) {
	u := fmt.Sprintf("%s/v1/messages/head?peer_id=%d", g.baseURL, h.ID)
	resp, err := g.http.Get(ctx, u, g.headers())
	if err != nil {
		return 0, fmt.Errorf("gateway head: %w", err)
	}
	if err := mapStatus(resp, "head"); err != nil {
		return 0, err
	}

	var head struct {
		MaxID int64 `json:"max_id"`
	}
	if err := json.Unmarshal(resp.Body(), &head); err != nil {
		return 0, fmt.Errorf("decode head response: %w", err)
	}
	return head.MaxID, nil
}

// Close releases the gateway session.
func (g *Gateway) Close() error {
	return nil
}

func (g *Gateway) toItem(h Handle, m gatewayMessage) domain.Item {
	text := m.Text
	if text == "" && m.HTML != "" {
		text = flattenHTML(m.HTML)
	}

	link := m.URL
	if link == "" && h.Username != "" {
		link = fmt.Sprintf("https://t.me/%s/%d", h.Username, m.ID)
	}

	var ts time.Time
	if m.Date != "" {
		if parsed, err := time.Parse(time.RFC3339, m.Date); err == nil {
			ts = parsed
		}
	}

	return domain.Item{
		Seq:    m.ID,
		Text:   text,
		Date:   ts,
		Author: m.Author,
		URL:    link,
	}
}

// mapStatus translates gateway status codes into the typed provider errors.
func mapStatus(resp httpclient.Response, op string) error {
	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == 401 || code == 403:
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case code == 429:
		return &FloodWaitError{RetryAfter: retryAfter(resp.Body())}
	default:
		return fmt.Errorf("%s: gateway status %d", op, code)
	}
}

// retryAfter reads the mandated cool-down out of a 429 body, defaulting to
// one minute when the gateway does not say.
func retryAfter(body []byte) time.Duration {
	var payload struct {
		RetryAfter int64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.RetryAfter > 0 {
		return time.Duration(payload.RetryAfter) * time.Second
	}
	return time.Minute
}
