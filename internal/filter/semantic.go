package filter

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/domain"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/logger"
	"github.com/jobradar-hq/jobradar-feedwatch/pkg/httpclient"
)

const semanticSystemPrompt = "You classify chat messages for a job-posting feed. " +
	"Answer with a single JSON object {\"relevant\": bool, \"reason\": string} and nothing else. " +
	"relevant is true only when the message announces or requests work (vacancy, freelance gig, hiring call)."

// Semantic asks an OpenAI-compatible chat endpoint whether an item is a real
// job posting. The policy is fail-open: any transport error, non-2xx
// response, or unparsable verdict counts as relevant, so a flaky classifier
// degrades to lexical-only filtering instead of dropping items.
type Semantic struct {
	client   *resty.Client
	url      string
	model    string
	apiKey   string
	maxChars int
	log      logger.Logger
}

// SemanticConfig carries the classifier endpoint settings.
type SemanticConfig struct {
	URL      string
	Model    string
	APIKey   string
	MaxChars int
	Timeout  time.Duration
}

// NewSemantic builds the semantic classifier stage.
func NewSemantic(cfg SemanticConfig, log logger.Logger) *Semantic {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Semantic{
		client:   httpclient.NewRestyHTTPClient(cfg.Timeout),
		url:      cfg.URL,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		maxChars: cfg.MaxChars,
		log:      log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type semanticVerdict struct {
	Relevant bool   `json:"relevant"`
	Reason   string `json:"reason"`
}

// Evaluate submits the truncated item body and parses the structured verdict.
func (s *Semantic) Evaluate(ctx context.Context, item domain.Item) Verdict {
	body := truncate(item.Text, s.maxChars)

	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: semanticSystemPrompt},
			{Role: "user", Content: body},
		},
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(s.apiKey).
		SetBody(req).
		Post(s.url)
	if err != nil {
		s.log.WarnObj("semantic classifier unavailable, failing open", "classifier_error", err.Error())
		return Verdict{Relevant: true, Reason: "classifier unavailable"}
	}
	if resp.IsError() {
		s.log.WarnObj("semantic classifier returned error status, failing open", "classifier_status", resp.StatusCode())
		return Verdict{Relevant: true, Reason: "classifier unavailable"}
	}

	verdict, ok := parseVerdict(resp.Body())
	if !ok {
		s.log.WarnObj("semantic classifier verdict unparsable, failing open", "classifier_body_len", len(resp.Body()))
		return Verdict{Relevant: true, Reason: "classifier verdict unparsable"}
	}
	return Verdict{Relevant: verdict.Relevant, Reason: verdict.Reason}
}

// truncate caps the body at maxChars bytes without splitting a rune, so
// Cyrillic and other multi-byte text never reaches the classifier with an
// invalid tail.
func truncate(body string, maxChars int) string {
	if maxChars <= 0 || len(body) <= maxChars {
		return body
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}

// parseVerdict extracts the {"relevant","reason"} object from the chat
// completion content, tolerating markdown code fences around the JSON.
func parseVerdict(raw []byte) (semanticVerdict, bool) {
	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil || len(cr.Choices) == 0 {
		return semanticVerdict{}, false
	}

	content := strings.TrimSpace(cr.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var v semanticVerdict
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return semanticVerdict{}, false
	}
	return v, true
}
