// Package bedrock provides the SigV4-signed provider implementation against
// the Amazon Bedrock runtime, using the Anthropic messages payload shape.
package bedrock

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/llm/bedrock/sigv4"
)

const (
	providerName     = "bedrock"
	signingService   = "bedrock"
	anthropicVersion = "bedrock-2023-05-31"
	defaultModel     = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	defaultMaxTokens = 1024
)

// Provider implements llm.Provider against the Bedrock invoke endpoint.
type Provider struct {
	httpClient *http.Client
	creds      sigv4.Credentials
	region     string
	model      string
	endpoint   string // overridable for tests
	now        func() time.Time
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the Bedrock model identifier.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithEndpoint overrides the runtime endpoint. Intended for tests.
func WithEndpoint(endpoint string) ProviderOption {
	return func(p *Provider) {
		p.endpoint = endpoint
	}
}

// WithClock overrides the signing clock. Intended for tests.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider creates a Bedrock provider for the given region and
// credentials.
func NewProvider(creds sigv4.Credentials, region string, opts ...ProviderOption) (*Provider, error) {
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return nil, fmt.Errorf("bedrock credentials are required")
	}
	if region == "" {
		return nil, fmt.Errorf("bedrock region is required")
	}

	p := &Provider{
		httpClient: &http.Client{},
		creds:      creds,
		region:     region,
		model:      defaultModel,
		endpoint:   fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", region),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name identifies the provider kind.
func (p *Provider) Name() string { return providerName }

// contentBlock is one element of an Anthropic messages content array.
type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type invokeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature,omitempty"`
	System           string    `json:"system,omitempty"`
	Messages         []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type invokeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Send performs one signed invoke call and extracts the assistant text.
func (p *Provider) Send(ctx context.Context, req *llm.Request) (string, error) {
	payload, err := p.buildPayload(req)
	if err != nil {
		return "", err
	}

	invokeURL := p.endpoint + "/model/" + url.PathEscape(p.model) + "/invoke"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, invokeURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	sigv4.Sign(httpReq, payload, p.creds, p.region, signingService, p.now())

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", llm.NewRequestError(providerName, resp.StatusCode, body)
	}

	var parsed invokeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	var texts []string
	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			texts = append(texts, block.Text)
		}
	}
	return strings.Join(texts, "\n"), nil
}

// buildPayload encodes the chat turn as an Anthropic messages request, with
// the screenshot inlined as base64 when present.
func (p *Provider) buildPayload(req *llm.Request) ([]byte, error) {
	content := []contentBlock{{Type: "text", Text: req.Prompt}}
	if req.Image != nil && len(req.Image.Data) > 0 {
		content = append(content, contentBlock{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: req.Image.MIME,
				Data:      base64.StdEncoding.EncodeToString(req.Image.Data),
			},
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	payload, err := json.Marshal(invokeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      req.Temperature,
		System:           req.System,
		Messages:         []message{{Role: "user", Content: content}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return payload, nil
}
