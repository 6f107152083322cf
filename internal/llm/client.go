// Package llm talks to the hosted chat-completion API used for SOAP note
// generation and transcript topic classification. The provider is consumed
// as an opaque request/response service; a circuit breaker keeps a flapping
// provider from stalling every request.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/psyscribe/psyscribe/internal/analysis"
	"github.com/psyscribe/psyscribe/internal/config"
	"github.com/psyscribe/psyscribe/pkg/metrics"
)

var (
	// ErrUnavailable marks provider-side failures (5xx, timeouts, open
	// breaker). Handlers map it to 503.
	ErrUnavailable = errors.New("completion API unavailable")
	// ErrBadResponse marks responses the provider returned but we could not use.
	ErrBadResponse = errors.New("completion API returned an unusable response")
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// SOAPDraft is the generated note body before it is attached to a visit note.
type SOAPDraft struct {
	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
}

// PatientContext is the minimal demographic/clinical framing included in the
// generation prompt.
type PatientContext struct {
	Name             string
	Age              int
	Pronouns         string
	PrimaryDiagnosis string
	Medications      []string
}

// Options override per-request generation parameters (from clinician
// settings). Zero values fall back to the configured defaults.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Per-request operation labels on the completion metrics.
const (
	opGenerateSOAP   = "generate_soap"
	opClassifyTopics = "classify_topics"
)

type Client struct {
	cfg        config.AIConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*chatResponse]
	collector  *metrics.Collector
	log        *zap.Logger
}

func NewClient(cfg config.AIConfig, collector *metrics.Collector, log *zap.Logger) *Client {
	st := gobreaker.Settings{
		Name:    "completion-api",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("completion API breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[*chatResponse](st),
		collector:  collector,
		log:        log,
	}
}

// GenerateSOAP produces a structured SOAP draft from a visit transcript.
func (c *Client) GenerateSOAP(ctx context.Context, transcript string, pc PatientContext, opts Options) (*SOAPDraft, error) {
	content, err := c.complete(ctx, opGenerateSOAP, soapSystemPrompt, buildSOAPUserPrompt(transcript, pc), opts)
	if err != nil {
		return nil, err
	}

	var draft SOAPDraft
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &draft); err != nil {
		c.recordFailure(opGenerateSOAP)
		c.log.Error("failed to parse SOAP draft", zap.Error(err))
		return nil, fmt.Errorf("%w: parsing SOAP draft: %v", ErrBadResponse, err)
	}

	return &draft, nil
}

// ClassifyTopics detects which canonical checklist topics the transcript
// touches, with per-topic confidence scores.
func (c *Client) ClassifyTopics(ctx context.Context, transcript string, opts Options) ([]analysis.TopicScore, error) {
	content, err := c.complete(ctx, opClassifyTopics, topicSystemPrompt(), buildTopicUserPrompt(transcript), opts)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Topics []analysis.TopicScore `json:"topics"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &payload); err != nil {
		c.recordFailure(opClassifyTopics)
		c.log.Error("failed to parse topic classification", zap.Error(err))
		return nil, fmt.Errorf("%w: parsing topics: %v", ErrBadResponse, err)
	}

	return payload.Topics, nil
}

func (c *Client) recordFailure(operation string) {
	if c.collector != nil {
		c.collector.CompletionFailures.WithLabelValues(operation).Inc()
	}
}

// complete runs one chat-completion call through the circuit breaker and
// returns the first choice's content. Latency and failures are recorded per
// operation.
func (c *Client) complete(ctx context.Context, operation, systemPrompt, userPrompt string, opts Options) (string, error) {
	req := chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.Temperature > 0 {
		req.Temperature = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*chatResponse, error) {
		return c.send(ctx, &req)
	})
	if c.collector != nil {
		c.collector.CompletionDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.recordFailure(operation)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: circuit breaker open", ErrUnavailable)
		}
		return "", err
	}

	if len(resp.Choices) == 0 {
		c.recordFailure(operation)
		return "", fmt.Errorf("%w: no choices returned", ErrBadResponse)
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *Client) send(ctx context.Context, req *chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			c.log.Error("completion API error",
				zap.Int("status", resp.StatusCode),
				zap.String("type", apiErr.Error.Type),
				zap.String("message", apiErr.Error.Message),
			)
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrBadResponse, err)
	}

	return &chatResp, nil
}

// stripCodeFence removes a markdown code fence the model sometimes wraps
// around JSON output despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
