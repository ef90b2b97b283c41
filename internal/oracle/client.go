package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/marknutter/rlm/internal/metrics"
	"github.com/marknutter/rlm/internal/textutil"
)

const (
	maxInputBytes = 12_000
	callTimeout   = 45 * time.Second
	// defaultOracleModel is a small, fast model — extraction calls are
	// high-volume and latency-sensitive, not reasoning-heavy.
	defaultOracleModel = "claude-haiku-4-5"
	maxOutputToken     = 1024
)

// AnthropicOracle implements Tagger, Summarizer, and FactExtractor against
// the Anthropic Messages API. Every call goes through a circuit breaker
// (one per oracle kind, so a broken tagger doesn't also disable fact
// extraction) and a token-bucket rate limiter shared across kinds.
type AnthropicOracle struct {
	client   anthropic.Client
	model    anthropic.Model
	logger   zerolog.Logger
	limiter  *rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker[string]
}

// NewAnthropicOracle builds a primary oracle backed by apiKey. rps bounds
// outbound request rate across all three oracle kinds. model defaults to
// defaultOracleModel when empty.
func NewAnthropicOracle(apiKey, model string, rps float64, logger zerolog.Logger) *AnthropicOracle {
	if model == "" {
		model = defaultOracleModel
	}
	o := &AnthropicOracle{
		client:   anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:    anthropic.Model(model),
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		breakers: make(map[string]*gobreaker.CircuitBreaker[string]),
	}
	for _, kind := range []string{"tag", "summary", "facts"} {
		kind := kind
		o.breakers[kind] = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "oracle-" + kind,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				o.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("oracle: circuit breaker state change")
			},
		})
	}
	return o
}

func (o *AnthropicOracle) call(ctx context.Context, kind, prompt string) (string, error) {
	breaker := o.breakers[kind]

	start := time.Now()
	result, err := breaker.Execute(func() (string, error) {
		return o.callWithRetry(ctx, prompt)
	})
	metrics.OracleCallDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OracleCallErrors.WithLabelValues(kind).Inc()
		return "", fmt.Errorf("oracle: %s call: %w", kind, err)
	}
	return result, nil
}

func (o *AnthropicOracle) callWithRetry(ctx context.Context, prompt string) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	var result string
	op := func() error {
		params := anthropic.MessageNewParams{
			Model:     o.model,
			MaxTokens: maxOutputToken,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		}
		msg, err := o.client.Messages.New(ctx, params)
		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		if len(msg.Content) == 0 {
			return backoff.Permanent(errors.New("oracle: empty response"))
		}
		block := msg.Content[0]
		if block.Type != "text" {
			return backoff.Permanent(fmt.Errorf("oracle: unexpected block type %q", block.Type))
		}
		result = block.Text
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}
	return result, nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return true
}

// Tags implements Tagger.
func (o *AnthropicOracle) Tags(ctx context.Context, content string) ([]string, error) {
	content = textutil.TruncateHeadTail(content, maxInputBytes)
	raw, err := o.call(ctx, "tag", buildTagPrompt(content))
	if err != nil {
		return nil, err
	}
	return parseTagResponse(raw)
}

// Summarize implements Summarizer.
func (o *AnthropicOracle) Summarize(ctx context.Context, content string) (string, error) {
	content = textutil.TruncateHeadTail(content, maxInputBytes)
	raw, err := o.call(ctx, "summary", buildSummaryPrompt(content))
	if err != nil {
		return "", err
	}
	return parseSummaryResponse(raw), nil
}

// ExtractFacts implements FactExtractor.
func (o *AnthropicOracle) ExtractFacts(ctx context.Context, transcript string) ([]ExtractedFact, error) {
	transcript = textutil.TruncateHeadTail(transcript, maxInputBytes)
	raw, err := o.call(ctx, "facts", buildFactPrompt(transcript))
	if err != nil {
		return nil, err
	}
	return parseFactResponse(raw)
}
