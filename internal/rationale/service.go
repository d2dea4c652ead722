// Package rationale generates human-readable explanations of computed
// pricing breakdowns. It sits outside the deterministic pipeline: the
// orchestrator never calls it, and its output is presentation material, not
// an audit record.
package rationale

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/seovimalraj/cnc-quote-sub009/internal/observability"
	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing"
)

const highlightLimit = 6

const systemPrompt = "You are a CNC pricing analyst. Summarize a computed " +
	"pricing breakdown for a pricing team in two or three sentences. Ground " +
	"every statement in the provided line items; never suggest altering the " +
	"total."

// Service generates rationale text for pricing results.
type Service struct {
	client openai.Client
	model  string
}

// NewService creates a rationale service over the OpenAI SDK.
func NewService(config Config) (*Service, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	if config.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}

	return &Service{
		client: openai.NewClient(opts...),
		model:  config.Model,
	}, nil
}

// Generate returns a short narrative explanation of result's cost drivers.
func (s *Service) Generate(ctx context.Context, result *pricing.PricingResult) (string, error) {
	if result == nil {
		return "", errors.New("pricing result cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("generating pricing rationale",
		observability.String("input_hash", result.InputHash),
		observability.Int("breakdown_items", len(result.Breakdown)))

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(BuildPrompt(result)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("rationale generation failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("rationale generation returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// BuildPrompt renders the user prompt for a result. The rendering is
// deterministic for a given result: highlights are the largest absolute
// amounts, ties broken by code.
func BuildPrompt(result *pricing.PricingResult) string {
	highlights := topItems(result.Breakdown, highlightLimit)

	var b strings.Builder
	fmt.Fprintf(&b, "Subtotal %.2f %s, total %.2f %s, lead time %.1f days.\n",
		result.Subtotal, result.Currency, result.Total, result.Currency, result.LeadTimeDays)
	b.WriteString("Cost drivers:\n")
	for _, item := range highlights {
		fmt.Fprintf(&b, "- %s (%s): %.2f %s\n", item.Label, item.Code, item.Amount, result.Currency)
	}

	return b.String()
}

func topItems(items []pricing.PriceBreakdownItem, limit int) []pricing.PriceBreakdownItem {
	sorted := make([]pricing.PriceBreakdownItem, len(items))
	copy(sorted, items)

	sort.Slice(sorted, func(i, j int) bool {
		ai, aj := abs(sorted[i].Amount), abs(sorted[j].Amount)
		if ai != aj {
			return ai > aj
		}
		return sorted[i].Code < sorted[j].Code
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
