package openai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrNoCommentary is returned when the API answers without a choice.
var ErrNoCommentary = errors.New("no response from OpenAI")

const maxSummaryLen = 4000

const systemPrompt = `You are a patient finance tutor. You will receive the risk and return metrics of a stock portfolio.

Explain in plain language:

**What the numbers say:**
[Annualized return, volatility, Sharpe ratio and maximum drawdown, one short paragraph each]

**Diversification:**
[What the allocation weights imply about concentration]

**Things to watch:**
[Limits of backward-looking statistics]

Guidelines:
- Keep it under 250 words
- Treat N/A values as not computable from the data, never guess them
- Only discuss figures present in the analysis
- This is educational content, never give buy or sell advice`

type Commentator struct {
	cli oa.Client
}

func NewCommentator(apiKey string, opts ...option.RequestOption) *Commentator {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Commentator{cli: oa.NewClient(opts...)}
}

var (
	reMarkdownEmph = regexp.MustCompile("[*_`]")
	reURL          = regexp.MustCompile(`https?://\S+`)
)

// sanitizeSummary strips Markdown emphasis and links and caps the length.
func sanitizeSummary(summary string) string {
	text := reMarkdownEmph.ReplaceAllString(summary, "")
	text = reURL.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	return truncateRunes(text, maxSummaryLen)
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func buildPrompt(summary string) string {
	return fmt.Sprintf("Portfolio analysis:\n%s\n\nExplain these results following the structured format.", sanitizeSummary(summary))
}

// Explain returns an educational commentary on a formatted analysis.
func (c *Commentator) Explain(ctx context.Context, summary string) (string, error) {
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("empty analysis summary")
	}
	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: "gpt-4",
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(systemPrompt),
			oa.UserMessage(buildPrompt(summary)),
		},
		MaxTokens: oa.Int(1500), // Limit response length for telegram
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoCommentary
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
