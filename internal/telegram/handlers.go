package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"portfolioRiskBot/internal/config"
	"portfolioRiskBot/internal/finance"
	"portfolioRiskBot/internal/storage"
)

var (
	// /risk AAPL, MSFT [w=1,2] [rf=0.02] [5y]
	reRisk = regexp.MustCompile(`(?s)^/risk(?:@[\w_]+)?(?:\s.*)?$`)
	// /history [n]
	reHistory = regexp.MustCompile(`^/history(?:@[\w_]+)?(?:\s+(\d+))?$`)
	// /explain [ref]
	reExplain = regexp.MustCompile(`^/explain(?:@[\w_]+)?(?:\s+(\S+))?$`)
	// /usage [days]
	reUsage = regexp.MustCompile(`^/usage(?:@[\w_]+)?(?:\s+(\d+))?$`)
	reHelp  = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

const (
	requestTimeout     = 45 * time.Second
	defaultHistory     = 5
	maxHistory         = 20
	defaultUsageDays   = 7
	maxUsageDays       = 90
	riskUsageHint      = "Usage: /risk AAPL, MSFT, NVDA [w=0.5,0.3,0.2] [rf=0.02] [5y]"
	commentaryDisabled = "AI commentary is not configured."
)

// Explainer turns a formatted analysis into plain-language commentary.
type Explainer interface {
	Explain(ctx context.Context, summary string) (string, error)
}

// Deps are the collaborators of the command handlers. Explainer may be nil.
type Deps struct {
	Store      *storage.Store
	Analyzer   *finance.Analyzer
	Renderer   *finance.Renderer
	Explainer  Explainer
	MaxTickers int
	RiskFree   float64
}

type Handlers struct {
	api   Sender
	deps  Deps
	usage *finance.UsageAnalytics
	log   zerolog.Logger
	now   func() time.Time
}

func NewHandlers(api Sender, deps Deps, log zerolog.Logger) *Handlers {
	if deps.MaxTickers <= 0 {
		deps.MaxTickers = config.DefaultMaxTickers
	}
	return &Handlers{
		api:   api,
		deps:  deps,
		usage: finance.NewUsageAnalytics(),
		log:   log,
		now:   time.Now,
	}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Int64("chat_id", m.Chat.ID).Msg("handler panicked")
		}
	}()

	txt := strings.TrimSpace(m.Text)
	chatID := m.Chat.ID
	switch {
	case reRisk.MatchString(txt):
		h.record(chatID, "/risk", storage.CategoryAnalysis)
		h.handleRisk(chatID, txt)

	case reHistory.MatchString(txt):
		h.record(chatID, "/history", storage.CategoryHistory)
		n := defaultHistory
		if g := reHistory.FindStringSubmatch(txt); g[1] != "" {
			n = clamp(atoi(g[1]), 1, maxHistory)
		}
		h.handleHistory(chatID, n)

	case reExplain.MatchString(txt):
		h.record(chatID, "/explain", storage.CategoryCommentary)
		h.handleExplain(chatID, reExplain.FindStringSubmatch(txt)[1])

	case reUsage.MatchString(txt):
		h.record(chatID, "/usage", storage.CategoryHistory)
		days := defaultUsageDays
		if g := reUsage.FindStringSubmatch(txt); g[1] != "" {
			days = clamp(atoi(g[1]), 1, maxUsageDays)
		}
		h.handleUsage(chatID, days)

	case reHelp.MatchString(txt):
		h.record(chatID, "/"+reHelp.FindStringSubmatch(txt)[1], storage.CategoryHelp)
		h.handleHelp(chatID)
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (h *Handlers) record(chatID int64, command, category string) {
	if err := h.deps.Store.RecordUsage(chatID, command, category, h.now().Unix()); err != nil {
		h.log.Warn().Err(err).Str("command", command).Msg("failed to record usage")
	}
}

func (h *Handlers) handleRisk(chatID int64, txt string) {
	req, err := finance.ParseRiskCommand(txt, h.deps.MaxTickers, h.deps.RiskFree)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error()+"\n\n"+riskUsageHint)
		return
	}
	h.reply(chatID, fmt.Sprintf("Analyzing %s over %s…", strings.Join(req.Tickers, ", "), req.Window))

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	a, err := h.deps.Analyzer.Analyze(ctx, req)
	switch {
	case errors.Is(err, finance.ErrNoPriceData):
		h.reply(chatID, "❌ No price data found for "+strings.Join(req.Tickers, ", ")+". Check the ticker symbols.")
		return
	case err != nil:
		h.log.Error().Err(err).Strs("tickers", req.Tickers).Msg("analysis failed")
		h.reply(chatID, "Analysis failed: "+err.Error())
		return
	}

	h.markdown(chatID, finance.FormatAnalysis(a))
	for _, kind := range finance.ChartKinds {
		img, err := h.deps.Renderer.Render(a, kind)
		if err != nil {
			h.log.Warn().Err(err).Str("chart", string(kind)).Msg("chart skipped")
			continue
		}
		name := strings.Join(a.Weights.Assets, "_") + "_" + string(kind) + ".png"
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: img})
		photo.Caption = strings.Join(a.Weights.Assets, ", ") + " • " + string(kind) + " • " + strings.ToUpper(req.Window)
		h.send(photo)
	}

	ref, err := h.deps.Store.SaveAnalysis(finance.NewAnalysisRecord(chatID, a, h.now()))
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to save analysis")
		return
	}
	h.log.Info().Int64("chat_id", chatID).Str("ref", ref).Msg("analysis saved")
}

func (h *Handlers) handleHistory(chatID int64, n int) {
	recs, err := h.deps.Store.RecentAnalyses(chatID, n)
	if err != nil {
		h.reply(chatID, "History failed: "+err.Error())
		return
	}
	h.markdown(chatID, finance.FormatHistory(recs))
}

func (h *Handlers) handleExplain(chatID int64, ref string) {
	if h.deps.Explainer == nil {
		h.reply(chatID, commentaryDisabled)
		return
	}
	rec, err := h.deps.Store.FindAnalysis(chatID, ref)
	if err != nil {
		h.reply(chatID, "Explain failed: "+err.Error())
		return
	}
	if rec == nil && ref != "" {
		h.reply(chatID, "No analysis with reference "+ref+". See /history.")
		return
	}
	if rec == nil {
		h.reply(chatID, "No analysis to explain yet. Run /risk first.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	out, err := h.deps.Explainer.Explain(ctx, finance.FormatRecord(*rec))
	if err != nil {
		h.log.Error().Err(err).Msg("commentary failed")
		h.reply(chatID, "Explain failed: "+err.Error())
		return
	}
	h.markdown(chatID, "🤖 *AI Commentary*\n\n"+out)
}

func (h *Handlers) handleUsage(chatID int64, days int) {
	since := h.now().AddDate(0, 0, -days).Unix()
	stats, err := h.deps.Store.UsageStats(since)
	if err != nil {
		h.reply(chatID, "Usage failed: "+err.Error())
		return
	}
	h.markdown(chatID, h.usage.FormatUsageStatsText(stats, days))
	if len(stats) == 0 {
		return
	}
	img, err := h.usage.MakeUsageChart(stats, days)
	if err != nil {
		h.log.Warn().Err(err).Msg("usage chart skipped")
		return
	}
	h.send(tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "usage.png", Bytes: img}))
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /risk T1, T2 ... [w=1,2,...] [rf=0.02] [5y] - Risk & return of a weighted portfolio, with charts\n" +
		"- /history [n] - Your last n analyses (default: 5, max: 20)\n" +
		"- /explain [ref] - Plain-language commentary on your last (or a past) analysis\n" +
		"- /usage [days] - Command usage over the last N days (default: 7)\n" +
		"\nWeights are normalized to sum to 1; omit them for equal weights. " +
		"Lookback accepts d, w, m or y (max: 10y). Daily adjusted closes from Yahoo Finance."
	h.reply(chatID, help)
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.log.Warn().Err(err).Msg("send failed")
	}
}

func (h *Handlers) markdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	h.send(msg)
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}
