package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"portfolioRiskBot/internal/config"
	"portfolioRiskBot/internal/finance"
	"portfolioRiskBot/internal/metrics"
)

const requestTimeout = 45 * time.Second

// Config holds server configuration. Webhook is nil when the bot is disabled.
type Config struct {
	Port       string
	Log        zerolog.Logger
	Analyzer   *finance.Analyzer
	Renderer   *finance.Renderer
	Webhook    http.HandlerFunc
	MaxTickers int
	RiskFree   float64
}

type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

func New(cfg Config) *Server {
	if cfg.MaxTickers <= 0 {
		cfg.MaxTickers = config.DefaultMaxTickers
	}
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	if s.cfg.Webhook != nil {
		s.router.Post("/telegram/webhook", s.cfg.Webhook)
	}
	s.router.Get("/api/risk", s.handleRisk)
	s.router.Get("/api/risk/chart/{kind}", s.handleChart)
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http: listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http: shutting down")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

type weightJSON struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

type riskJSON struct {
	Tickers          []string                       `json:"tickers"`
	Weights          []weightJSON                   `json:"weights"`
	Missing          []string                       `json:"missing,omitempty"`
	Window           string                         `json:"window"`
	RiskFree         float64                        `json:"risk_free"`
	Start            string                         `json:"start,omitempty"`
	End              string                         `json:"end,omitempty"`
	TradingDays      int                            `json:"trading_days"`
	AnnualReturn     *float64                       `json:"annualized_return"`
	AnnualVolatility *float64                       `json:"annualized_volatility"`
	SharpeRatio      *float64                       `json:"sharpe_ratio"`
	MaxDrawdown      *float64                       `json:"max_drawdown"`
	Correlation      map[string]map[string]*float64 `json:"correlation"`
}

func toJSON(a *finance.Analysis) riskJSON {
	out := riskJSON{
		Tickers:          a.Request.Tickers,
		Missing:          a.Missing(),
		Window:           a.Request.Window,
		RiskFree:         a.Request.RiskFree,
		TradingDays:      a.Returns.Len(),
		AnnualReturn:     a.AnnualReturn,
		AnnualVolatility: a.AnnualVolatility,
		SharpeRatio:      a.SharpeRatio,
		MaxDrawdown:      a.MaxDrawdown,
		Correlation:      map[string]map[string]*float64{},
	}
	for i, asset := range a.Weights.Assets {
		out.Weights = append(out.Weights, weightJSON{Ticker: asset, Weight: a.Weights.Weights[i]})
	}
	if n := a.Returns.Len(); n > 0 {
		out.Start = a.Returns.Dates[0].Format("2006-01-02")
		out.End = a.Returns.Dates[n-1].Format("2006-01-02")
	}
	for _, x := range a.Correlation.Assets {
		row := map[string]*float64{}
		for _, y := range a.Correlation.Assets {
			if v, ok := a.Correlation.At(x, y); ok && !metrics.IsMissing(v) {
				row[y] = &v
			} else {
				row[y] = nil
			}
		}
		out.Correlation[x] = row
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, `{"error":"response encoding failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// parseRequest reads tickers, weights, years (or window) and rf from the query.
func (s *Server) parseRequest(r *http.Request) (finance.RiskRequest, error) {
	q := r.URL.Query()
	window := q.Get("window")
	if years := strings.TrimSpace(q.Get("years")); years != "" {
		n, err := strconv.Atoi(years)
		if err != nil || n <= 0 {
			return finance.RiskRequest{}, errors.New("years must be a positive integer")
		}
		window = strconv.Itoa(n) + "y"
	}
	return finance.NewRiskRequest(q.Get("tickers"), q.Get("weights"), window, q.Get("rf"), s.cfg.MaxTickers, s.cfg.RiskFree)
}

// analyze answers the request with an error status on failure and returns nil.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) *finance.Analysis {
	req, err := s.parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	a, err := s.cfg.Analyzer.Analyze(ctx, req)
	switch {
	case errors.Is(err, finance.ErrNoPriceData):
		writeError(w, http.StatusNotFound, err)
		return nil
	case err != nil:
		s.log.Error().Err(err).Strs("tickers", req.Tickers).Msg("analysis failed")
		writeError(w, http.StatusBadGateway, err)
		return nil
	}
	return a
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	if a := s.analyze(w, r); a != nil {
		writeJSON(w, http.StatusOK, toJSON(a))
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind, err := finance.ParseChartKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a := s.analyze(w, r)
	if a == nil {
		return
	}
	img, err := s.cfg.Renderer.Render(a, kind)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}
