package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultHosts    = []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"}
	defaultBackoffs = []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second}
)

const (
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"
	maxPreviewSize = 120
)

// YahooSource fetches daily adjusted closes from Yahoo Finance.
type YahooSource struct {
	client   *http.Client
	hosts    []string
	backoffs []time.Duration
	log      zerolog.Logger
}

type YahooOption func(*YahooSource)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) YahooOption {
	return func(s *YahooSource) { s.client = c }
}

// WithHosts replaces the Yahoo base URLs, tried in order on every attempt.
func WithHosts(hosts ...string) YahooOption {
	return func(s *YahooSource) { s.hosts = hosts }
}

// WithBackoffs sets the waits between attempts; len(backoffs)+1 attempts are made.
func WithBackoffs(backoffs ...time.Duration) YahooOption {
	return func(s *YahooSource) { s.backoffs = backoffs }
}

func NewYahooSource(log zerolog.Logger, opts ...YahooOption) *YahooSource {
	s := &YahooSource{
		client:   &http.Client{Timeout: 20 * time.Second},
		hosts:    defaultHosts,
		backoffs: defaultBackoffs,
		log:      log.With().Str("component", "yahoo").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func preview(body []byte) string {
	p := string(body)
	if len(p) > maxPreviewSize {
		p = p[:maxPreviewSize]
	}
	return p
}

// getJSON performs one request and decodes a JSON body into v.
func (s *YahooSource) getJSON(ctx context.Context, rawURL, symbol string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/chart", strings.ToUpper(symbol)))

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("failed to read yahoo response: %w", readErr)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return fmt.Errorf("yahoo %s returned 429: Edge: Too Many Requests", req.URL.Host)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo %s returned %d: %s", req.URL.Host, resp.StatusCode, preview(body))
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(body))
	}
	return nil
}

// withRetry runs getJSON against every host, backing off between rounds,
// until one succeeds or the attempts are exhausted.
func (s *YahooSource) withRetry(ctx context.Context, buildURL func(host string) string, symbol string, v any) error {
	var lastErr error
	for attempt := 0; attempt < len(s.backoffs)+1; attempt++ {
		for _, host := range s.hosts {
			lastErr = s.getJSON(ctx, buildURL(host), symbol, v)
			if lastErr == nil {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		if attempt < len(s.backoffs) {
			s.log.Debug().Err(lastErr).Str("symbol", symbol).Int("attempt", attempt+1).Dur("wait", s.backoffs[attempt]).Msg("retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoffs[attempt]):
			}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no yahoo hosts configured")
	}
	return lastErr
}

// sparkRange picks the smallest spark range covering [start, end].
func sparkRange(start, end time.Time) string {
	years := end.Sub(start).Hours() / 24 / 365
	switch {
	case years <= 1:
		return "1y"
	case years <= 2:
		return "2y"
	case years <= 5:
		return "5y"
	case years <= 10:
		return "10y"
	default:
		return "max"
	}
}

// fetchDaily fetches the daily history of one symbol between start and end.
func (s *YahooSource) fetchDaily(ctx context.Context, symbol string, start, end time.Time) (assetSeries, error) {
	var yc yahooChartResp
	err := s.withRetry(ctx, func(host string) string {
		return fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=div,splits",
			host, url.PathEscape(symbol), start.Unix(), end.Unix())
	}, symbol, &yc)
	if err == nil {
		return parseChart(symbol, &yc)
	}
	if ctx.Err() != nil {
		return assetSeries{}, ctx.Err()
	}

	s.log.Warn().Err(err).Str("symbol", symbol).Msg("chart endpoint failed, trying spark")
	var sp yahooSparkResp
	rng := sparkRange(start, end)
	if err := s.withRetry(ctx, func(host string) string {
		return fmt.Sprintf("%s/v7/finance/spark?symbols=%s&range=%s&interval=1d",
			host, url.QueryEscape(strings.ToUpper(symbol)), rng)
	}, symbol, &sp); err != nil {
		return assetSeries{}, err
	}
	return parseSpark(symbol, &sp)
}

func parseChart(symbol string, yc *yahooChartResp) (assetSeries, error) {
	if len(yc.Chart.Result) == 0 {
		return assetSeries{}, errors.New("no data")
	}
	r := yc.Chart.Result[0]
	var closes []*float64
	if len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) == len(r.Timestamp) {
		closes = r.Indicators.AdjClose[0].AdjClose
	} else if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}
	if len(r.Timestamp) == 0 || len(closes) == 0 {
		return assetSeries{}, errors.New("empty bars")
	}
	loc := exchangeLocation(r.Meta.ExchangeTimezoneName, r.Meta.GmtOffset, true)
	ts, cl := cleanCloses(r.Timestamp, closes)
	return toDailySeries(symbol, ts, cl, loc), nil
}

func parseSpark(symbol string, sp *yahooSparkResp) (assetSeries, error) {
	if len(sp.Spark.Result) == 0 || len(sp.Spark.Result[0].Response) == 0 {
		return assetSeries{}, errors.New("no data")
	}
	r := sp.Spark.Result[0].Response[0]
	ts, cl := cleanCloses(r.Timestamp, r.Close)
	return toDailySeries(symbol, ts, cl, exchangeLocation("", 0, false)), nil
}
