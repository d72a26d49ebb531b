package finance

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"portfolioRiskBot/internal/config"
)

var (
	ErrNoTickers   = errors.New("no tickers provided")
	ErrWeightCount = errors.New("weight count does not match ticker count")

	reWindow     = regexp.MustCompile(`^\d+[dwmy]$`)
	reRiskPrefix = regexp.MustCompile(`^/risk(?:@[\w_]+)?`)
)

// ParseTickers splits free text on commas and semicolons, trims and
// uppercases every entry, drops empties and keeps at most maxN. Duplicates are
// kept as typed.
func ParseTickers(raw string, maxN int) []string {
	raw = strings.ReplaceAll(raw, ";", ",")
	var out []string
	for _, part := range strings.Split(raw, ",") {
		t := strings.ToUpper(strings.TrimSpace(part))
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	if maxN > 0 && len(out) > maxN {
		out = out[:maxN]
	}
	return out
}

// ParseWeights parses a comma or semicolon separated list of raw weights.
func ParseWeights(raw string) ([]float64, error) {
	raw = strings.ReplaceAll(raw, ";", ",")
	var out []float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight '%s': %w", part, err)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("invalid weight '%s': must be a finite number", part)
		}
		out = append(out, w)
	}
	return out, nil
}

// NewRiskRequest validates raw inputs into a RiskRequest. Empty weights mean
// equal weighting, an empty window means config.DefaultYears and an empty
// risk-free input means defaultRF.
func NewRiskRequest(tickerInput, weightInput, window, rfInput string, maxTickers int, defaultRF float64) (RiskRequest, error) {
	all := ParseTickers(tickerInput, 0)
	if len(all) == 0 {
		return RiskRequest{}, ErrNoTickers
	}
	tickers := all
	if maxTickers > 0 && len(all) > maxTickers {
		tickers = all[:maxTickers]
	}

	weights, err := ParseWeights(weightInput)
	if err != nil {
		return RiskRequest{}, err
	}
	switch {
	case len(weights) == 0:
		weights = make([]float64, len(tickers))
		for i := range weights {
			weights[i] = 1.0 / float64(len(tickers))
		}
	case len(weights) == len(all) && len(all) > len(tickers):
		// weights typed for the full list follow the truncation
		weights = weights[:len(tickers)]
	case len(weights) != len(tickers):
		return RiskRequest{}, fmt.Errorf("%w: %d weights for %d tickers (%s)",
			ErrWeightCount, len(weights), len(tickers), strings.Join(tickers, ", "))
	}

	days, err := parseWindow(window)
	if err != nil {
		return RiskRequest{}, err
	}
	if window == "" {
		window = fmt.Sprintf("%dy", config.DefaultYears)
	}

	rf := defaultRF
	if s := strings.TrimSpace(rfInput); s != "" {
		rf, err = strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return RiskRequest{}, fmt.Errorf("invalid risk-free rate '%s': %w", s, err)
		}
		if strings.HasSuffix(s, "%") {
			rf /= 100
		}
	}
	if math.IsNaN(rf) || rf < 0 || rf > config.MaxRiskFree {
		return RiskRequest{}, fmt.Errorf("risk-free rate %.4f outside [0, %.2f]", rf, config.MaxRiskFree)
	}

	return RiskRequest{
		Tickers:    tickers,
		RawWeights: weights,
		Window:     strings.ToLower(window),
		Days:       days,
		RiskFree:   rf,
	}, nil
}

// ParseRiskCommand parses a bot command
// Format: /risk AAPL, MSFT NVDA [w=1,1,2] [rf=0.02] [5y]
func ParseRiskCommand(input string, maxTickers int, defaultRF float64) (RiskRequest, error) {
	input = strings.TrimSpace(reRiskPrefix.ReplaceAllString(strings.TrimSpace(input), ""))

	var tickers []string
	var weights, window, rf string
	for _, tok := range strings.Fields(input) {
		lower := strings.ToLower(tok)
		switch {
		case strings.HasPrefix(lower, "w="):
			weights = tok[2:]
		case strings.HasPrefix(lower, "weights="):
			weights = tok[len("weights="):]
		case strings.HasPrefix(lower, "rf="):
			rf = tok[3:]
		case reWindow.MatchString(lower):
			window = lower
		default:
			tickers = append(tickers, tok)
		}
	}
	return NewRiskRequest(strings.Join(tickers, ","), weights, window, rf, maxTickers, defaultRF)
}
