package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/fundscope/internal/contracts"
)

type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// GetBenchmarkSeries fetches daily index closes from start and converts them to returns
func (c *Client) GetBenchmarkSeries(ctx context.Context, symbol string, start time.Time) ([]contracts.BenchmarkPoint, error) {
	params := url.Values{}
	params.Set("secid", secID(symbol))
	params.Set("fields1", "f1,f2,f3")
	params.Set("fields2", "f51,f53")
	params.Set("klt", "101")
	params.Set("fqt", "1")
	params.Set("beg", start.Format("20060102"))
	params.Set("end", "20500101")

	body, err := c.fetch(ctx, c.quoteBaseURL, "/api/qt/stock/kline/get", params)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", symbol, err)
	}

	dates, closes, err := parseKlines(body)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", symbol, err)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("benchmark %s: %w", symbol, contracts.ErrNotFound)
	}

	points := contracts.ReturnsFromCloses(dates, closes)

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(points),
	}).Debug("Fetched benchmark series")
	return points, nil
}

// parseKlines reads "YYYY-MM-DD,close" rows; malformed rows are skipped
func parseKlines(body []byte) ([]time.Time, []float64, error) {
	var resp klineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, fmt.Errorf("decode klines: %w", err)
	}
	if resp.Data == nil {
		return nil, nil, nil
	}

	dates := make([]time.Time, 0, len(resp.Data.Klines))
	closes := make([]float64, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || closePrice <= 0 {
			continue
		}
		dates = append(dates, date)
		closes = append(closes, closePrice)
	}
	return dates, closes, nil
}

// secID maps an index symbol to the quote market prefix.
// Shenzhen indices (399xxx) use market 0, everything else Shanghai (1).
func secID(symbol string) string {
	if strings.Contains(symbol, ".") {
		return symbol
	}
	if strings.HasPrefix(symbol, "399") {
		return "0." + symbol
	}
	return "1." + symbol
}
