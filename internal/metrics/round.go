package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/fundscope/internal/contracts"
)

const (
	fractionPlaces = 6
	ratioPlaces    = 4
	navPlaces      = 4
)

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(finite(v, 0)).Round(places).Float64()
	return f
}

func roundPtr(p *float64, places int32) *float64 {
	if p == nil {
		return nil
	}
	v := round(*p, places)
	return &v
}

// roundRecord applies boundary rounding; intermediate math stays full precision
func roundRecord(rec *contracts.MetricsRecord) {
	rec.LatestNav = round(rec.LatestNav, navPlaces)

	rec.Return1W = roundPtr(rec.Return1W, fractionPlaces)
	rec.Return1M = roundPtr(rec.Return1M, fractionPlaces)
	rec.Return3M = roundPtr(rec.Return3M, fractionPlaces)
	rec.Return6M = roundPtr(rec.Return6M, fractionPlaces)
	rec.Return1Y = roundPtr(rec.Return1Y, fractionPlaces)

	rec.AnnualReturn = round(rec.AnnualReturn, fractionPlaces)
	rec.Volatility = round(rec.Volatility, fractionPlaces)
	rec.MaxDrawdown = round(rec.MaxDrawdown, fractionPlaces)
	rec.CurrentDrawdown = round(rec.CurrentDrawdown, fractionPlaces)
	rec.Alpha = round(rec.Alpha, fractionPlaces)
	rec.Treynor = round(rec.Treynor, fractionPlaces)
	rec.TrackingError = round(rec.TrackingError, fractionPlaces)
	rec.WinRate = round(rec.WinRate, fractionPlaces)

	rec.Sharpe = round(rec.Sharpe, ratioPlaces)
	rec.Sortino = round(rec.Sortino, ratioPlaces)
	rec.Calmar = round(rec.Calmar, ratioPlaces)
	rec.Beta = round(rec.Beta, ratioPlaces)
	rec.InfoRatio = round(rec.InfoRatio, ratioPlaces)
	rec.ProfitLossRatio = round(rec.ProfitLossRatio, ratioPlaces)
	rec.DownsideSharpe = round(rec.DownsideSharpe, ratioPlaces)
	rec.AlphaConsistency = round(rec.AlphaConsistency, ratioPlaces)
}
