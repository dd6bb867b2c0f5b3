package scoring

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/fundscope/internal/contracts"
)

// PeerPercentile mid-rank percentile of raw within batch, rounded to 0.1:
// scores below count fully, scores equal to raw count half.
// A batch with fewer than two scores yields DefaultPeerPercentile.
func PeerPercentile(raw float64, batch []float64) float64 {
	if len(batch) < 2 {
		return DefaultPeerPercentile
	}

	lower, equal := 0, 0
	for _, s := range batch {
		switch {
		case s < raw:
			lower++
		case s == raw:
			equal++
		}
	}

	// (lower + equal/2) / n * 100 == (2*lower + equal) * 50 / n
	pct, _ := decimal.NewFromInt(int64(2*lower + equal)).
		Mul(decimal.NewFromInt(50)).
		Div(decimal.NewFromInt(int64(len(batch)))).
		Round(1).
		Float64()
	return pct
}

// ScoreBatch scores every record in two passes and writes Score and Grade.
// Pass 1 computes raw scores at the default percentile; pass 2 places each raw
// score within the full batch and rescores with that percentile.
// A single record has no peers and keeps the default percentile.
// The outcome does not depend on input order.
func (r *Rubric) ScoreBatch(records []*contracts.MetricsRecord) {
	if len(records) == 0 {
		return
	}

	raws := make([]float64, len(records))
	for i, rec := range records {
		raws[i] = float64(rawScore(rec, DefaultPeerPercentile))
	}

	for i, rec := range records {
		pct := DefaultPeerPercentile
		if len(records) > 1 {
			pct = PeerPercentile(raws[i], raws)
		}
		res := r.Score(rec, pct)
		rec.Score = float64(res.Score)
		rec.Grade = res.Grade
	}

	r.logger.WithFields(map[string]interface{}{
		"records": len(records),
	}).Debug("Batch scored")
}

// Rank sorts by score descending, code ascending, and writes 1-based Rank.
// Returns a new slice; the input order is untouched.
func Rank(records []*contracts.MetricsRecord) []*contracts.MetricsRecord {
	ranked := make([]*contracts.MetricsRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Code < ranked[j].Code
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Truncate keeps the first n ranked records
func Truncate(ranked []*contracts.MetricsRecord, n int) []*contracts.MetricsRecord {
	if n <= 0 || len(ranked) <= n {
		return ranked
	}
	return ranked[:n]
}
