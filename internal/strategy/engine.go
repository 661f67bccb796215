// Package strategy rates an asset from its technical indicators.
package strategy

import "MarketWatch/internal/model"

const (
	LabelStrongBuy  = "strong buy"
	LabelBuy        = "buy"
	LabelNeutral    = "neutral"
	LabelSell       = "sell"
	LabelStrongSell = "strong sell"
)

// Tiers maps a total score to a label, highest threshold first.
var Tiers = []struct {
	MinScore float64
	Label    string
}{
	{1.2, LabelStrongBuy},
	{0.4, LabelBuy},
	{-0.4, LabelNeutral},
	{-1.2, LabelSell},
}

// overbought is the RSI above which a rating carries a take-profit warning.
const overbought = 85

func mapTier(totalScore float64) string {
	for _, t := range Tiers {
		if totalScore >= t.MinScore {
			return t.Label
		}
	}
	return LabelStrongSell
}

// Evaluate scores ind. Factors that need a missing average score zero.
func Evaluate(ind model.Indicators) *model.Rating {
	f1 := scoreSMADeviation(ind)
	f2 := scoreRSI(ind)
	f4 := scoreTrend(ind)

	// The range factor only gives its most bearish score when the others agree.
	othersAvg := (f1.RawScore + f2.RawScore + f4.RawScore) / 3.0
	f3 := scoreRangePosition(ind, othersAvg)

	factors := []model.FactorScore{f1, f2, f3, f4}
	var total float64
	for _, f := range factors {
		total += f.Weighted
	}

	r := &model.Rating{
		Factors: factors,
		Score:   total,
		Label:   mapTier(total),
	}
	if ind.RSI14 > overbought {
		r.Warning = "RSI above 85: overbought, consider taking profit"
	}
	return r
}
