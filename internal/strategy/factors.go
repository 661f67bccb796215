package strategy

import (
	"fmt"
	"math"

	"MarketWatch/internal/model"
)

// band scores values up to and including Max.
type band struct {
	Max   float64
	Score float64
}

// Bands run from the most bullish reading to the most bearish; values past the last band score -2.
var (
	deviationBands = []band{{-20, 2}, {-10, 1.5}, {-5, 1}, {0, 0.5}, {5, 0}, {10, -0.5}, {15, -1}, {20, -1.5}}
	rsiBands       = []band{{25, 2}, {30, 1.5}, {40, 1}, {45, 0.5}, {55, 0}, {60, -0.5}, {70, -1}, {80, -1.5}}
	rangeBands     = []band{{10, 2}, {20, 1.5}, {30, 1}, {40, 0.5}, {60, 0}, {70, -0.5}, {80, -1}, {95, -1.5}}
)

func bandScore(v float64, bands []band) (float64, bool) {
	for _, b := range bands {
		if v <= b.Max {
			return b.Score, true
		}
	}
	return -2, false
}

func factor(name string, score, weight float64, commentary string) model.FactorScore {
	return model.FactorScore{
		Name:       name,
		RawScore:   score,
		Weight:     weight,
		Weighted:   score * weight,
		Commentary: commentary,
	}
}

// scoreSMADeviation scores how far the price sits from SMA50, in percent.
func scoreSMADeviation(ind model.Indicators) model.FactorScore {
	if ind.SMA50 == 0 {
		return factor("SMA50 deviation", 0, 0.35, "SMA50 unavailable")
	}
	deviation := (ind.CurrentPrice - ind.SMA50) / ind.SMA50 * 100
	score, _ := bandScore(deviation, deviationBands)
	return factor("SMA50 deviation", score, 0.35, fmt.Sprintf("%+.1f%%", deviation))
}

func scoreRSI(ind model.Indicators) model.FactorScore {
	score, _ := bandScore(ind.RSI14, rsiBands)
	return factor("RSI(14)", score, 0.35, fmt.Sprintf("RSI=%.0f", ind.RSI14))
}

// scoreRangePosition scores where the price sits in the high/low range.
// Above the last band it only reaches -2 when othersAvg < -1, otherwise it caps at -1.
func scoreRangePosition(ind model.Indicators, othersAvg float64) model.FactorScore {
	pos := ind.RangePosition * 100
	score, inBand := bandScore(pos, rangeBands)
	if !inBand && othersAvg >= -1 {
		score = -1
	}
	return factor("range position", score, 0.15, fmt.Sprintf("%.0f%%", pos))
}

// scoreTrend scores moving average alignment and proximity to the range extremes.
// Bullish: price > SMA20 > SMA50. Bearish: price < SMA20 < SMA50.
func scoreTrend(ind model.Indicators) model.FactorScore {
	if ind.SMA20 == 0 || ind.SMA50 == 0 {
		return factor("trend", 0, 0.15, "averages unavailable")
	}
	bullish := ind.CurrentPrice > ind.SMA20 && ind.SMA20 > ind.SMA50
	bearish := ind.CurrentPrice < ind.SMA20 && ind.SMA20 < ind.SMA50
	nearHigh := ind.RangeHigh > 0 && math.Abs(ind.CurrentPrice-ind.RangeHigh)/ind.RangeHigh < 0.01
	nearLow := ind.RangeLow > 0 && math.Abs(ind.CurrentPrice-ind.RangeLow)/ind.RangeLow < 0.01

	switch {
	case bullish && nearHigh:
		return factor("trend", 1.5, 0.15, "bullish alignment at range high")
	case bullish:
		return factor("trend", 1.0, 0.15, "bullish alignment")
	case bearish && nearLow:
		return factor("trend", -1.0, 0.15, "bearish alignment at range low")
	case bearish:
		return factor("trend", -0.5, 0.15, "bearish alignment")
	default:
		return factor("trend", 0, 0.15, "ranging")
	}
}
