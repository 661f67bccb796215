package generator

import (
	"math"
	"time"

	"MarketWatch/internal/model"
)

// SourceSimulation labels quotes produced by the generator.
const SourceSimulation = "simulation"

// Quote synthesises a quote for inst. history holds recent prices, oldest first;
// its last value seeds the move and the last two give it momentum.
func (g *Generator) Quote(inst model.Instrument, history []float64, now time.Time) *model.Quote {
	prof := ProfileFor(inst.Class)

	prev := inst.BasePrice
	if len(history) > 0 {
		prev = history[len(history)-1]
	}
	prev = clamp(prev)

	var momentum float64
	if n := len(history); n > 1 && history[n-2] > 0 {
		momentum = (history[n-1] - history[n-2]) / history[n-2] * 0.1
	}
	trend := math.Sin(float64(now.Unix())/1000) * 0.001

	g.mu.Lock()
	random := (g.rng.Float64() - 0.5) * prof.QuoteVolatility
	volJitter := 0.8 + g.rng.Float64()*0.4
	highExt := g.rng.Float64() * 0.02
	lowExt := g.rng.Float64() * 0.02
	g.mu.Unlock()

	price := clamp(prev * (1 + trend + random + momentum))
	change := price - prev
	changePct := change / prev * 100
	volume := math.Floor(prof.BaseVolume * (1 + math.Abs(changePct)*0.1) * volJitter)

	return &model.Quote{
		Symbol:        inst.Symbol,
		Price:         RoundPrice(inst.Class, price),
		Change:        Round(change, Decimals(inst.Class, price)),
		ChangePercent: Round(changePct, 2),
		Volume:        volume,
		High:          RoundPrice(inst.Class, math.Max(price, prev)*(1+highExt)),
		Low:           RoundPrice(inst.Class, math.Min(price, prev)*(1-lowExt)),
		Open:          RoundPrice(inst.Class, prev),
		Timestamp:     now,
		Source:        SourceSimulation,
	}
}
