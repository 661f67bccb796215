package calculator

import (
	"errors"

	"MarketWatch/internal/model"
)

// Compute summarises bars for symbol. Averages the series is too short for are left at zero.
func Compute(symbol string, bars []model.OHLCV) (model.Indicators, error) {
	ind := model.Indicators{Symbol: symbol}
	if len(bars) == 0 {
		return ind, ErrNotEnoughData
	}
	closes := Closes(bars)
	ind.CurrentPrice = closes[len(closes)-1]

	var err error
	if ind.SMA20, err = CalculateSMA(closes, 20); err != nil && !errors.Is(err, ErrNotEnoughData) {
		return ind, err
	}
	if ind.SMA50, err = CalculateSMA(closes, 50); err != nil && !errors.Is(err, ErrNotEnoughData) {
		return ind, err
	}
	if ind.RSI14, err = CalculateRSI(closes, 14); err != nil {
		return ind, err
	}
	if ind.RangeHigh, ind.RangeLow, err = PriceRange(bars, 0); err != nil {
		return ind, err
	}
	ind.RangePosition, err = RangePosition(ind.CurrentPrice, ind.RangeHigh, ind.RangeLow)
	return ind, err
}
