package portfolio

import (
	"sort"

	"MarketWatch/internal/model"

	"github.com/shopspring/decimal"
)

// Summary is the valuation of a portfolio state.
type Summary struct {
	Balance         decimal.Decimal  `json:"balance"`
	PositionsValue  decimal.Decimal  `json:"positions_value"`
	Equity          decimal.Decimal  `json:"equity"`
	CostBasis       decimal.Decimal  `json:"cost_basis"`
	TotalPnL        decimal.Decimal  `json:"total_pnl"`
	TotalPnLPercent decimal.Decimal  `json:"total_pnl_percent"`
	Positions       []model.Position `json:"positions"`
}

// Summarize values state. Positions are sorted by symbol.
func Summarize(state model.PortfolioState) Summary {
	s := Summary{Balance: state.Balance}
	for _, p := range state.Positions {
		s.PositionsValue = s.PositionsValue.Add(p.MarketValue())
		s.CostBasis = s.CostBasis.Add(p.Quantity.Mul(p.AvgCost))
		s.TotalPnL = s.TotalPnL.Add(p.PnL)
		s.Positions = append(s.Positions, *p)
	}
	sort.Slice(s.Positions, func(i, j int) bool { return s.Positions[i].Symbol < s.Positions[j].Symbol })
	s.Equity = s.Balance.Add(s.PositionsValue)
	if s.CostBasis.IsPositive() {
		s.TotalPnLPercent = s.TotalPnL.Div(s.CostBasis).Mul(hundred)
	}
	return s
}
