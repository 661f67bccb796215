package market

import "MarketWatch/internal/model"

// Stats summarises a set of assets.
type Stats struct {
	Total       int                      `json:"total"`
	Gainers     int                      `json:"gainers"`
	Losers      int                      `json:"losers"`
	Unchanged   int                      `json:"unchanged"`
	TopGainer   *model.Asset             `json:"top_gainer,omitempty"`
	TopLoser    *model.Asset             `json:"top_loser,omitempty"`
	TotalVolume float64                  `json:"total_volume"`
	ByClass     map[model.AssetClass]int `json:"by_class"`
	BySource    map[string]int           `json:"by_source"`
}

// ComputeStats counts gainers and losers by change percent and picks the extremes.
// TopGainer is set only when some asset is up, TopLoser only when some asset is down.
func ComputeStats(assets []model.Asset) Stats {
	st := Stats{
		Total:    len(assets),
		ByClass:  make(map[model.AssetClass]int),
		BySource: make(map[string]int),
	}
	for i := range assets {
		a := assets[i]
		switch {
		case a.ChangePercent > 0:
			st.Gainers++
			if st.TopGainer == nil || a.ChangePercent > st.TopGainer.ChangePercent {
				st.TopGainer = &a
			}
		case a.ChangePercent < 0:
			st.Losers++
			if st.TopLoser == nil || a.ChangePercent < st.TopLoser.ChangePercent {
				st.TopLoser = &a
			}
		default:
			st.Unchanged++
		}
		st.TotalVolume += a.Volume
		st.ByClass[a.Class]++
		if a.Source != "" {
			st.BySource[a.Source]++
		}
	}
	return st
}
