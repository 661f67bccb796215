package model

import (
	"fmt"
	"strings"
	"time"
)

// AssetClass is decided once when an instrument enters the system.
type AssetClass string

const (
	ClassStock     AssetClass = "stock"
	ClassForex     AssetClass = "forex"
	ClassCrypto    AssetClass = "crypto"
	ClassCommodity AssetClass = "commodity"
	ClassIndex     AssetClass = "index"
	ClassBond      AssetClass = "bond"
)

// AllClasses lists every asset class in display order.
var AllClasses = []AssetClass{ClassStock, ClassForex, ClassCrypto, ClassCommodity, ClassIndex, ClassBond}

// ParseAssetClass accepts the class names used on the wire ("stock", "forex", ...).
func ParseAssetClass(s string) (AssetClass, error) {
	c := AssetClass(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllClasses {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown asset class %q", s)
}

// Instrument is the static description of a tradable symbol.
type Instrument struct {
	Symbol      string     `json:"symbol" yaml:"symbol"`
	Name        string     `json:"name" yaml:"name"`
	Class       AssetClass `json:"class" yaml:"class"`
	Exchange    string     `json:"exchange" yaml:"exchange"`
	Country     string     `json:"country" yaml:"country"`
	Currency    string     `json:"currency" yaml:"currency"`
	BasePrice   float64    `json:"base_price" yaml:"base_price"`
	CoinGeckoID string     `json:"coingecko_id,omitempty" yaml:"coingecko_id"`
}

// Asset is the live view of an instrument. It is mutated in place on every tick.
type Asset struct {
	Symbol        string     `json:"symbol"`
	Name          string     `json:"name"`
	Class         AssetClass `json:"class"`
	Exchange      string     `json:"exchange"`
	Currency      string     `json:"currency"`
	Price         float64    `json:"price"`
	Change        float64    `json:"change"`
	ChangePercent float64    `json:"change_percent"`
	Volume        float64    `json:"volume"`
	High24h       float64    `json:"high_24h"`
	Low24h        float64    `json:"low_24h"`
	MarketCap     float64    `json:"market_cap,omitempty"`
	Source        string     `json:"source"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewAsset builds an asset from its instrument, priced at the base price.
func NewAsset(inst Instrument) *Asset {
	return &Asset{
		Symbol:   inst.Symbol,
		Name:     inst.Name,
		Class:    inst.Class,
		Exchange: inst.Exchange,
		Currency: inst.Currency,
		Price:    inst.BasePrice,
		High24h:  inst.BasePrice,
		Low24h:   inst.BasePrice,
	}
}

// ApplyQuote overwrites the price fields of the asset with q.
func (a *Asset) ApplyQuote(q *Quote) {
	a.Price = q.Price
	a.Change = q.Change
	a.ChangePercent = q.ChangePercent
	a.Volume = q.Volume
	if q.High > 0 {
		a.High24h = q.High
	}
	if q.Low > 0 {
		a.Low24h = q.Low
	}
	if q.MarketCap > 0 {
		a.MarketCap = q.MarketCap
	}
	a.Source = q.Source
	a.UpdatedAt = q.Timestamp
}
