package catalog

import (
	"testing"

	"MarketWatch/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		symbol string
		want   model.AssetClass
	}{
		{"EURUSD=X", model.ClassForex},
		{"BTC-USD", model.ClassCrypto},
		{"GC=F", model.ClassCommodity},
		{"^GSPC", model.ClassIndex},
		{"AAPL", model.ClassStock},
	}
	for _, tt := range tests {
		if got := Classify(tt.symbol); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.symbol, got, tt.want)
		}
	}
}

func TestCurrency(t *testing.T) {
	tests := map[string]string{
		"USDJPY=X": "JPY",
		"EURGBP=X": "GBP",
		"EURUSD=X": "USD",
		"AAPL":     "USD",
	}
	for symbol, want := range tests {
		if got := Currency(symbol); got != want {
			t.Errorf("Currency(%q) = %s, want %s", symbol, got, want)
		}
	}
}

func TestDefaultLookup(t *testing.T) {
	c := Default()
	inst, ok := c.Lookup("AAPL")
	if !ok {
		t.Fatal("expected AAPL in default catalog")
	}
	if inst.BasePrice != 175.5 {
		t.Errorf("AAPL base price = %v, want 175.5", inst.BasePrice)
	}
	if inst.Country != "US" {
		t.Errorf("AAPL country = %q, want US", inst.Country)
	}
	btc, _ := c.Lookup("BTC-USD")
	if btc.CoinGeckoID != "bitcoin" {
		t.Errorf("BTC-USD coingecko id = %q", btc.CoinGeckoID)
	}
}

func TestResolveUnknown(t *testing.T) {
	c := Default()
	inst := c.Resolve("ZZZ-USD")
	if inst.Class != model.ClassCrypto {
		t.Errorf("class = %s, want crypto", inst.Class)
	}
	if inst.BasePrice < 50 || inst.BasePrice > 550 {
		t.Errorf("base price %v outside 50..550", inst.BasePrice)
	}
	if again := c.Resolve("ZZZ-USD"); again.BasePrice != inst.BasePrice {
		t.Errorf("second resolve base price = %v, want %v", again.BasePrice, inst.BasePrice)
	}
}

func TestResolveUnknownUsesBasePriceSource(t *testing.T) {
	c := Default()
	calls := 0
	c.SetBasePriceSource(func() float64 {
		calls++
		return 123.45
	})
	for i := 0; i < 3; i++ {
		if got := c.Resolve("ZZQX").BasePrice; got != 123.45 {
			t.Fatalf("base price = %v, want 123.45", got)
		}
	}
	if calls != 1 {
		t.Errorf("base price drawn %d times, want 1", calls)
	}
	if _, ok := c.Lookup("ZZQX"); ok {
		t.Error("derived instrument should not enter the fixed index")
	}
	if got := c.Resolve("AAPL").BasePrice; got != 175.5 {
		t.Errorf("AAPL base price = %v", got)
	}
}

func TestFilterAndSearch(t *testing.T) {
	c := New([]model.Instrument{
		stock("AAPL", "Apple Inc.", 175.5, "NASDAQ"),
		stock("SAP", "SAP SE", 145.8, "NYSE"),
		forex("EURUSD=X", "Euro / US Dollar", 1.085),
	})
	if got := len(c.Filter(model.ClassForex)); got != 1 {
		t.Errorf("forex count = %d, want 1", got)
	}
	if got := len(c.Search("nyse")); got != 1 {
		t.Errorf("search nyse = %d results, want 1", got)
	}
	if got := len(c.Search("apple")); got != 1 {
		t.Errorf("search apple = %d results, want 1", got)
	}
	if got := len(c.Search("  ")); got != 3 {
		t.Errorf("empty search = %d results, want 3", got)
	}
	counts := c.CountByClass()
	if counts[model.ClassStock] != 2 {
		t.Errorf("stock count = %d, want 2", counts[model.ClassStock])
	}
}

func TestNewReplacesDuplicates(t *testing.T) {
	c := New([]model.Instrument{
		stock("AAPL", "Apple Inc.", 175.5, "NASDAQ"),
		stock("AAPL", "Apple", 180, "NASDAQ"),
	})
	if len(c.All()) != 1 {
		t.Fatalf("expected 1 instrument, got %d", len(c.All()))
	}
	inst, _ := c.Lookup("AAPL")
	if inst.BasePrice != 180 {
		t.Errorf("base price = %v, want 180", inst.BasePrice)
	}
}
