package model

// ComparisonSeries is one colored line of a multi-asset comparison.
type ComparisonSeries struct {
	Symbol     string       `json:"symbol"`
	Name       string       `json:"name"`
	Color      string       `json:"color"`
	Points     []PricePoint `json:"points"`
	Normalized bool         `json:"normalized"`
}
