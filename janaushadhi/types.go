// Package janaushadhi resolves free-text drug names against the Jan Aushadhi
// generic-medicine catalog using fuzzy matching and computes the savings of
// switching from the market brand to the scheme price.
package janaushadhi

// CatalogEntry is one generic medicine from jan_aushadhi.json.
type CatalogEntry struct {
	GenericName       string   `json:"generic_name"`
	CommonBrands      []string `json:"common_brands"`
	JanPrice          float64  `json:"jan_price"`
	MarketAvgPrice    float64  `json:"market_avg_price"`
	SavingsPercentage string   `json:"savings_percentage"`
}

// CatalogStats summarizes the catalog for reporting endpoints.
type CatalogStats struct {
	TotalDrugs       int     `json:"total_drugs"`
	PotentialSavings float64 `json:"potential_savings"`
}

// DrugMatch carries the catalog data of an accepted substitute.
type DrugMatch struct {
	GenericName       string  `json:"generic_name"`
	QueryName         string  `json:"brand_name_detected"`
	MatchSource       string  `json:"match_source"`
	JanPrice          float64 `json:"jan_aushadhi_price"`
	MarketAvgPrice    float64 `json:"market_average_price"`
	SavingsAmount     float64 `json:"savings_amount"`
	SavingsPercentage string  `json:"savings_percentage"`
}

// MatchResult is the outcome of a substitute search. Drug is nil unless
// Found is true, and a found match never carries negative savings.
type MatchResult struct {
	Found   bool       `json:"found"`
	Message string     `json:"message"`
	Drug    *DrugMatch `json:"drug_data,omitempty"`
}
