package models

// Plan is a subscription plan. Plans are immutable reference data loaded once
// at process start; see internal/plans.
type Plan struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	PriceMonthly  int      `json:"price_monthly_cents"`
	PriceYearly   int      `json:"price_yearly_cents"`
	Features      []string `json:"features"`
	Institutional bool     `json:"institutional"`
	MostPopular   bool     `json:"most_popular,omitempty"`
}
