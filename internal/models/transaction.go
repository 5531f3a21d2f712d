package models

// Transaction is one historical sale line. Records with a non-positive
// quantity never reach the store.
type Transaction struct {
	SubCategory string
	Region      string
	Category    string
	ShipType    string
	Sales       float64
	Quantity    int
	Profit      float64
}

type Options struct {
	SubCategories []string `json:"sub_categories"`
	Regions       []string `json:"regions"`
	ShipTypes     []string `json:"ship_types"`
}

// HistoricalSummary is the quantity-weighted aggregate of every transaction
// matching a (sub-category, region) pair.
type HistoricalSummary struct {
	SubCategory   string  `json:"sub_category"`
	Region        string  `json:"region"`
	Category      string  `json:"category"`
	Records       int     `json:"records"`
	TotalQuantity int     `json:"total_quantity"`
	TotalSales    float64 `json:"total_sales"`
	TotalProfit   float64 `json:"total_profit"`
	BasePrice     float64 `json:"base_price"`
	ProfitPerUnit float64 `json:"historical_profit_per_unit"`
	BaseCost      float64 `json:"base_cost"`
}
