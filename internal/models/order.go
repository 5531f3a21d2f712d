package models

// OrderSimulation is the what-if order entered on the dashboard.
// Discount is a fraction, not a percentage.
type OrderSimulation struct {
	SubCategory string  `json:"sub_category" validate:"required"`
	Region      string  `json:"region" validate:"required"`
	Discount    float64 `json:"discount" validate:"gte=0,lte=0.5"`
	ShipType    string  `json:"ship_type" validate:"required"`
}

type DecisionStatus string

const (
	Approved DecisionStatus = "APPROVED"
	Rejected DecisionStatus = "REJECTED"
)

type Decision struct {
	Status DecisionStatus `json:"status"`
	Reason string         `json:"reason"`
}

func (d Decision) Approved() bool {
	return d.Status == Approved
}

// Economics holds every intermediate value of a single simulation.
type Economics struct {
	Category      string  `json:"category"`
	BasePrice     float64 `json:"base_price"`
	BaseCost      float64 `json:"base_cost"`
	ProfitPerUnit float64 `json:"historical_profit_per_unit"`
	ShippingCost  float64 `json:"shipping_cost"`
	FinalPrice    float64 `json:"final_price"`
	Profit        float64 `json:"profit"`
	Margin        float64 `json:"margin"`
	MinMargin     float64 `json:"min_margin"`
}

type BreakdownRow struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

type Evaluation struct {
	Order     OrderSimulation   `json:"order"`
	History   HistoricalSummary `json:"history"`
	Economics Economics         `json:"economics"`
	Decision  Decision          `json:"decision"`
	Breakdown []BreakdownRow    `json:"breakdown"`
}
