package templates

import "profit-engine/internal/models"

const noHistoryMessage = "No historical data for this SKU & Region"

// Signals is the client-side state shared between the page and the
// /sse/simulate endpoint. Discount is a whole percentage.
type Signals struct {
	SubCategory string `json:"subCategory"`
	Region      string `json:"region"`
	Discount    int    `json:"discount"`
	ShipType    string `json:"shipType"`
}

type DashboardView struct {
	Options models.Options
	Initial Signals
}

// InitialSignals picks the first option of each control and a 10% discount.
func InitialSignals(opts models.Options) Signals {
	return Signals{
		SubCategory: first(opts.SubCategories),
		Region:      first(opts.Regions),
		Discount:    10,
		ShipType:    first(opts.ShipTypes),
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
