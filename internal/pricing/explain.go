package pricing

import (
	"github.com/shopspring/decimal"

	"profit-engine/internal/models"
)

// Breakdown lists every intermediate value behind a decision, in the order
// the dashboard's transparency table shows them.
func Breakdown(order models.OrderSimulation, econ models.Economics) []models.BreakdownRow {
	return []models.BreakdownRow{
		{Metric: "Category", Value: econ.Category},
		{Metric: "Region", Value: order.Region},
		{Metric: "Shipping Type", Value: order.ShipType},
		{Metric: "Base Price", Value: Amount(econ.BasePrice)},
		{Metric: "Base Cost", Value: Amount(econ.BaseCost)},
		{Metric: "Discount", Value: WholePercent(order.Discount)},
		{Metric: "Shipping Cost", Value: Amount(econ.ShippingCost)},
		{Metric: "Final Price", Value: Amount(econ.FinalPrice)},
		{Metric: "Profit", Value: Amount(econ.Profit)},
		{Metric: "Margin", Value: Percent(econ.Margin)},
		{Metric: "Required Margin", Value: WholePercent(econ.MinMargin)},
	}
}

// Amount renders v with two decimals.
func Amount(v float64) string {
	return decimal.NewFromFloat(v).RoundBank(2).StringFixed(2)
}

// Percent renders a fraction as a percentage with one decimal, e.g. 2.2%.
func Percent(fraction float64) string {
	return decimal.NewFromFloat(fraction).Shift(2).RoundBank(1).StringFixed(1) + "%"
}

// WholePercent renders a fraction as a truncated whole percentage, e.g. 12%.
func WholePercent(fraction float64) string {
	return decimal.NewFromFloat(fraction).Shift(2).Truncate(0).String() + "%"
}
