package pricing

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"profit-engine/internal/models"
)

var (
	ErrNoHistoricalData = errors.New("no historical data for this sub-category and region")
	ErrNonPositivePrice = errors.New("final price must be positive")
)

const (
	reasonApproved = "Meets all margin and profitability rules."
	reasonLoss     = "Loss-making order."
)

// Aggregate summarises the transactions matching subCategory and region.
// Prices are weighted by quantity, so high-volume lines dominate.
func Aggregate(records []models.Transaction, subCategory, region string) (models.HistoricalSummary, error) {
	summary := models.HistoricalSummary{
		SubCategory: subCategory,
		Region:      region,
	}

	for _, tx := range records {
		if tx.SubCategory != subCategory || tx.Region != region {
			continue
		}
		if summary.Records == 0 {
			summary.Category = tx.Category
		}
		summary.Records++
		summary.TotalSales += tx.Sales
		summary.TotalProfit += tx.Profit
		summary.TotalQuantity += tx.Quantity
	}

	if summary.Records == 0 || summary.TotalQuantity <= 0 {
		return models.HistoricalSummary{}, ErrNoHistoricalData
	}

	qty := float64(summary.TotalQuantity)
	summary.BasePrice = summary.TotalSales / qty
	summary.ProfitPerUnit = summary.TotalProfit / qty
	summary.BaseCost = summary.BasePrice - summary.ProfitPerUnit

	return summary, nil
}

// Price computes the economics of selling one unit at the historical base
// price with the order's discount and shipping tier applied.
func (r Rules) Price(history models.HistoricalSummary, order models.OrderSimulation) (models.Economics, error) {
	econ := models.Economics{
		Category:      history.Category,
		BasePrice:     history.BasePrice,
		BaseCost:      history.BaseCost,
		ProfitPerUnit: history.ProfitPerUnit,
		ShippingCost:  r.ShippingCost(order.Region, order.ShipType),
		MinMargin:     r.MinMargin(history.Category, order.Region),
	}

	econ.FinalPrice = econ.BasePrice * (1 - order.Discount)
	if econ.FinalPrice <= 0 {
		return models.Economics{}, fmt.Errorf("%w: %.2f", ErrNonPositivePrice, econ.FinalPrice)
	}

	econ.Profit = econ.FinalPrice - econ.BaseCost - econ.ShippingCost
	econ.Margin = econ.Profit / econ.FinalPrice

	return econ, nil
}

// Decide applies the approval rules to priced economics.
func (r Rules) Decide(econ models.Economics, region string) models.Decision {
	return decide(econ.Profit, econ.Margin, econ.MinMargin, econ.Category, region)
}

// A loss always rejects, before the margin floor is consulted.
func decide(profit, margin, minMargin float64, category, region string) models.Decision {
	switch {
	case profit < 0:
		return models.Decision{Status: models.Rejected, Reason: reasonLoss}
	case margin < minMargin:
		return models.Decision{
			Status: models.Rejected,
			Reason: fmt.Sprintf("Below required margin of %s for %s in %s.", WholePercent(minMargin), category, region),
		}
	default:
		return models.Decision{Status: models.Approved, Reason: reasonApproved}
	}
}

// Evaluate runs the full simulation for order against the historical table.
func (r Rules) Evaluate(order models.OrderSimulation, records []models.Transaction) (models.Evaluation, error) {
	history, err := Aggregate(records, order.SubCategory, order.Region)
	if err != nil {
		return models.Evaluation{}, err
	}

	econ, err := r.Price(history, order)
	if err != nil {
		return models.Evaluation{}, err
	}

	return models.Evaluation{
		Order:     order,
		History:   history,
		Economics: econ,
		Decision:  r.Decide(econ, order.Region),
		Breakdown: Breakdown(order, econ),
	}, nil
}

// Evaluate uses the default rule tables.
func Evaluate(order models.OrderSimulation, records []models.Transaction) (models.Evaluation, error) {
	return defaultRules.Evaluate(order, records)
}

func sortedKeys(m map[string]float64) []string {
	return slices.Sorted(maps.Keys(m))
}
