package pricing

import "github.com/shopspring/decimal"

const (
	// DefaultRegionShippingCost applies to regions missing from the table.
	DefaultRegionShippingCost = 6.0
	// DefaultShipMultiplier applies to ship types missing from the table.
	DefaultShipMultiplier = 1.0
	// DefaultMinMargin is the floor for categories and regions without a rule.
	DefaultMinMargin = 0.08
)

// Rules is the fixed shipping and margin policy. The zero value is not
// usable; obtain one from DefaultRules. A Rules value has no mutators and is
// safe to share between goroutines.
type Rules struct {
	regionShipping  map[string]float64
	shipMultipliers map[string]float64
	categoryMargins map[string]float64
	regionMargins   map[string]float64
}

var defaultRules = Rules{
	regionShipping: map[string]float64{
		"East":    8,
		"West":    6,
		"Central": 7,
		"South":   5,
	},
	// Second and First are the values found in the data; the -tier names
	// are accepted as aliases.
	shipMultipliers: map[string]float64{
		"Standard":    1.0,
		"Second":      1.4,
		"Second-tier": 1.4,
		"First":       1.8,
		"First-tier":  1.8,
	},
	categoryMargins: map[string]float64{
		"Technology":      0.12,
		"Furniture":       0.10,
		"Office Supplies": 0.08,
	},
	regionMargins: map[string]float64{
		"East":    0.12,
		"West":    0.10,
		"Central": 0.10,
		"South":   0.09,
	},
}

func DefaultRules() Rules {
	return defaultRules
}

func (r Rules) RegionShippingCost(region string) float64 {
	if cost, ok := r.regionShipping[region]; ok {
		return cost
	}
	return DefaultRegionShippingCost
}

func (r Rules) ShipMultiplier(shipType string) float64 {
	if m, ok := r.shipMultipliers[shipType]; ok {
		return m
	}
	return DefaultShipMultiplier
}

// ShippingCost is the per-unit shipping charge rounded to cents.
func (r Rules) ShippingCost(region, shipType string) float64 {
	cost := r.RegionShippingCost(region) * r.ShipMultiplier(shipType)
	return decimal.NewFromFloat(cost).RoundBank(2).InexactFloat64()
}

func (r Rules) CategoryMargin(category string) float64 {
	if m, ok := r.categoryMargins[category]; ok {
		return m
	}
	return DefaultMinMargin
}

func (r Rules) RegionMargin(region string) float64 {
	if m, ok := r.regionMargins[region]; ok {
		return m
	}
	return DefaultMinMargin
}

// MinMargin is the stricter of the category and region margin floors.
func (r Rules) MinMargin(category, region string) float64 {
	return max(r.CategoryMargin(category), r.RegionMargin(region))
}

func (r Rules) Categories() []string {
	return sortedKeys(r.categoryMargins)
}

func (r Rules) Regions() []string {
	return sortedKeys(r.regionMargins)
}
