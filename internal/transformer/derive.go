package transformer

import "time"

// Values of the high_shipping_flag column.
const (
	FlagHigh   = "Flagged"
	FlagNormal = "Normal"
)

// MetricInputs are the per-row values the derived columns depend on. A nil
// pointer is a missing value.
type MetricInputs struct {
	Quantity     *float64
	UnitPrice    *float64
	Discount     *float64 // percent
	Cost         *float64 // unit cost from the product
	ShippingCost *float64
	OrderDate    *time.Time

	// ShippingThreshold is the strict lower bound for FlagHigh.
	ShippingThreshold float64
}

// Metrics are the derived columns of one fact row. Nil pointers are missing.
type Metrics struct {
	GrossSales       *float64
	NetSales         *float64
	COGS             *float64
	Profit           *float64
	HighShippingFlag string
	OrderYear        *int64
	OrderMonth       *int64
}

// Derive computes the business metrics for one row. Missing inputs make the
// dependent outputs missing; no range checks are applied, so a discount above
// 100 yields negative net sales.
//
//	gross_sales = quantity * unit_price
//	net_sales   = gross_sales * (1 - discount/100)
//	cogs        = quantity * cost
//	profit      = net_sales - cogs
//
// The flag is FlagHigh only for a known shipping cost strictly above the
// threshold.
func Derive(in MetricInputs) Metrics {
	var m Metrics

	m.GrossSales = mul(in.Quantity, in.UnitPrice)
	if m.GrossSales != nil && in.Discount != nil {
		v := *m.GrossSales * (1 - *in.Discount/100)
		m.NetSales = &v
	}
	m.COGS = mul(in.Quantity, in.Cost)
	if m.NetSales != nil && m.COGS != nil {
		v := *m.NetSales - *m.COGS
		m.Profit = &v
	}

	m.HighShippingFlag = FlagNormal
	if in.ShippingCost != nil && *in.ShippingCost > in.ShippingThreshold {
		m.HighShippingFlag = FlagHigh
	}

	if in.OrderDate != nil {
		y, mo := int64(in.OrderDate.Year()), int64(in.OrderDate.Month())
		m.OrderYear, m.OrderMonth = &y, &mo
	}
	return m
}

func mul(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a * *b
	return &v
}
