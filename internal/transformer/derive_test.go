package transformer

import (
	"math"
	"testing"
	"time"
)

func f(v float64) *float64 { return &v }

func TestDerive_Arithmetic(t *testing.T) {
	t.Parallel()

	d := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	m := Derive(MetricInputs{
		Quantity:          f(2),
		UnitPrice:         f(50),
		Discount:          f(10),
		Cost:              f(20),
		ShippingCost:      f(45),
		OrderDate:         &d,
		ShippingThreshold: 40,
	})

	checks := []struct {
		name string
		got  *float64
		want float64
	}{
		{"gross_sales", m.GrossSales, 100},
		{"net_sales", m.NetSales, 90},
		{"cogs", m.COGS, 40},
		{"profit", m.Profit, 50},
	}
	for _, c := range checks {
		if c.got == nil || math.Abs(*c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if m.HighShippingFlag != FlagHigh {
		t.Errorf("flag = %q, want %q", m.HighShippingFlag, FlagHigh)
	}
	if m.OrderYear == nil || *m.OrderYear != 2024 || m.OrderMonth == nil || *m.OrderMonth != 3 {
		t.Errorf("year/month = %v/%v", m.OrderYear, m.OrderMonth)
	}
}

func TestDerive_ShippingFlagBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ship *float64
		want string
	}{
		{"equal to threshold", f(40), FlagNormal},
		{"just above", f(40.01), FlagHigh},
		{"below", f(0), FlagNormal},
		{"missing", nil, FlagNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := Derive(MetricInputs{ShippingCost: tt.ship, ShippingThreshold: 40})
			if m.HighShippingFlag != tt.want {
				t.Fatalf("flag = %q, want %q", m.HighShippingFlag, tt.want)
			}
		})
	}
}

func TestDerive_MissingPropagates(t *testing.T) {
	t.Parallel()

	// Missing cost: cogs and profit are missing, sales are not.
	m := Derive(MetricInputs{Quantity: f(3), UnitPrice: f(10), Discount: f(0)})
	if m.GrossSales == nil || *m.GrossSales != 30 || m.NetSales == nil || *m.NetSales != 30 {
		t.Fatalf("sales = %v/%v", m.GrossSales, m.NetSales)
	}
	if m.COGS != nil || m.Profit != nil {
		t.Fatalf("cogs/profit = %v/%v, want missing", m.COGS, m.Profit)
	}
	if m.OrderYear != nil || m.OrderMonth != nil {
		t.Fatalf("year/month should be missing without a date")
	}

	// Missing discount: net sales and profit are missing.
	m = Derive(MetricInputs{Quantity: f(1), UnitPrice: f(10), Cost: f(4)})
	if m.NetSales != nil || m.Profit != nil {
		t.Fatalf("net/profit = %v/%v, want missing", m.NetSales, m.Profit)
	}
	if m.COGS == nil || *m.COGS != 4 {
		t.Fatalf("cogs = %v", m.COGS)
	}
}

func TestDerive_NoRangeValidation(t *testing.T) {
	t.Parallel()

	m := Derive(MetricInputs{Quantity: f(1), UnitPrice: f(100), Discount: f(150), Cost: f(10)})
	if m.NetSales == nil || *m.NetSales != -50 {
		t.Fatalf("net_sales = %v, want -50", m.NetSales)
	}
	if m.Profit == nil || *m.Profit != -60 {
		t.Fatalf("profit = %v, want -60", m.Profit)
	}
}
