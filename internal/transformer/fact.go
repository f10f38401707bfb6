package transformer

import (
	"fmt"
	"log"
	"time"

	"salesetl/internal/config"
	"salesetl/internal/extract"
	"salesetl/internal/table"
)

// Join keys.
const (
	OrderKey   = "order_id"
	ProductKey = "product_id"
	UserKey    = "user_id"
)

// Projections applied to the dimension tables before joining. The key comes
// first in each.
var (
	ProductColumns = []string{ProductKey, "category", "subcategory", "cost"}
	UserColumns    = []string{UserKey, "age", "gender", "customer_segment", "city", "state", "country"}

	// OrderDroppedColumns are removed from orders before the join.
	OrderDroppedColumns = []string{"payment_method"}
)

// Derived column names, in output order.
const (
	ColGrossSales       = "gross_sales"
	ColNetSales         = "net_sales"
	ColCOGS             = "cogs"
	ColProfit           = "profit"
	ColHighShippingFlag = "high_shipping_flag"
	ColOrderYear        = "order_year"
	ColOrderMonth       = "order_month"
)

// FactOptions tunes BuildFact.
type FactOptions struct {
	ShippingThreshold float64
}

// DefaultFactOptions returns the options of the classic run.
func DefaultFactOptions() FactOptions {
	return FactOptions{ShippingThreshold: config.DefaultShippingThreshold}
}

// FactStats summarizes a BuildFact run.
type FactStats struct {
	OrderItems        int // input rows
	Rows              int // output rows
	UnmatchedOrders   int
	UnmatchedProducts int
	UnmatchedUsers    int

	// DuplicateKeyFanout counts output rows beyond one per order item,
	// produced by duplicate keys in orders, products or users.
	DuplicateKeyFanout int

	// MissingOrderDates counts fact rows without an order date.
	MissingOrderDates int
}

// BuildFact joins order items with orders, products and users, then appends
// the derived metric columns. It does not modify src.
//
// Output columns: every order_items column, the orders columns except
// order_id and payment_method, category, subcategory, cost, the six user
// columns, then gross_sales, net_sales, cogs, profit, high_shipping_flag,
// order_year, order_month.
func BuildFact(src *extract.Sources, opt FactOptions) (*table.Table, FactStats, error) {
	start := time.Now()
	st := FactStats{OrderItems: src.OrderItems.Len()}

	products, err := src.Products.Project(ProductColumns...)
	if err != nil {
		return nil, st, fmt.Errorf("transform: project products: %w", err)
	}
	users, err := src.Users.Project(UserColumns...)
	if err != nil {
		return nil, st, fmt.Errorf("transform: project users: %w", err)
	}
	orders := src.Orders.Drop(OrderDroppedColumns...)

	fact, js, err := LeftJoin(src.OrderItems, orders, OrderKey)
	if err != nil {
		return nil, st, fmt.Errorf("transform: join orders: %w", err)
	}
	st.UnmatchedOrders, st.DuplicateKeyFanout = js.Unmatched, js.Fanout

	fact, js, err = LeftJoin(fact, products, ProductKey)
	if err != nil {
		return nil, st, fmt.Errorf("transform: join products: %w", err)
	}
	st.UnmatchedProducts = js.Unmatched
	st.DuplicateKeyFanout += js.Fanout

	fact, js, err = LeftJoin(fact, users, UserKey)
	if err != nil {
		return nil, st, fmt.Errorf("transform: join users: %w", err)
	}
	st.UnmatchedUsers = js.Unmatched
	st.DuplicateKeyFanout += js.Fanout

	fact.Name = "fact_sales"
	if st.MissingOrderDates, err = addMetrics(fact, opt); err != nil {
		return nil, st, fmt.Errorf("transform: derive: %w", err)
	}
	st.Rows = fact.Len()

	log.Printf("transform: merging and feature engineering complete (rows=%d unmatched_orders=%d unmatched_products=%d unmatched_users=%d fanout=%d elapsed=%s)",
		st.Rows, st.UnmatchedOrders, st.UnmatchedProducts, st.UnmatchedUsers, st.DuplicateKeyFanout,
		time.Since(start).Truncate(time.Millisecond))
	return fact, st, nil
}

// addMetrics appends the derived columns to fact, replacing any input column
// of the same name, and fills them row by row.
// It returns the number of rows without an order date.
func addMetrics(fact *table.Table, opt FactOptions) (int, error) {
	var in struct{ qty, price, disc, cost, ship, date int }
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{"quantity", &in.qty},
		{"unit_price", &in.price},
		{"discount", &in.disc},
		{"cost", &in.cost},
		{"shipping_cost", &in.ship},
		{extract.OrderDateColumn, &in.date},
	} {
		i, err := fact.Require(c.name)
		if err != nil {
			return 0, err
		}
		*c.dst = i
	}

	gross := fact.AddColumn(ColGrossSales, table.KindFloat)
	net := fact.AddColumn(ColNetSales, table.KindFloat)
	cogs := fact.AddColumn(ColCOGS, table.KindFloat)
	profit := fact.AddColumn(ColProfit, table.KindFloat)
	flag := fact.AddColumn(ColHighShippingFlag, table.KindText)
	year := fact.AddColumn(ColOrderYear, table.KindInt)
	month := fact.AddColumn(ColOrderMonth, table.KindInt)

	missingDates := 0
	for r := range fact.Rows {
		v := fact.Rows[r].V
		m := Derive(MetricInputs{
			Quantity:          floatPtr(v[in.qty]),
			UnitPrice:         floatPtr(v[in.price]),
			Discount:          floatPtr(v[in.disc]),
			Cost:              floatPtr(v[in.cost]),
			ShippingCost:      floatPtr(v[in.ship]),
			OrderDate:         timePtr(v[in.date]),
			ShippingThreshold: opt.ShippingThreshold,
		})
		v[gross] = anyFloat(m.GrossSales)
		v[net] = anyFloat(m.NetSales)
		v[cogs] = anyFloat(m.COGS)
		v[profit] = anyFloat(m.Profit)
		v[flag] = m.HighShippingFlag
		v[year] = anyInt(m.OrderYear)
		v[month] = anyInt(m.OrderMonth)
		if m.OrderYear == nil {
			missingDates++
		}
	}
	return missingDates, nil
}

func floatPtr(v any) *float64 {
	f, ok := table.Float(v)
	if !ok {
		return nil
	}
	return &f
}

func timePtr(v any) *time.Time {
	t, ok := table.Time(v)
	if !ok {
		return nil
	}
	return &t
}

func anyFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func anyInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
