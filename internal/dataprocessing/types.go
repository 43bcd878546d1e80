package dataprocessing

import "time"

// OrderRecord is one line item from the completed-orders extract. One order
// may span multiple line items sharing the same OrderID.
type OrderRecord struct {
	OrderID     string    `json:"order_id"`
	OrderStatus string    `json:"order_status"`
	ProductName string    `json:"product_name"`
	SellerSKU   string    `json:"seller_sku"`
	Variation   string    `json:"variation"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// IncomeRecord is one row from the settlement extract. AdjustmentID is unique
// per settlement event; the amount may be negative for adjustments.
type IncomeRecord struct {
	AdjustmentID     string  `json:"adjustment_id"`
	SettlementAmount float64 `json:"settlement_amount"`
}

// SettledOrder is a line item joined to its settlement row. It carries the
// union of both sides' fields.
type SettledOrder struct {
	OrderRecord
	SettlementAmount float64 `json:"settlement_amount"`
}

// OrdersFile is the parsed completed-orders extract.
type OrdersFile struct {
	Records []OrderRecord `json:"records"`
	// DateColumn is the recognized creation-timestamp header found in the
	// extract, empty when none was present.
	DateColumn string `json:"date_column,omitempty"`
}

// IncomeFile is the parsed settlement extract.
type IncomeFile struct {
	Records []IncomeRecord `json:"records"`
}

// ProductSummary is one row of the per-product profitability table, keyed by
// the (SKU, product, variation) triple.
type ProductSummary struct {
	SellerSKU       string  `json:"seller_sku"`
	ProductName     string  `json:"product_name"`
	Variation       string  `json:"variation"`
	TotalQty        int     `json:"total_qty"`
	Revenue         float64 `json:"revenue"`
	CostPerUnit     float64 `json:"cost_per_unit"`
	TotalCost       float64 `json:"total_cost"`
	Profit          float64 `json:"profit"`
	ProfitMarginPct float64 `json:"profit_margin_pct"`
	ShareMajor      float64 `json:"share_60"`
	ShareMinor      float64 `json:"share_40"`
}

// SKUSummary is the coarser per-SKU aggregation used by the Excel report.
// Cost attribution uses the first product name seen for the SKU.
type SKUSummary struct {
	SellerSKU       string  `json:"seller_sku"`
	ProductName     string  `json:"product_name"`
	TotalQty        int     `json:"total_qty"`
	TotalOrders     int     `json:"total_orders"`
	Revenue         float64 `json:"revenue"`
	CostPerUnit     float64 `json:"cost_per_unit"`
	TotalCost       float64 `json:"total_cost"`
	Profit          float64 `json:"profit"`
	ProfitMarginPct float64 `json:"profit_margin_pct"`
	ShareMajor      float64 `json:"share_60"`
	ShareMinor      float64 `json:"share_40"`
}

// DailySales is one calendar day of the daily breakdown. When the extract
// carries no usable date column the table degrades to a single row with
// Placeholder set and Date holding an explanatory label.
type DailySales struct {
	Date        string  `json:"date"`
	Quantity    int     `json:"quantity"`
	Orders      int     `json:"orders"`
	Revenue     float64 `json:"revenue"`
	Placeholder bool    `json:"placeholder,omitempty"`
}

// BusinessTotals carries the order-level dashboard totals alongside the
// line-item product totals. The two revenue figures legitimately differ:
// OrderRevenue deduplicates by OrderID so multi-line-item orders count once,
// while LineItemRevenue sums the product summary. CoveragePct relates the two.
type BusinessTotals struct {
	TotalOrders       int     `json:"total_orders"`
	TotalQty          int     `json:"total_qty"`
	OrderRevenue      float64 `json:"order_revenue"`
	LineItemRevenue   float64 `json:"line_item_revenue"`
	TotalCost         float64 `json:"total_cost"`
	Profit            float64 `json:"profit"`
	ShareMajor        float64 `json:"share_60"`
	ShareMinor        float64 `json:"share_40"`
	AvgOrderValue     float64 `json:"avg_order_value"`
	AvgProfitPerOrder float64 `json:"avg_profit_per_order"`
	OverallMarginPct  float64 `json:"overall_margin_pct"`
	CoveragePct       float64 `json:"coverage_pct"`
}

// QuadrantReport partitions the product summary by comparing each row's
// volume and margin against the table medians. >= median counts as high.
type QuadrantReport struct {
	MedianQty    float64          `json:"median_qty"`
	MedianMargin float64          `json:"median_margin"`
	Stars        []ProductSummary `json:"stars"`      // high volume, high margin
	Workhorses   []ProductSummary `json:"workhorses"` // high volume, low margin
	Niche        []ProductSummary `json:"niche"`      // low volume, high margin
	Problems     []ProductSummary `json:"problems"`   // low volume, low margin
}

// Insights summarizes portfolio health for the dashboard insight panel.
type Insights struct {
	TotalProducts       int     `json:"total_products"`
	Profitable          int     `json:"profitable"`
	HighMargin          int     `json:"high_margin"`            // margin > 20%
	LowMargin           int     `json:"low_margin"`             // margin < 10%
	HighVolumeLowMargin int     `json:"high_volume_low_margin"` // qty >= median, margin < 15%
	Top20RevenuePct     float64 `json:"top20_revenue_pct"`
}
