package config

import "time"

// Application constants for the Margin Pulse system.
const (
	AppName    = "Margin Pulse"
	AppVersion = "1.2.0"

	// CompletedOrderStatus is the sentinel value an order row must carry in
	// the marketplace export to count as a settled sale. Shopee exports in
	// Indonesian use "Selesai"; override via analysis.completed_status.
	CompletedOrderStatus = "Selesai"

	// Profit split between the two stakeholders.
	MajorShareRate = 0.60
	MinorShareRate = 0.40

	// Dashboard and insight panel sizes.
	DashboardTopN = 10
	InsightTopN   = 5

	// Upload limits
	MaxUploadSize = 32 << 20 // 32 MiB per workbook

	// Network timeouts
	DefaultHTTPTimeout = 30 * time.Second
	SheetsTimeout      = 45 * time.Second

	// File paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultLogsDir    = "logs"
	DefaultReportsDir = "data/reports"
)

// Raw extract column names. The marketplace ships these verbatim; headers are
// whitespace-trimmed at the parse boundary before matching.
const (
	ColOrderID          = "Order ID"
	ColOrderStatus      = "Order Status"
	ColProductName      = "Product Name"
	ColSellerSKU        = "Seller SKU"
	ColVariation        = "Variation"
	ColQuantity         = "Quantity"
	ColAdjustmentID     = "Order/adjustment ID"
	ColSettlementAmount = "Total settlement amount"
)

// OrderDateColumns lists the creation-timestamp headers seen across export
// versions, in lookup priority order. The first one present wins.
var OrderDateColumns = []string{
	"Order created time(UTC)",
	"Order creation time",
	"Order Creation Time",
	"Creation Time",
	"Date",
	"Order Date",
	"Order created time",
	"Created time",
}
