// Package dataprocessing implements the core analysis pipeline: parsing the
// two marketplace extracts, reconciling them into a settled-order table, and
// aggregating that table into product, SKU and daily profitability summaries.
//
// The pipeline runs in two strict stages. The Reconciler filters completed
// orders, deduplicates settlement rows and inner-joins the two extracts on
// the order ID. The Summarizer owns every derived-metric formula (cost
// attribution, profit, margin, stakeholder shares) so that the dashboard,
// the Excel report and the API all compute identical numbers.
package dataprocessing
