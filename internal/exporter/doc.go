// Package exporter serializes finished analysis tables into downloadable
// documents: a multi-sheet Excel report and a CSV export of the product
// summary. It is presentation glue only; every number it writes is computed
// upstream by the summarizer.
package exporter
