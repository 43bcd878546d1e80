// Package services contains the application service layer. Services own the
// session state of an analysis run: the parsed extracts, the reconciled
// settled table, and the derived summaries. HTTP handlers call into services
// and never touch the processing engines directly.
package services
