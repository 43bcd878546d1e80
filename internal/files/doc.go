// Package files keeps generated report workbooks on disk.
//
// The Archive stores every rendered report under the configured reports
// directory, lists past reports newest first, and serves them back for
// download. Names are sanitized so a request can never read outside the
// archive directory.
package files
