// Package config provides application configuration for Margin Pulse.
//
// Configuration is loaded from environment variables (prefix MARGIN_) with an
// optional YAML file overlay, validated once at startup. The package also
// carries the column-name and status-sentinel constants shared by the parse
// and reconciliation layers so that marketplace-export quirks live in one
// place instead of being spread through the pipeline.
package config
