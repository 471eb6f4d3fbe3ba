// Package cli implements the hypha-artifact command line tool.
//
// Global settings come from flags, HYPHA_* environment variables and an
// optional YAML config file, in that order of precedence. Each subcommand
// maps onto one client operation.
package cli
