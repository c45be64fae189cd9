// Package cli implements the command-line interface for zabava-archive.
//
// The root command asks for a cut-off date, opens the archive in Chromium, scrolls
// until that date is rendered, extracts every draw above it and writes them to CSV
// or XLSX. Subcommands extract from a saved page, validate a date expression and
// download Chromium. The package coordinates the config, datespec, browser,
// discovery, draw, export and storage packages.
package cli
