// Package parsers provides the parser registry and bundles format
// parsers for the ingestion pipeline. Each format lives in its own
// subpackage; the registry routes a declared file type to its parser.
package parsers
