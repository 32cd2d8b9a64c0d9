// Package catalog loads tabular product data from delimited files.
//
// The loader reads a header row, maps the known columns by name, caps the
// number of rows at a configurable sample size, and normalizes every missing
// field to the core.Sentinel literal so downstream stages never observe
// absent values. Additional columns in the source file are ignored.
package catalog
