// Package catalog loads reference object catalogs from CSV files.
//
// A catalog is a column-oriented table of float64 values keyed by the CSV
// header names. Typical catalogs list simulated halos with their angular
// positions and physical properties; the detection pipeline only needs the
// two position columns, exposed through PositionView.
//
// All cells must parse as floating-point numbers. Identifier or label
// columns should be stripped before export, the convention of the
// simulation pipeline producing these files.
package catalog
