// Package exporter persists finished indicator tables.
//
// Two sinks implement the pipeline's sink contract:
//
// CSVSink: timestamped CSV files with a UTF-8 BOM for Excel compatibility.
//
// ExcelSink: timestamped Excel workbooks; the combined table becomes one
// sheet per board plus an all-boards sheet.
//
// MultiSink fans a table out to several sinks for runs that want both
// formats.
package exporter
