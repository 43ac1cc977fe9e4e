// Package exporter renders processed grids for download. It provides a
// styled Excel writer, including one-sheet-per-month split export, and a
// plain CSV writer. All styling decisions (fonts, fills, number formats)
// live here, driven by the column classification the pipeline supplies;
// the pipeline itself never styles anything.
package exporter
