// Package domain models Czech Police traffic-accident statistics.
//
// # Data Source
//
// Accident records are published by the Police of the Czech Republic and
// mirrored at https://ehw.fit.vutbr.cz/izv/ as ZIP archives. Each archive
// covers either a whole year ("datagis2019.zip") or the year to date up to a
// month ("datagis-09-2021.zip") and holds one CSV per region, named by the
// region's numeric identifier ("00.csv" is Praha, "19.csv" is Karlovarský).
//
// # CSV Conventions
//
// Files are semicolon-delimited, Windows-1250 encoded and carry no header
// row. Each row has exactly 64 fields in the order given by [Schema]:
//
//	p1          accident id
//	p2a         date, YYYY-MM-DD
//	p12         main cause code
//	p13a..p13c  killed, seriously injured, lightly injured
//	p21         road type
//	d, e        S-JTSK (EPSG:5514) coordinates, decimal comma
//	p5a         locality (inside or outside a municipality)
//
// Decimal commas are rewritten to points before parsing.
//
// Unknown values:
//
//	Empty cells, "XX", and the letter markers "A:" through "G:" are the
//	source's ways of saying "unknown". All of them become [Missing] ("-1")
//	before type coercion, so a numeric column holds -1 for unknown.
//
// # Record Sets
//
// Parsed data is stored column-oriented in a [RecordSet]: one homogeneous
// slice per column, all of equal length, plus a synthetic "region" column
// holding the region code of the file each row came from. Record sets of
// several regions are merged by concatenating same-named columns.
package domain
