// Package lineage reconstructs field-level lineage from a parsed workbook.
//
// Calculated-field formulas are scanned for bracketed field references and
// [Parameters].[name] references. The references are aggregated into a
// source → consumers map, which feeds the dependency graph. Independently,
// worksheets and dashboards are scanned for the fields they place on
// shelves and encodings, producing a per-field context count.
//
// # Features
//
//   - Formula references: bracket tokens minus keywords and function artifacts
//   - Parameter references: [Parameters].[name] taken verbatim
//   - Dependencies: consumer sets per source field, published as sorted records
//   - Usage: distinct worksheets and dashboards that mention a field
//
// The two counts are distinct. A dependency record's UsedTimes is the number
// of calculated fields consuming the source; a usage record's UsedTimes is
// the number of views placing the field.
//
// # Basic Usage
//
//	wb, err := workbook.Load("sales.twb")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	idx := fields.BuildIndex(wb)
//
//	deps := lineage.AggregateDependencies(lineage.CalculatedFields(wb), idx)
//	for _, rec := range deps.Records() {
//	    fmt.Printf("%s -> %s (%d)\n", rec.FieldName, rec.WhereUsed, rec.UsedTimes)
//	}
package lineage
