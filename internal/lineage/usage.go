package lineage

import (
	"cmp"
	"slices"
	"strings"

	"github.com/twbdoc/twbdoc/internal/fields"
	"github.com/twbdoc/twbdoc/internal/workbook"
)

// UsageRecord is the number of views placing a field.
type UsageRecord struct {
	FieldName string      `json:"field_name" yaml:"field_name"`
	FieldType fields.Type `json:"field_type" yaml:"field_type"`
	UsedTimes int         `json:"used_times" yaml:"used_times"`
}

// UsageCounts maps a canonical field key to the number of worksheets and
// dashboards mentioning it.
type UsageCounts map[fields.Key]int

// CountUsage counts, per canonical key, the distinct worksheets and
// dashboards that mention the field. A view contributes at most one to a
// field however often it mentions it.
func CountUsage(wb *workbook.Workbook) UsageCounts {
	counts := make(UsageCounts)
	for i := range wb.Worksheets {
		for _, key := range WorksheetFields(&wb.Worksheets[i]) {
			counts[key]++
		}
	}
	for i := range wb.Dashboards {
		for _, key := range DashboardFields(&wb.Dashboards[i]) {
			counts[key]++
		}
	}
	return counts
}

// WorksheetFields returns the sorted canonical keys a worksheet mentions
// through column instances outside the parameters namespace, encodings, and
// row and column shelves.
func WorksheetFields(ws *workbook.Worksheet) []fields.Key {
	set := make(map[string]struct{})
	for _, listing := range ws.Dependencies {
		if listing.Datasource == workbook.ParametersDatasource {
			continue
		}
		for _, inst := range listing.Instances {
			addCanonical(set, inst.Column)
		}
	}
	for _, enc := range ws.Encodings {
		addCanonical(set, enc.Field)
	}
	for _, ref := range ws.ShelfColumns {
		addCanonical(set, ref)
	}
	return toKeys(set)
}

// DashboardFields returns the sorted canonical keys a dashboard's encodings
// mention.
func DashboardFields(db *workbook.Dashboard) []fields.Key {
	set := make(map[string]struct{})
	for _, enc := range db.Encodings {
		addCanonical(set, enc.Field)
	}
	return toKeys(set)
}

// UsageRecords publishes the counts of defined fields with a positive count,
// sorted by descending count, then name.
func UsageRecords(counts UsageCounts, idx *fields.Index) []UsageRecord {
	return usageRecords(idx.Definitions(), counts, true)
}

// FieldUsage returns a record for every defined field and parameter, zero
// counts included, in the same order as UsageRecords.
func FieldUsage(counts UsageCounts, idx *fields.Index) []UsageRecord {
	defs := idx.Definitions()
	for _, param := range idx.Parameters() {
		if _, ok := idx.Lookup(param.Key); !ok {
			defs = append(defs, param)
		}
	}
	return usageRecords(defs, counts, false)
}

func usageRecords(defs []fields.Definition, counts UsageCounts, usedOnly bool) []UsageRecord {
	out := make([]UsageRecord, 0, len(defs))
	for _, def := range defs {
		n := counts[def.Key]
		if usedOnly && n <= 0 {
			continue
		}
		out = append(out, UsageRecord{
			FieldName: def.DisplayName,
			FieldType: def.Type,
			UsedTimes: n,
		})
	}

	slices.SortFunc(out, func(a, b UsageRecord) int {
		if c := cmp.Compare(b.UsedTimes, a.UsedTimes); c != 0 {
			return c
		}
		return strings.Compare(a.FieldName, b.FieldName)
	})
	return out
}

func addCanonical(set map[string]struct{}, ref string) {
	if ref == "" {
		return
	}
	set[fields.Canonicalize(ref)] = struct{}{}
}

func toKeys(set map[string]struct{}) []fields.Key {
	names := sortedKeys(set)
	out := make([]fields.Key, len(names))
	for i, name := range names {
		out[i] = fields.Key(name)
	}
	return out
}
