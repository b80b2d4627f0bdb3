package lineage

import (
	"cmp"
	"slices"
	"strings"

	"github.com/twbdoc/twbdoc/internal/fields"
	"github.com/twbdoc/twbdoc/internal/workbook"
)

// WhereUsedSeparator joins consumer names in a dependency record.
const WhereUsedSeparator = " | "

// CalculatedField is a column carrying a formula.
type CalculatedField struct {
	Key         fields.Key
	DisplayName string
	Formula     string
}

// DependencyRecord is the published view of one source field.
type DependencyRecord struct {
	FieldName string   `json:"field_name" yaml:"field_name"`
	WhereUsed string   `json:"where_used" yaml:"where_used"`
	UsedTimes int      `json:"used_times" yaml:"used_times"`
	Consumers []string `json:"-" yaml:"-"`
}

// DependencyMap maps a source display name to the set of calculated fields
// consuming it. Sources keep first-seen order.
type DependencyMap struct {
	order     []string
	consumers map[string]map[string]struct{}
}

// CalculatedFields collects every column with a formula, datasource columns
// first, then dependency listing columns. Repeated keys are kept once.
func CalculatedFields(wb *workbook.Workbook) []CalculatedField {
	var out []CalculatedField
	seen := make(map[fields.Key]struct{})

	collect := func(cols []workbook.Column) {
		for _, col := range cols {
			formula := col.Formula()
			if formula == "" || col.Name == "" {
				continue
			}
			key := fields.Key(col.Name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, CalculatedField{
				Key:         key,
				DisplayName: fields.DisplayName(key, col.Caption),
				Formula:     formula,
			})
		}
	}

	for _, ds := range wb.Datasources {
		collect(ds.Columns)
	}
	for _, listing := range wb.DependencyListings {
		collect(listing.Columns)
	}
	return out
}

// AggregateDependencies records, for every field referenced by a calculated
// field's formula, that the calculated field consumes it.
func AggregateDependencies(calcs []CalculatedField, idx Resolver) *DependencyMap {
	m := &DependencyMap{consumers: make(map[string]map[string]struct{})}
	for _, calc := range calcs {
		for _, source := range References(calc.Formula, idx) {
			m.add(source, calc.DisplayName)
		}
	}
	return m
}

func (m *DependencyMap) add(source, consumer string) {
	set, ok := m.consumers[source]
	if !ok {
		set = make(map[string]struct{})
		m.consumers[source] = set
		m.order = append(m.order, source)
	}
	set[consumer] = struct{}{}
}

// Sources returns the source names in first-seen order.
func (m *DependencyMap) Sources() []string {
	return slices.Clone(m.order)
}

// Consumers returns the sorted consumers of source.
func (m *DependencyMap) Consumers(source string) []string {
	return sortedKeys(m.consumers[source])
}

// Len returns the number of sources.
func (m *DependencyMap) Len() int {
	return len(m.order)
}

// Records publishes the map sorted by descending consumer count, then name.
func (m *DependencyMap) Records() []DependencyRecord {
	out := make([]DependencyRecord, 0, m.Len())
	for _, source := range m.Sources() {
		consumers := m.Consumers(source)
		if len(consumers) == 0 {
			continue
		}
		out = append(out, DependencyRecord{
			FieldName: source,
			WhereUsed: strings.Join(consumers, WhereUsedSeparator),
			UsedTimes: len(consumers),
			Consumers: consumers,
		})
	}

	slices.SortFunc(out, func(a, b DependencyRecord) int {
		if c := cmp.Compare(b.UsedTimes, a.UsedTimes); c != 0 {
			return c
		}
		return strings.Compare(a.FieldName, b.FieldName)
	})
	return out
}
