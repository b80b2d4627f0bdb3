package fields

import (
	"github.com/twbdoc/twbdoc/internal/workbook"
)

// Index maps field keys to their definitions.
//
// Ordinary fields come from two passes: the column metadata of every
// datasource except the parameters collection, then the column definitions
// of every dependency listing. The first definition seen for a key wins.
// Columns of the parameters collection live in a separate namespace.
type Index struct {
	defs  map[Key]Definition
	order []Key

	// first definition seen per display name, for type lookups by name
	byName map[string]Key

	params      map[Key]Definition
	paramOrder  []Key
	paramByName map[string]Key
}

// BuildIndex indexes the field definitions of wb.
func BuildIndex(wb *workbook.Workbook) *Index {
	idx := &Index{
		defs:        make(map[Key]Definition),
		byName:      make(map[string]Key),
		params:      make(map[Key]Definition),
		paramByName: make(map[string]Key),
	}

	for _, ds := range wb.Datasources {
		if ds.IsParameters() {
			for _, col := range ds.Columns {
				idx.addParameter(col)
			}
			continue
		}
		for _, col := range ds.Columns {
			idx.add(col, false)
		}
	}

	for _, listing := range wb.DependencyListings {
		inParams := listing.Datasource == workbook.ParametersDatasource
		for _, col := range listing.Columns {
			idx.add(col, inParams)
		}
	}

	return idx
}

func (idx *Index) add(col workbook.Column, inParameters bool) {
	key := Key(col.Name)
	if !key.IsBracketed() || key == ParametersKey {
		return
	}
	if _, exists := idx.defs[key]; exists {
		return
	}

	def := Definition{
		Key:         key,
		DisplayName: DisplayName(key, col.Caption),
		Type:        Classify(col, inParameters),
	}
	idx.defs[key] = def
	idx.order = append(idx.order, key)
	if _, exists := idx.byName[def.DisplayName]; !exists {
		idx.byName[def.DisplayName] = key
	}
}

func (idx *Index) addParameter(col workbook.Column) {
	key := Key(col.Name)
	if !key.IsBracketed() || key == ParametersKey {
		return
	}
	if _, exists := idx.params[key]; exists {
		return
	}

	def := Definition{
		Key:         key,
		DisplayName: DisplayName(key, col.Caption),
		Type:        Parameter,
	}
	idx.params[key] = def
	idx.paramOrder = append(idx.paramOrder, key)
	for _, name := range []string{def.DisplayName, key.Stripped()} {
		if _, exists := idx.paramByName[name]; !exists {
			idx.paramByName[name] = key
		}
	}
}

// Lookup returns the ordinary definition for key.
func (idx *Index) Lookup(key Key) (Definition, bool) {
	def, ok := idx.defs[key]
	return def, ok
}

// DisplayName resolves key to its display name, falling back to the
// stripped key when the field is not defined.
func (idx *Index) DisplayName(key Key) string {
	if def, ok := idx.defs[key]; ok {
		return def.DisplayName
	}
	return key.Stripped()
}

// TypeOf resolves a display name to a field type. Ordinary fields are
// consulted before the parameter namespace; parameters also resolve by
// their bare key name, as referenced from formulas.
func (idx *Index) TypeOf(displayName string) (Type, bool) {
	if key, ok := idx.byName[displayName]; ok {
		return idx.defs[key].Type, true
	}
	if key, ok := idx.paramByName[displayName]; ok {
		return idx.params[key].Type, true
	}
	return RawVariable, false
}

// Definitions returns the ordinary definitions in insertion order.
func (idx *Index) Definitions() []Definition {
	out := make([]Definition, 0, len(idx.order))
	for _, key := range idx.order {
		out = append(out, idx.defs[key])
	}
	return out
}

// Parameters returns the parameter namespace in insertion order.
func (idx *Index) Parameters() []Definition {
	out := make([]Definition, 0, len(idx.paramOrder))
	for _, key := range idx.paramOrder {
		out = append(out, idx.params[key])
	}
	return out
}

// Len returns the number of ordinary definitions.
func (idx *Index) Len() int {
	return len(idx.order)
}
