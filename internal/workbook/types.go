package workbook

// ParametersDatasource is the name of the datasource that holds workbook
// parameters instead of data columns.
const ParametersDatasource = "Parameters"

// Workbook is the typed view of a parsed .twb document.
//
// Every optional attribute maps to a plain field whose zero value is the
// documented default; callers never touch the underlying XML tree.
type Workbook struct {
	// Path is the file the workbook was loaded from (empty for in-memory parses).
	Path string
	// Version is the workbook/@version attribute.
	Version string
	// Datasources are all datasource elements in document order, including
	// the datasource references nested in worksheet views.
	Datasources []Datasource
	// DependencyListings are all datasource-dependencies elements in document order.
	DependencyListings []DependencyListing
	// Worksheets are all worksheet elements in document order.
	Worksheets []Worksheet
	// Dashboards are all dashboard elements in document order.
	Dashboards []Dashboard
}

// Datasource describes a datasource element.
type Datasource struct {
	Name          string
	Caption       string
	Version       string
	Inline        bool // inline="true"
	HasConnection bool // hasconnection, default true
	Columns       []Column
	Relations     []Relation // relation[@type='table'] descendants
}

// IsParameters reports whether the datasource is the parameters-only collection.
func (d Datasource) IsParameters() bool {
	return d.Name == ParametersDatasource
}

// Column describes a column-definition element.
type Column struct {
	// Name is the identifier attribute, normally bracketed: [Sales].
	Name string
	// Caption is the user-facing caption; empty when absent.
	Caption string
	// ParamDomainType is the param-domain-type attribute.
	ParamDomainType string
	// HasParamDomain is true when param-domain-type is present, even if empty.
	HasParamDomain bool
	// Calculation is the nested calculation element, nil for plain columns.
	Calculation *Calculation
}

// Formula returns the calculation formula, or "" for plain columns.
func (c Column) Formula() string {
	if c.Calculation == nil {
		return ""
	}
	return c.Calculation.Formula
}

// Calculation describes a calculation element.
type Calculation struct {
	Class   string
	Formula string
}

// Relation describes a relation element of type table.
type Relation struct {
	Name  string
	Table string
}

// DependencyListing describes a datasource-dependencies element.
type DependencyListing struct {
	// Datasource is the datasource attribute scoping the listing; may be empty.
	Datasource string
	Columns    []Column
	Instances  []ColumnInstance
}

// ColumnInstance describes a column-instance element.
type ColumnInstance struct {
	Column     string
	Name       string
	Derivation string
}

// Encoding describes a visual-encoding element carrying an attr attribute.
type Encoding struct {
	Attr  string
	Field string
}

// Worksheet describes a worksheet element.
type Worksheet struct {
	Name         string
	HasData      bool // view/datasourcedata present
	Dependencies []DependencyListing
	Encodings    []Encoding
	// ShelfColumns holds the text of pane view cols/rows column elements.
	ShelfColumns []string
}

// Dashboard describes a dashboard element.
type Dashboard struct {
	Name            string
	SortZoneEnabled bool
	ZoneCount       int
	Encodings       []Encoding
}
