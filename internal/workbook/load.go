// Package workbook loads a .twb workbook into typed descriptors.
//
// The document is parsed once with etree and then walked into plain Go
// structs (Datasource, Column, Worksheet, ...). Missing optional attributes
// fall back to zero values; malformed sub-elements are skipped rather than
// failing the load.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Load reads and parses the workbook at path.
//
// A missing file yields an error wrapping ErrNotFound; a document that is not
// well-formed XML yields an error wrapping ErrMalformed and the parser
// diagnostic.
func Load(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat workbook %s: %w", path, err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
	}

	wb, err := fromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	wb.Path = path
	return wb, nil
}

// Parse reads a workbook from r.
func Parse(r io.Reader) (*Workbook, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return fromDocument(doc)
}

// ParseString is Parse over an in-memory document.
func ParseString(s string) (*Workbook, error) {
	return Parse(strings.NewReader(s))
}

func fromDocument(doc *etree.Document) (*Workbook, error) {
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	if n := len(doc.ChildElements()); n != 1 {
		return nil, fmt.Errorf("%w: %d top-level elements, want 1", ErrMalformed, n)
	}

	wb := &Workbook{
		Version: root.SelectAttrValue("version", ""),
	}

	for _, el := range root.FindElements(".//datasource") {
		wb.Datasources = append(wb.Datasources, readDatasource(el))
	}
	wb.DependencyListings = readDependencyListings(root)
	for _, el := range root.FindElements(".//worksheet") {
		wb.Worksheets = append(wb.Worksheets, readWorksheet(el))
	}
	for _, el := range root.FindElements(".//dashboard") {
		wb.Dashboards = append(wb.Dashboards, readDashboard(el))
	}

	return wb, nil
}

func readDatasource(el *etree.Element) Datasource {
	ds := Datasource{
		Name:          el.SelectAttrValue("name", ""),
		Caption:       el.SelectAttrValue("caption", ""),
		Version:       el.SelectAttrValue("version", ""),
		Inline:        el.SelectAttrValue("inline", "false") == "true",
		HasConnection: el.SelectAttrValue("hasconnection", "true") == "true",
		Columns:       readColumns(el),
	}
	for _, rel := range el.FindElements(".//relation[@type='table']") {
		ds.Relations = append(ds.Relations, Relation{
			Name:  rel.SelectAttrValue("name", ""),
			Table: rel.SelectAttrValue("table", ""),
		})
	}
	return ds
}

func readColumns(el *etree.Element) []Column {
	var cols []Column
	for _, c := range el.FindElements(".//column") {
		cols = append(cols, readColumn(c))
	}
	return cols
}

func readColumn(el *etree.Element) Column {
	col := Column{
		Name:    el.SelectAttrValue("name", ""),
		Caption: el.SelectAttrValue("caption", ""),
	}
	if attr := el.SelectAttr("param-domain-type"); attr != nil {
		col.HasParamDomain = true
		col.ParamDomainType = attr.Value
	}
	if calc := el.FindElement(".//calculation"); calc != nil {
		col.Calculation = &Calculation{
			Class:   calc.SelectAttrValue("class", ""),
			Formula: calc.SelectAttrValue("formula", ""),
		}
	}
	return col
}

func readDependencyListings(el *etree.Element) []DependencyListing {
	var listings []DependencyListing
	for _, deps := range el.FindElements(".//datasource-dependencies") {
		listing := DependencyListing{
			Datasource: deps.SelectAttrValue("datasource", ""),
			Columns:    readColumns(deps),
		}
		for _, inst := range deps.FindElements(".//column-instance") {
			listing.Instances = append(listing.Instances, ColumnInstance{
				Column:     inst.SelectAttrValue("column", ""),
				Name:       inst.SelectAttrValue("name", ""),
				Derivation: inst.SelectAttrValue("derivation", ""),
			})
		}
		listings = append(listings, listing)
	}
	return listings
}

func readEncodings(el *etree.Element) []Encoding {
	var encs []Encoding
	for _, enc := range el.FindElements(".//encoding[@attr]") {
		encs = append(encs, Encoding{
			Attr:  enc.SelectAttrValue("attr", ""),
			Field: enc.SelectAttrValue("field", ""),
		})
	}
	return encs
}

func readWorksheet(el *etree.Element) Worksheet {
	ws := Worksheet{
		Name:         el.SelectAttrValue("name", ""),
		HasData:      el.FindElement(".//view/datasourcedata") != nil,
		Dependencies: readDependencyListings(el),
		Encodings:    readEncodings(el),
	}
	for _, pane := range el.FindElements(".//panes/pane") {
		for _, shelf := range []string{".//view/cols/column", ".//view/rows/column"} {
			for _, col := range pane.FindElements(shelf) {
				ws.ShelfColumns = append(ws.ShelfColumns, col.Text())
			}
		}
	}
	return ws
}

func readDashboard(el *etree.Element) Dashboard {
	return Dashboard{
		Name:            el.SelectAttrValue("name", ""),
		SortZoneEnabled: el.SelectAttrValue("enable-sort-zone-taborder", "false") == "true",
		ZoneCount:       len(el.FindElements(".//zone")),
		Encodings:       readEncodings(el),
	}
}

// defaultName returns name, or "<kind> <index>" when name is empty.
func defaultName(name, kind string, index int) string {
	if name != "" {
		return name
	}
	return kind + " " + strconv.Itoa(index)
}
