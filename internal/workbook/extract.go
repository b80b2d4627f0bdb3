package workbook

import (
	"strings"
)

// DatasourceInfo is one row of the datasource listing.
type DatasourceInfo struct {
	Index         int    `json:"index" yaml:"index"`
	Caption       string `json:"caption" yaml:"caption"`
	Name          string `json:"name" yaml:"name"`
	Version       string `json:"version" yaml:"version"`
	Inline        bool   `json:"inline" yaml:"inline"`
	HasConnection bool   `json:"has_connection" yaml:"has_connection"`
}

// TableInfo is one row of the datasource table listing.
type TableInfo struct {
	Index             int    `json:"index" yaml:"index"`
	TableName         string `json:"table_name" yaml:"table_name"`
	DatasourceCaption string `json:"datasource_caption" yaml:"datasource_caption"`
	RawTable          string `json:"raw_table_attr" yaml:"raw_table_attr"`
}

// WorksheetInfo is one row of the worksheet listing.
type WorksheetInfo struct {
	Index   int    `json:"index" yaml:"index"`
	Name    string `json:"name" yaml:"name"`
	HasData bool   `json:"has_data" yaml:"has_data"`
}

// DashboardInfo is one row of the dashboard listing.
type DashboardInfo struct {
	Index           int    `json:"index" yaml:"index"`
	Name            string `json:"name" yaml:"name"`
	SortZoneEnabled bool   `json:"sort_zone_enabled" yaml:"sort_zone_enabled"`
	ZoneCount       int    `json:"zone_count" yaml:"zone_count"`
}

// ExtractDatasources lists the workbook's datasources, skipping the
// parameters collection and collapsing entries that share a caption.
// Indexes are 1-based and contiguous after de-duplication.
func ExtractDatasources(wb *Workbook) []DatasourceInfo {
	var result []DatasourceInfo
	seen := make(map[string]bool)

	for i, ds := range wb.Datasources {
		if strings.EqualFold(ds.Name, ParametersDatasource) {
			continue
		}
		caption := defaultName(ds.Caption, "Datasource", i+1)
		if seen[caption] {
			continue
		}
		seen[caption] = true

		result = append(result, DatasourceInfo{
			Index:         len(result) + 1,
			Caption:       caption,
			Name:          ds.Name,
			Version:       ds.Version,
			Inline:        ds.Inline,
			HasConnection: ds.HasConnection,
		})
	}
	return result
}

// genericSheetNames are default spreadsheet tab names that carry no meaning
// as table names.
var genericSheetNames = map[string]bool{
	"sheet1": true, "sheet2": true, "sheet3": true, "sheet4": true, "sheet5": true,
	"sheet 1": true, "sheet 2": true, "sheet 3": true, "sheet 4": true, "sheet 5": true,
}

// ExtractTables lists the physical tables behind each non-parameter
// datasource, unique per (table, datasource caption).
func ExtractTables(wb *Workbook) []TableInfo {
	type tableKey struct{ table, caption string }

	var result []TableInfo
	seen := make(map[tableKey]bool)

	for _, ds := range wb.Datasources {
		if strings.EqualFold(ds.Name, ParametersDatasource) {
			continue
		}
		for _, rel := range ds.Relations {
			if rel.Name == "" || isInvalidTableName(rel.Name) {
				continue
			}
			name := strings.TrimSuffix(rel.Name, ".csv")

			key := tableKey{name, ds.Caption}
			if seen[key] {
				continue
			}
			seen[key] = true

			result = append(result, TableInfo{
				Index:             len(result) + 1,
				TableName:         name,
				DatasourceCaption: ds.Caption,
				RawTable:          rel.Table,
			})
		}
	}
	return result
}

func isInvalidTableName(name string) bool {
	if genericSheetNames[strings.ToLower(name)] {
		return true
	}
	return len(strings.TrimSpace(name)) < 2
}

// ExtractWorksheets lists the workbook's worksheets.
func ExtractWorksheets(wb *Workbook) []WorksheetInfo {
	result := make([]WorksheetInfo, 0, len(wb.Worksheets))
	for i, ws := range wb.Worksheets {
		result = append(result, WorksheetInfo{
			Index:   i + 1,
			Name:    defaultName(ws.Name, "Worksheet", i+1),
			HasData: ws.HasData,
		})
	}
	return result
}

// ExtractDashboards lists the workbook's dashboards.
func ExtractDashboards(wb *Workbook) []DashboardInfo {
	result := make([]DashboardInfo, 0, len(wb.Dashboards))
	for i, db := range wb.Dashboards {
		result = append(result, DashboardInfo{
			Index:           i + 1,
			Name:            defaultName(db.Name, "Dashboard", i+1),
			SortZoneEnabled: db.SortZoneEnabled,
			ZoneCount:       db.ZoneCount,
		})
	}
	return result
}
