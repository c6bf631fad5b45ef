// Package extract turns a financial statement PDF into page text and table
// rows through the Tensorlake document AI service.
package extract

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Extraction is the output handed to the transform stage.
type Extraction struct {
	FullText  string  `json:"full_text_with_tables"`
	Tables    []Table `json:"tables"`
	PageCount int     `json:"page_count"`
}

// Table is one parsed table. Rows use the header mapping of RowsToObjects.
type Table struct {
	Page  int                      `json:"page"`
	Index int                      `json:"table_index"`
	Rows  []map[string]interface{} `json:"rows"`
}

// TablesJSON returns the {"tables": [...]} document sent to the LLM.
func (e *Extraction) TablesJSON() (string, error) {
	tables := e.Tables
	if tables == nil {
		tables = []Table{}
	}
	b, err := json.MarshalIndent(map[string]interface{}{"tables": tables}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// RowsToObjects maps a table matrix onto row objects keyed by its header row.
// Year headers become year_2024 / year_2023 with numbers cleaned, "note"
// becomes note and anything else is the line item name.
func RowsToObjects(matrix [][]string) []map[string]interface{} {
	if len(matrix) < 2 {
		return nil
	}
	header := matrix[0]
	out := make([]map[string]interface{}, 0, len(matrix)-1)
	for _, row := range matrix[1:] {
		entry := make(map[string]interface{})
		for i := 0; i < len(header) && i < len(row); i++ {
			v := row[i]
			switch strings.ToLower(strings.TrimSpace(header[i])) {
			case "2024", "year_2024":
				entry["year_2024"] = cleanNumber(v)
			case "2023", "as restated 2023", "year_2023":
				entry["year_2023"] = cleanNumber(v)
			case "note":
				if v == "" {
					entry["note"] = nil
				} else {
					entry["note"] = cleanNumber(v)
				}
			default:
				entry["name"] = v
			}
		}
		out = append(out, entry)
	}
	return out
}

// cleanNumber returns an int for "1,234" style cells, the input otherwise.
func cleanNumber(v string) interface{} {
	n, err := strconv.Atoi(strings.ReplaceAll(v, ",", ""))
	if err != nil {
		return v
	}
	return n
}
