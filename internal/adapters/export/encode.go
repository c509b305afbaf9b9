package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"

	"github.com/xuri/excelize/v2"

	"github.com/okian/scicalc/internal/domain/calc"
)

// Column headers shared by the tabular formats.
var tableHeader = []string{"Parameter", "Value", "Timestamp", "Application", "Watermark"} //nolint:gochecknoglobals // fixed header

const (
	resultsSheet  = "Results"
	metadataSheet = "Metadata"
)

type envelope struct {
	Metadata Metadata     `json:"metadata"`
	Results  calc.Results `json:"results"`
}

func encodeJSON(meta Metadata, results calc.Results) ([]byte, error) {
	return json.MarshalIndent(envelope{Metadata: meta, Results: results}, "", "  ")
}

// tableRows returns one row per result, metadata repeated on every row.
func tableRows(meta Metadata, results calc.Results) [][]string {
	rows := make([][]string, 0, results.Len())
	results.Range(func(key string, v any) bool {
		rows = append(rows, []string{key, calc.ValueString(v), meta.ExportTimestamp, meta.Application, meta.Watermark})
		return true
	})
	return rows
}

func encodeCSV(meta Metadata, results calc.Results) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(tableHeader); err != nil {
		return nil, err
	}
	if err := w.WriteAll(tableRows(meta, results)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeXLSX(meta Metadata, results calc.Results) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(resultsSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	if err := writeRows(f, resultsSheet, append([][]string{tableHeader}, tableRows(meta, results)...)); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(metadataSheet); err != nil {
		return nil, err
	}
	metaRows := [][]string{
		{"Field", "Value"},
		{"application", meta.Application},
		{"version", meta.Version},
		{"author", meta.Author},
		{"watermark", meta.Watermark},
		{"export_timestamp", meta.ExportTimestamp},
	}
	if err := writeRows(f, metadataSheet, metaRows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]string) error {
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}
