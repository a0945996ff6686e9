package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ledgerlens/ledgerlens/internal/bank"
)

const dataSheet = "Data"

const maxColumnWidth = 50

// EncodeXLSX renders a query result as a styled workbook with an
// optional chart next to the data. Charts need a label column and at
// least one value column, so single-column results stay chart-free.
func EncodeXLSX(result bank.QueryResult, chartType string) ([]byte, error) {
	if len(result.Columns) == 0 {
		return nil, fmt.Errorf("result has no columns")
	}

	workbook := excelize.NewFile()
	defer func() { _ = workbook.Close() }()

	if err := workbook.SetSheetName("Sheet1", dataSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := workbook.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"366092"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	header := make([]any, len(result.Columns))
	widths := make([]int, len(result.Columns))
	for i, column := range result.Columns {
		header[i] = column
		widths[i] = len(column)
	}
	if err := workbook.SetSheetRow(dataSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}

	lastHeaderCell, err := excelize.CoordinatesToCellName(len(result.Columns), 1)
	if err != nil {
		return nil, fmt.Errorf("resolve header range: %w", err)
	}
	if err := workbook.SetCellStyle(dataSheet, "A1", lastHeaderCell, headerStyle); err != nil {
		return nil, fmt.Errorf("style header row: %w", err)
	}

	for rowIndex, row := range result.Rows {
		cell, err := excelize.CoordinatesToCellName(1, rowIndex+2)
		if err != nil {
			return nil, fmt.Errorf("resolve row cell: %w", err)
		}
		values := make([]any, len(row))
		for colIndex, value := range row {
			values[colIndex] = value
			if colIndex < len(widths) {
				if width := len(fmt.Sprint(value)); width > widths[colIndex] {
					widths[colIndex] = width
				}
			}
		}
		if err := workbook.SetSheetRow(dataSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", rowIndex+1, err)
		}
	}

	for i, width := range widths {
		column, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("resolve column name: %w", err)
		}
		target := float64(width + 2)
		if target > maxColumnWidth {
			target = maxColumnWidth
		}
		if err := workbook.SetColWidth(dataSheet, column, column, target); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	if len(result.Columns) >= 2 && len(result.Rows) > 0 {
		if err := addChart(workbook, chartType, len(result.Rows)); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := workbook.Write(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func addChart(workbook *excelize.File, chartType string, rowCount int) error {
	kind := excelize.Col
	switch chartType {
	case "pie":
		kind = excelize.Pie
	case "line":
		kind = excelize.Line
	}

	lastRow := rowCount + 1
	chart := &excelize.Chart{
		Type: kind,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$B$1", dataSheet),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", dataSheet, lastRow),
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", dataSheet, lastRow),
			},
		},
		Title: []excelize.RichTextRun{{Text: "Data analysis"}},
	}
	if err := workbook.AddChart(dataSheet, "E2", chart); err != nil {
		return fmt.Errorf("add chart: %w", err)
	}
	return nil
}
