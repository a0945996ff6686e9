package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/ledgerlens/ledgerlens/internal/bank"
)

type parquetRow struct {
	RowIndex    int64  `parquet:"row_index"`
	PayloadJSON string `parquet:"payload_json"`
}

// EncodeParquet writes each result row as a JSON payload keyed by
// column name. The shape survives arbitrary SELECT output without a
// per-query parquet schema.
func EncodeParquet(result bank.QueryResult) ([]byte, error) {
	if len(result.Columns) == 0 {
		return nil, fmt.Errorf("result has no columns")
	}

	rows := make([]parquetRow, 0, len(result.Rows))
	for rowIndex, row := range result.Rows {
		payload := make(map[string]any, len(result.Columns))
		for colIndex, column := range result.Columns {
			if colIndex < len(row) {
				payload[column] = row[colIndex]
			}
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal row %d: %w", rowIndex, err)
		}
		rows = append(rows, parquetRow{RowIndex: int64(rowIndex), PayloadJSON: string(raw)})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetRow](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
