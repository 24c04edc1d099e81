package csvparser

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// ParseRows parses a CSV from an io.Reader into generic rows keyed by
// trimmed header name. Column-to-schema resolution is the normalizer's job,
// so no column is special here.
//
// maxRows limits how many data rows are kept (excluding header); zero or
// negative disables the limit. When well-formed rows remain beyond the
// limit, truncated is set so the caller can tell the operator instead of
// dropping them silently.
func ParseRows(r io.Reader, maxRows int) (columns []string, rows []map[string]string, truncated bool, err error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, false, err
	}
	if len(headers) == 0 {
		return nil, nil, false, errors.New("csv header row is empty")
	}

	columns = make([]string, 0, len(headers))
	for _, h := range headers {
		columns = append(columns, strings.TrimSpace(h))
	}

	rows = make([]map[string]string, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, false, err
		}
		if len(record) != len(columns) {
			// skip malformed row
			continue
		}

		if maxRows > 0 && len(rows) >= maxRows {
			truncated = true
			break
		}

		row := make(map[string]string, len(columns))
		for i, key := range columns {
			if key == "" {
				continue
			}
			row[key] = strings.TrimSpace(record[i])
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, nil, false, errors.New("csv must contain at least one data row")
	}

	return columns, rows, truncated, nil
}
