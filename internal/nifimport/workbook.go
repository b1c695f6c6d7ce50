// Package nifimport reads NIF → company spreadsheets used to seed the cache.
package nifimport

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"despesify/internal/domain"
	"despesify/internal/taxid"
)

// RowError describes a skipped spreadsheet row. Row is 1-based as shown in
// spreadsheet applications.
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Result is the outcome of reading a workbook.
type Result struct {
	Entries []domain.NIFCacheEntry
	Skipped []RowError
}

// ReadWorkbook reads the first sheet of an .xlsx workbook. The first row is a
// header; columns are A=NIF, B=company name, C=optional category id. NIFs are
// normalized and names cleaned; a NIF repeated further down replaces the
// earlier row.
func ReadWorkbook(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	res := &Result{}
	index := make(map[string]int)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		rowNum := i + 1

		rawNIF := strings.TrimSpace(cellVal(row, 0))
		if rawNIF == "" && strings.TrimSpace(cellVal(row, 1)) == "" {
			continue
		}

		nif, nerr := taxid.Normalize(rawNIF)
		if nerr != nil {
			res.Skipped = append(res.Skipped, RowError{Row: rowNum, Reason: fmt.Sprintf("invalid NIF %q", rawNIF)})
			continue
		}
		name := taxid.CleanCompanyName(cellVal(row, 1))
		if name == "" {
			res.Skipped = append(res.Skipped, RowError{Row: rowNum, Reason: "company name is empty"})
			continue
		}

		entry := domain.NIFCacheEntry{NIF: nif, CompanyName: name}
		if raw := strings.TrimSpace(cellVal(row, 2)); raw != "" {
			id, perr := strconv.ParseInt(raw, 10, 64)
			if perr != nil || id <= 0 {
				res.Skipped = append(res.Skipped, RowError{Row: rowNum, Reason: fmt.Sprintf("invalid category id %q", raw)})
				continue
			}
			entry.CategoryID = &id
		}

		if at, ok := index[nif]; ok {
			res.Entries[at] = entry
			continue
		}
		index[nif] = len(res.Entries)
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}

func cellVal(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
