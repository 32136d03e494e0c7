package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"github.com/xuri/excelize/v2"
)

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxParser) Parse(r io.Reader, opt Options) (*dataset.Table, error) {
	return ReadXLSX(r, opt.SheetName, opt.SheetIndex)
}

// ReadXLSX loads one worksheet as a Table. sheetName wins over sheetIndex (1-based);
// with neither set the first sheet is used.
func ReadXLSX(r io.Reader, sheetName string, sheetIndex int) (*dataset.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &dataset.Table{}, nil
	}
	sheet, err := pickSheet(sheets, sheetName, sheetIndex)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return FromGrid(rows), nil
}

func pickSheet(sheets []string, name string, index int) (string, error) {
	if name = strings.TrimSpace(name); name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, name) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet %q not found (available: %s)", name, strings.Join(sheets, ", "))
	}
	if index <= 0 {
		index = 1
	}
	if index > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", index, len(sheets))
	}
	return sheets[index-1], nil
}

// FromGrid converts spreadsheet rows into a Table: the first row becomes the
// headers and fully blank rows are dropped.
func FromGrid(grid [][]string) *dataset.Table {
	t := &dataset.Table{}
	for _, row := range grid {
		if blankRow(row) {
			continue
		}
		if t.Headers == nil {
			h := make([]string, len(row))
			for i, c := range row {
				h[i] = strings.TrimSpace(c)
			}
			t.Headers = h
			continue
		}
		t.Rows = append(t.Rows, append([]string(nil), row...))
	}
	return t
}

// FromValues is FromGrid for loosely typed cells such as decoded JSON arrays.
// nil cells become empty strings.
func FromValues(grid [][]any) *dataset.Table {
	rows := make([][]string, len(grid))
	for i, row := range grid {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			if v != nil {
				rows[i][j] = fmt.Sprint(v)
			}
		}
	}
	return FromGrid(rows)
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
