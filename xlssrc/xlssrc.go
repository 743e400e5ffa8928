// Package xlssrc adapts a legacy binary XLS workbook (BIFF over an
// OLE2 container), read with github.com/extrame/xls, into
// ingest.Table events.
package xlssrc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/extrame/xls"

	"arrowtools/ingest"
)

// HeaderRowRange names an inclusive, 1-based range of leading sheet
// rows that together supply column names: a later row's non-blank
// cell overrides an earlier one at the same position, matching a
// merged multi-row header. The zero value means headerless: every row
// is data, and columns are named by Excel-style position (A, B, C, ...).
type HeaderRowRange struct {
	Start, End int
}

func (r HeaderRowRange) empty() bool {
	return r.Start <= 0 || r.End < r.Start
}

// ParseHeaderRowRange parses a "--header-rows" flag value: "A-B" for an
// inclusive 1-based row range, a bare "N" as shorthand for "N-N", or
// "0"/"" for headerless.
func ParseHeaderRowRange(s string) (HeaderRowRange, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return HeaderRowRange{}, nil
	}
	if i := strings.IndexByte(s, '-'); i >= 0 {
		start, err := strconv.Atoi(s[:i])
		if err != nil {
			return HeaderRowRange{}, fmt.Errorf("invalid header row range %q: %w", s, err)
		}
		end, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return HeaderRowRange{}, fmt.Errorf("invalid header row range %q: %w", s, err)
		}
		if start < 1 || end < start {
			return HeaderRowRange{}, fmt.Errorf("invalid header row range %q: end must be >= start >= 1", s)
		}
		return HeaderRowRange{Start: start, End: end}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return HeaderRowRange{}, fmt.Errorf("invalid header row range %q: %w", s, err)
	}
	if n < 1 {
		return HeaderRowRange{}, fmt.Errorf("invalid header row range %q: must be >= 1", s)
	}
	return HeaderRowRange{Start: n, End: n}, nil
}

// Options controls how the first rows of a sheet are interpreted.
type Options struct {
	// HeaderRows selects which leading rows supply column names.
	HeaderRows HeaderRowRange
	// Sheet selects a sheet by 0-based index; the workbook's first
	// sheet is used when Sheet is negative.
	Sheet int
	// HeaderTable, if non-nil, receives one row per header row (each
	// cell addressed by its 0-based column index) so the header block
	// itself can be written out as a separate Arrow IPC file.
	HeaderTable *ingest.Table
}

// Parse reads path and feeds every data row of the selected sheet into
// tbl. An unreadable or corrupt container is reported through
// tbl.Events().InvalidXLS rather than returned as an error.
func Parse(path string, tbl *ingest.Table, opts Options) error {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		tbl.Events().InvalidXLS(err.Error())
		return nil
	}

	sheetIdx := opts.Sheet
	if sheetIdx < 0 {
		sheetIdx = 0
	}
	sheet := wb.GetSheet(sheetIdx)
	if sheet == nil {
		tbl.Events().InvalidXLS("workbook has no sheet at the requested index")
		return nil
	}

	headerNames := map[int]string{}
	maxRow := int(sheet.MaxRow)
	for r := 0; r <= maxRow; r++ {
		row := sheet.Row(r)
		if row == nil {
			continue
		}
		width := row.LastCol()
		rowNum := r + 1

		if !opts.HeaderRows.empty() && rowNum < opts.HeaderRows.Start {
			continue // rows ahead of the header block are dropped entirely
		}
		if !opts.HeaderRows.empty() && rowNum <= opts.HeaderRows.End {
			cols := make([]string, width)
			for c := row.FirstCol(); c < width; c++ {
				name := strings.TrimSpace(row.Col(c))
				if name != "" {
					headerNames[c] = name
				}
				cols[c] = row.Col(c)
			}
			if opts.HeaderTable != nil {
				pushHeaderRow(opts.HeaderTable, cols)
			}
			continue
		}

		action := tbl.BeginRow()
		if action == ingest.Stop {
			break
		}
		if action == ingest.Continue {
			for c := row.FirstCol(); c < width; c++ {
				v := cellValue(row.Col(c))
				tbl.Cell(columnRef(c, headerNames), v)
			}
		}
		tbl.EndRow()
	}
	return nil
}

// pushHeaderRow feeds one captured header row's display strings into a
// table by column index, for the optional --header-rows-file output.
func pushHeaderRow(ht *ingest.Table, cols []string) {
	action := ht.BeginRow()
	if action == ingest.Stop {
		return
	}
	if action == ingest.Continue {
		for i, c := range cols {
			ht.Cell(ingest.ByIndex(i), ingest.StringValue([]byte(c)))
		}
	}
	ht.EndRow()
}

func columnRef(i int, headerNames map[int]string) ingest.ColumnRef {
	if name, ok := headerNames[i]; ok {
		return ingest.ByName(name)
	}
	return ingest.ByIndex(i)
}

// cellValue renders one BIFF cell's text into a typed Value. The xls
// library surfaces every cell as its already-formatted display string,
// so (unlike xlsxsrc) there is no access to the underlying number
// format id; a plain numeric-looking string is treated as a Number,
// never a Timestamp, matching how the original CJWorkbench tool
// handled the legacy format (spec §12).
func cellValue(raw string) ingest.Value {
	raw = strings.TrimRight(raw, "\x00")
	if raw == "" {
		return ingest.NullValue()
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ingest.Int64Value(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return ingest.Float64Value(f)
	}
	switch strings.ToUpper(raw) {
	case "TRUE":
		return ingest.BoolValue(true)
	case "FALSE":
		return ingest.BoolValue(false)
	}
	return ingest.StringValue([]byte(raw))
}
