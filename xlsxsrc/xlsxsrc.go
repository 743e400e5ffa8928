// Package xlsxsrc adapts an XLSX workbook, read with
// github.com/xuri/excelize/v2, into ingest.Table events.
package xlsxsrc

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

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
	// Sheet selects a sheet by name; "" uses the workbook's first
	// sheet.
	Sheet string
	// HeaderTable, if non-nil, receives one row per header row (each
	// cell addressed by its 0-based column index) so the header block
	// itself can be written out as a separate Arrow IPC file.
	HeaderTable *ingest.Table
}

// epochBase is the Gregorian date the workbook's serial day numbers
// count from: 1899-12-30 for the default 1900 system, 1904-01-01 when
// the workbook declares the 1904 date system (spec §13 resolves this
// open question by reading the workbook's own Date1904 property).
func epochBase(date1904 bool) time.Time {
	if date1904 {
		return time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
}

// Parse reads path and feeds every data row of the selected sheet into
// tbl. A workbook that cannot be opened or read is reported through
// tbl.Events().InvalidXLSX rather than returned as an error, consistent
// with the engine's never-abort-on-content contract; Parse always
// returns nil.
func Parse(path string, tbl *ingest.Table, opts Options) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		tbl.Events().InvalidXLSX(err.Error())
		return nil
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			tbl.Events().InvalidXLSX("workbook contains no sheets")
			return nil
		}
		sheet = sheets[0]
	}

	date1904 := workbookUses1904(f)

	rows, err := f.Rows(sheet)
	if err != nil {
		tbl.Events().InvalidXLSX(err.Error())
		return nil
	}
	defer rows.Close()

	headerNames := map[int]string{}
	rowIdx := 0
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			tbl.Events().InvalidXLSX(err.Error())
			return nil
		}
		rowNum := rowIdx + 1
		rowIdx++

		if !opts.HeaderRows.empty() && rowNum < opts.HeaderRows.Start {
			continue // rows ahead of the header block are dropped entirely
		}
		if !opts.HeaderRows.empty() && rowNum <= opts.HeaderRows.End {
			for i, c := range cols {
				if strings.TrimSpace(c) != "" {
					headerNames[i] = c
				}
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
			for i := range cols {
				axis, _ := excelize.CoordinatesToCellName(i+1, rowNum)
				v := cellValue(f, sheet, axis, date1904)
				tbl.Cell(columnRef(i, headerNames), v)
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

func workbookUses1904(f *excelize.File) bool {
	wb, err := f.GetWorkbookProps()
	if err != nil {
		return false
	}
	return wb.Date1904 != nil && *wb.Date1904
}

// cellValue renders one cell's typed value. excelize exposes a cell's
// raw string plus its style; a numeric cell whose number format looks
// like a date/time format is reinterpreted as a Timestamp using the
// workbook's epoch, matching how a spreadsheet reader is expected to
// distinguish "a number" from "a date that happens to be stored as a
// serial number" (spec §4.5).
func cellValue(f *excelize.File, sheet, axis string, date1904 bool) ingest.Value {
	raw, err := f.GetCellValue(sheet, axis)
	if err != nil || raw == "" {
		return ingest.NullValue()
	}

	styleID, _ := f.GetCellStyle(sheet, axis)
	format := numberFormatOf(f, styleID)

	if isDateFormat(format) {
		// raw is the formatted display text; the serial number is the
		// cell's unformatted value.
		serial, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
		if err == nil {
			if f64, err := strconv.ParseFloat(serial, 64); err == nil {
				return serialToTimestamp(f64, date1904, isDateOnlyFormat(format))
			}
		}
	}

	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ingest.Int64Value(i)
	}
	if f64, err := strconv.ParseFloat(raw, 64); err == nil {
		if format != "" && format != "General" {
			return ingest.FormattedNumberValue(f64, format)
		}
		return ingest.Float64Value(f64)
	}
	switch strings.ToUpper(raw) {
	case "TRUE":
		return ingest.BoolValue(true)
	case "FALSE":
		return ingest.BoolValue(false)
	}
	return ingest.StringValue([]byte(raw))
}

func numberFormatOf(f *excelize.File, styleID int) string {
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return ""
	}
	if style.CustomNumFmt != nil {
		return *style.CustomNumFmt
	}
	return builtinNumFmt(style.NumFmt)
}

// builtinNumFmt covers the handful of built-in date/time format codes
// excelize exposes by id rather than by string (ECMA-376 §18.8.30).
func builtinNumFmt(id int) string {
	switch id {
	case 14:
		return "mm-dd-yy"
	case 15:
		return "d-mmm-yy"
	case 16:
		return "d-mmm"
	case 17:
		return "mmm-yy"
	case 18:
		return "h:mm AM/PM"
	case 19:
		return "h:mm:ss AM/PM"
	case 20:
		return "h:mm"
	case 21:
		return "h:mm:ss"
	case 22:
		return "m/d/yy h:mm"
	default:
		return ""
	}
}

func isDateFormat(format string) bool {
	if format == "" {
		return false
	}
	lower := strings.ToLower(format)
	for _, r := range lower {
		switch r {
		case 'y', 'm', 'd', 'h', 's':
			return true
		}
	}
	return false
}

func isDateOnlyFormat(format string) bool {
	lower := strings.ToLower(format)
	return !strings.ContainsAny(lower, "hs")
}

const maxSpreadsheetYear = 9999

func serialToTimestamp(serial float64, date1904, dateOnly bool) ingest.Value {
	base := epochBase(date1904)
	days := int64(serial)
	fraction := serial - float64(days)
	t := base.AddDate(0, 0, int(days)).Add(time.Duration(fraction*24*3600) * time.Second)
	if t.Year() < 1900 || t.Year() > maxSpreadsheetYear || t.After(time.Unix(0, 1<<63-1)) {
		return ingest.OutOfRangeTimestampValue()
	}
	ns := t.UnixNano()
	if dateOnly {
		return ingest.DateOnlyTimestampValue(ns)
	}
	return ingest.TimestampValue(ns)
}
