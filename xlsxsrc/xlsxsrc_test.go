package xlsxsrc

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"arrowtools/ingest"
)

func newWorkbookPath(t *testing.T) (*excelize.File, string) {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	return f, filepath.Join(t.TempDir(), "book.xlsx")
}

func columnByName(cols []*ingest.Column, name string) *ingest.Column {
	for _, c := range cols {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// TestParseHeaderRowDiscriminatesDateNumberAndBool covers data-row
// typing below a header row: a date-formatted serial number becomes a
// Timestamp, a plain number stays a Number, and a boolean cell becomes
// TRUE/FALSE text.
func TestParseHeaderRowDiscriminatesDateNumberAndBool(t *testing.T) {
	f, path := newWorkbookPath(t)
	sheet := f.GetSheetName(0)

	f.SetCellValue(sheet, "A1", "id")
	f.SetCellValue(sheet, "B1", "joined")
	f.SetCellValue(sheet, "C1", "active")

	f.SetCellValue(sheet, "A2", 1)
	f.SetCellValue(sheet, "B2", 44197) // 2021-01-01 as an Excel serial day
	f.SetCellValue(sheet, "C2", true)

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		t.Fatalf("NewStyle: %v", err)
	}
	if err := f.SetCellStyle(sheet, "B2", "B2", dateStyle); err != nil {
		t.Fatalf("SetCellStyle: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	tbl := ingest.NewTable(ingest.Limits{MaxBytesPerValue: 1 << 20}, ingest.ColumnNameLimits{MaxBytes: 255})
	opts := Options{HeaderRows: HeaderRowRange{Start: 1, End: 1}}
	if err := Parse(path, tbl, opts); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := tbl.Finish()
	if len(res.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d: %+v", len(res.Columns), res.Columns)
	}

	id := columnByName(res.Columns, "id")
	joined := columnByName(res.Columns, "joined")
	active := columnByName(res.Columns, "active")

	if id == nil || id.Type != ingest.TypeInt8 {
		t.Fatalf("expected id column typed as a small integer, got %+v", id)
	}
	if joined == nil || joined.Type != ingest.TypeTimestamp {
		t.Fatalf("expected joined column typed as a timestamp, got %+v", joined)
	}
	if active == nil || active.Type != ingest.TypeString {
		t.Fatalf("expected active column rendered as string TRUE/FALSE, got %+v", active)
	}
	var activeText string
	active.EachEntry(func(e ingest.EntryView) {
		if activeText == "" {
			activeText = e.Text
		}
	})
	if activeText != "TRUE" {
		t.Fatalf("expected rendered bool %q, got %q", "TRUE", activeText)
	}
}

// TestParseMultiRowHeaderMerges covers a 2-row header block where the
// second row's non-blank cell overrides the first's at the same
// position, and rows ahead of the header block are dropped entirely.
func TestParseMultiRowHeaderMerges(t *testing.T) {
	f, path := newWorkbookPath(t)
	sheet := f.GetSheetName(0)

	f.SetCellValue(sheet, "A1", "Report title")
	f.SetCellValue(sheet, "A2", "id")
	f.SetCellValue(sheet, "B2", "amount")
	f.SetCellValue(sheet, "B3", "amount_usd")
	f.SetCellValue(sheet, "A4", 1)
	f.SetCellValue(sheet, "B4", 9.5)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	tbl := ingest.NewTable(ingest.Limits{MaxBytesPerValue: 1 << 20}, ingest.ColumnNameLimits{MaxBytes: 255})
	opts := Options{HeaderRows: HeaderRowRange{Start: 2, End: 3}}
	if err := Parse(path, tbl, opts); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := tbl.Finish()
	if len(res.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d: %+v", len(res.Columns), res.Columns)
	}
	if columnByName(res.Columns, "id") == nil {
		t.Fatal("expected column 'id'")
	}
	if col := columnByName(res.Columns, "amount_usd"); col == nil || col.Len() != 1 {
		t.Fatalf("expected single-row column 'amount_usd' (row 1 dropped, not counted as data), got %+v", col)
	}
}

// TestParseHeaderRowsFileCapturesHeaderBlock covers --header-rows-file:
// the header block's own cells are fed to a separate table by position.
func TestParseHeaderRowsFileCapturesHeaderBlock(t *testing.T) {
	f, path := newWorkbookPath(t)
	sheet := f.GetSheetName(0)
	f.SetCellValue(sheet, "A1", "id")
	f.SetCellValue(sheet, "B1", "name")
	f.SetCellValue(sheet, "A2", 1)
	f.SetCellValue(sheet, "B2", "alice")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	tbl := ingest.NewTable(ingest.Limits{MaxBytesPerValue: 1 << 20}, ingest.ColumnNameLimits{MaxBytes: 255})
	headerTbl := ingest.NewTable(ingest.Limits{MaxBytesPerValue: 1 << 20}, ingest.ColumnNameLimits{MaxBytes: 255})
	opts := Options{HeaderRows: HeaderRowRange{Start: 1, End: 1}, HeaderTable: headerTbl}
	if err := Parse(path, tbl, opts); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	headerRes := headerTbl.Finish()
	if len(headerRes.Columns) != 2 {
		t.Fatalf("expected 2 header columns, got %+v", headerRes.Columns)
	}
	if headerRes.Columns[0].Len() != 1 {
		t.Fatalf("expected the header table to hold exactly the 1 captured header row, got %d", headerRes.Columns[0].Len())
	}
}

func TestParseHeaderRowRangeVariants(t *testing.T) {
	cases := []struct {
		in      string
		want    HeaderRowRange
		wantErr bool
	}{
		{"", HeaderRowRange{}, false},
		{"0", HeaderRowRange{}, false},
		{"1", HeaderRowRange{Start: 1, End: 1}, false},
		{"2-3", HeaderRowRange{Start: 2, End: 3}, false},
		{"3-2", HeaderRowRange{}, true},
		{"x-y", HeaderRowRange{}, true},
	}
	for _, c := range cases {
		got, err := ParseHeaderRowRange(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseHeaderRowRange(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHeaderRowRange(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseHeaderRowRange(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}
