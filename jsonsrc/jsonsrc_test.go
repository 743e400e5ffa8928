package jsonsrc

import (
	"strings"
	"testing"

	"arrowtools/ingest"
)

func newTable() *ingest.Table {
	return ingest.NewTable(ingest.Limits{MaxBytesPerValue: 1 << 20}, ingest.ColumnNameLimits{MaxBytes: 255})
}

func TestParseTopLevelArray(t *testing.T) {
	tbl := newTable()
	err := Parse(strings.NewReader(`[{"id":1,"name":"alice"},{"id":2,"name":"bob"}]`), tbl, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := tbl.Finish()
	if len(res.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(res.Columns))
	}
	if res.Columns[0].Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", res.Columns[0].Len())
	}
}

func TestParseObjectWithArrayProperty(t *testing.T) {
	tbl := newTable()
	err := Parse(strings.NewReader(`{"meta":"x","rows":[{"a":1},{"a":2}]}`), tbl, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := tbl.Finish()
	if len(res.Columns) != 1 || res.Columns[0].Name != "a" {
		t.Fatalf("expected single column 'a', got %+v", res.Columns)
	}
	if res.Columns[0].Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", res.Columns[0].Len())
	}
}

func TestParseSkipsNonObjectRecords(t *testing.T) {
	tbl := newTable()
	err := Parse(strings.NewReader(`[{"a":1}, "oops", {"a":2}]`), tbl, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := tbl.Finish()
	if res.Columns[0].Len() != 2 {
		t.Fatalf("expected 2 real rows, got %d", res.Columns[0].Len())
	}
	if res.Events.SkippedNonObjectCount() != 1 {
		t.Fatalf("expected 1 skipped non-object record, got %d", res.Events.SkippedNonObjectCount())
	}
}

func TestParseSkipsCompoundNonObjectRecordWithFullExample(t *testing.T) {
	tbl := newTable()
	err := Parse(strings.NewReader(`[1,{"x":["y"]},4]`), tbl, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := tbl.Finish()
	if res.Columns[0].Len() != 1 {
		t.Fatalf("expected 1 real row, got %d", res.Columns[0].Len())
	}
	if res.Events.SkippedNonObjectCount() != 2 {
		t.Fatalf("expected 2 skipped non-object records, got %d", res.Events.SkippedNonObjectCount())
	}
	var buf strings.Builder
	res.Events.WriteTo(&buf)
	if !strings.Contains(buf.String(), "example Array item 0: 1") {
		t.Fatalf("expected first skipped example to be index-prefixed, got %q", buf.String())
	}
}

func TestParseSkippedCompoundArrayElementCapturesFullLiteral(t *testing.T) {
	tbl := newTable()
	err := Parse(strings.NewReader(`[[1,{"x":["y"]},4]]`), tbl, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := tbl.Finish()
	var buf strings.Builder
	res.Events.WriteTo(&buf)
	want := `skipped 1 non-Object records; example Array item 0: [1,{"x":["y"]},4]`
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestParseRootObjectSkipsNonQualifyingArrayProperty(t *testing.T) {
	tbl := newTable()
	err := Parse(strings.NewReader(`{"meta":[],"data":[{"a":1}]}`), tbl, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := tbl.Finish()
	if len(res.Columns) != 1 || res.Columns[0].Name != "a" {
		t.Fatalf("expected single column 'a', got %+v", res.Columns)
	}
	if res.Columns[0].Len() != 1 {
		t.Fatalf("expected 1 row, got %d", res.Columns[0].Len())
	}
}

func TestParseRootObjectSkipsArrayOfScalarsProperty(t *testing.T) {
	tbl := newTable()
	err := Parse(strings.NewReader(`{"tags":["a","b"],"data":[{"a":1}]}`), tbl, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := tbl.Finish()
	if len(res.Columns) != 1 || res.Columns[0].Name != "a" {
		t.Fatalf("expected single column 'a', got %+v", res.Columns)
	}
}

func TestParseNumberOverflowDropsRowAndReportsError(t *testing.T) {
	tbl := newTable()
	err := Parse(strings.NewReader(`[{"a":1},{"a":1e400},{"a":2}]`), tbl, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := tbl.Finish()
	if res.Columns[0].Len() != 1 {
		t.Fatalf("expected only the row before the overflow to be ingested, got %d rows", res.Columns[0].Len())
	}
	var buf strings.Builder
	res.Events.WriteTo(&buf)
	if !strings.Contains(buf.String(), "Number too big to be stored in double.") {
		t.Fatalf("expected overflow message, got %q", buf.String())
	}
}

func TestParseInvalidRootReported(t *testing.T) {
	tbl := newTable()
	err := Parse(strings.NewReader(`"just a string"`), tbl, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := tbl.Finish()
	if res.Events.JSONRootError() == "" {
		t.Fatal("expected a root-invalid event")
	}
	if len(res.Columns) != 0 {
		t.Fatalf("expected no columns, got %+v", res.Columns)
	}
}

func TestParseIntVsFloatDiscrimination(t *testing.T) {
	tbl := newTable()
	err := Parse(strings.NewReader(`[{"n":3},{"n":3.5}]`), tbl, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := tbl.Finish()
	col := res.Columns[0]
	if col.Type != ingest.TypeFloat64 {
		t.Fatalf("expected column widened to float64, got %v", col.Type)
	}
}

func TestParseNestedObjectBecomesJSONFragment(t *testing.T) {
	tbl := newTable()
	err := Parse(strings.NewReader(`[{"n":{"x":1,"y":[1,2]}}]`), tbl, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := tbl.Finish()
	col := res.Columns[0]
	if col.Type != ingest.TypeString {
		t.Fatalf("expected nested object rendered as string, got %v", col.Type)
	}
}
