package ingest

import "testing"

func noLimits() Limits {
	return Limits{MaxRows: 0, MaxColumns: 0, MaxBytesPerValue: 1 << 20, MaxBytesTotal: 0}
}

func TestTableIntWidensToFloatOnFraction(t *testing.T) {
	tbl := NewTable(noLimits(), ColumnNameLimits{MaxBytes: 255})
	tbl.BeginRow()
	tbl.Cell(ByName("x"), Int64Value(3))
	tbl.EndRow()
	tbl.BeginRow()
	tbl.Cell(ByName("x"), Float64Value(3.5))
	tbl.EndRow()

	res := tbl.Finish()
	col := res.Columns[0]
	if col.Type != TypeFloat64 {
		t.Fatalf("expected column widened to float64, got %v", col.Type)
	}
	if col.entries[0].f64 != 3 {
		t.Fatalf("expected first entry rewritten to float 3, got %+v", col.entries[0])
	}
}

func TestTableStringWidensNumericColumn(t *testing.T) {
	tbl := NewTable(noLimits(), ColumnNameLimits{MaxBytes: 255})
	tbl.BeginRow()
	tbl.Cell(ByName("x"), Int64Value(42))
	tbl.EndRow()
	tbl.BeginRow()
	tbl.Cell(ByName("x"), StringValue([]byte("hello")))
	tbl.EndRow()

	res := tbl.Finish()
	col := res.Columns[0]
	if col.Type != TypeString {
		t.Fatalf("expected column widened to string, got %v", col.Type)
	}
	if res.Events.numbersAsStringCount != 1 {
		t.Fatalf("expected 1 number interpreted as string, got %d", res.Events.numbersAsStringCount)
	}
	if string(col.entries[0].s) != "42" {
		t.Fatalf("expected first entry rendered as \"42\", got %q", col.entries[0].s)
	}
}

func TestTableWhitespaceExemptionRetainsText(t *testing.T) {
	tbl := NewTable(noLimits(), ColumnNameLimits{MaxBytes: 255})
	tbl.BeginRow()
	tbl.Cell(ByName("x"), Int64Value(1))
	tbl.EndRow()
	tbl.BeginRow()
	tbl.Cell(ByName("x"), StringValue([]byte("  ")))
	tbl.EndRow()

	res := tbl.Finish()
	col := res.Columns[0]
	if col.Type != TypeInt8 {
		t.Fatalf("whitespace string must not widen a numeric column, got %v", col.Type)
	}
	if !col.entries[1].whitespace || string(col.entries[1].s) != "  " {
		t.Fatalf("expected whitespace text retained verbatim, got %+v", col.entries[1])
	}
}

func TestTableTimestampWhitespaceBecomesNull(t *testing.T) {
	tbl := NewTable(noLimits(), ColumnNameLimits{MaxBytes: 255})
	tbl.BeginRow()
	tbl.Cell(ByName("x"), TimestampValue(0))
	tbl.EndRow()
	tbl.BeginRow()
	tbl.Cell(ByName("x"), StringValue([]byte(" ")))
	tbl.EndRow()

	res := tbl.Finish()
	col := res.Columns[0]
	if col.Type != TypeTimestamp {
		t.Fatalf("whitespace string must not widen a timestamp column, got %v", col.Type)
	}
	if !col.entries[1].null {
		t.Fatalf("expected whitespace timestamp cell stored as plain null, got %+v", col.entries[1])
	}
}

func TestTableRowLimitSkipsAndCounts(t *testing.T) {
	lim := noLimits()
	lim.MaxRows = 1
	tbl := NewTable(lim, ColumnNameLimits{MaxBytes: 255})

	if action := tbl.BeginRow(); action != Continue {
		t.Fatalf("first row should continue, got %v", action)
	}
	tbl.Cell(ByName("x"), Int64Value(1))
	tbl.EndRow()

	if action := tbl.BeginRow(); action != Skip {
		t.Fatalf("second row should be skipped, got %v", action)
	}

	res := tbl.Finish()
	if res.Events.rowsSkipped != 1 {
		t.Fatalf("expected 1 row skipped, got %d", res.Events.rowsSkipped)
	}
}

func TestTableColumnLimitDropsNewColumns(t *testing.T) {
	lim := noLimits()
	lim.MaxColumns = 1
	tbl := NewTable(lim, ColumnNameLimits{MaxBytes: 255})

	tbl.BeginRow()
	tbl.Cell(ByName("a"), Int64Value(1))
	tbl.Cell(ByName("b"), Int64Value(2))
	tbl.EndRow()

	res := tbl.Finish()
	if len(res.Columns) != 1 {
		t.Fatalf("expected exactly 1 column, got %d", len(res.Columns))
	}
	if !res.Events.columnsSkipped.set || res.Events.columnsSkipped.name != "b" {
		t.Fatalf("expected column b reported skipped, got %+v", res.Events.columnsSkipped)
	}
}

func TestTableByteTotalLimitStopsRun(t *testing.T) {
	lim := noLimits()
	lim.MaxBytesTotal = 2
	tbl := NewTable(lim, ColumnNameLimits{MaxBytes: 255})

	tbl.BeginRow()
	tbl.Cell(ByName("x"), StringValue([]byte("ab")))
	tbl.EndRow()

	if action := tbl.BeginRow(); action != Stop {
		t.Fatalf("expected Stop once byte budget is exhausted, got %v", action)
	}

	res := tbl.Finish()
	if !res.Events.stoppedAtByteLimit {
		t.Fatalf("expected stoppedAtByteLimit to be recorded")
	}
}

func TestTableMidStreamColumnBackfillsNulls(t *testing.T) {
	tbl := NewTable(noLimits(), ColumnNameLimits{MaxBytes: 255})
	tbl.BeginRow()
	tbl.Cell(ByName("a"), Int64Value(1))
	tbl.EndRow()
	tbl.BeginRow()
	tbl.Cell(ByName("a"), Int64Value(2))
	tbl.Cell(ByName("b"), Int64Value(3))
	tbl.EndRow()

	res := tbl.Finish()
	var colB *Column
	for _, c := range res.Columns {
		if c.Name == "b" {
			colB = c
		}
	}
	if colB == nil {
		t.Fatal("expected column b to exist")
	}
	if colB.Len() != 2 {
		t.Fatalf("expected column b to have 2 rows (1 backfilled null + 1 value), got %d", colB.Len())
	}
	if !colB.entries[0].null {
		t.Fatalf("expected column b's first row back-filled null, got %+v", colB.entries[0])
	}
}

func TestTableNullOnlyColumnBecomesString(t *testing.T) {
	tbl := NewTable(noLimits(), ColumnNameLimits{MaxBytes: 255})
	tbl.BeginRow()
	tbl.Cell(ByName("a"), NullValue())
	tbl.EndRow()

	res := tbl.Finish()
	if res.Columns[0].Type != TypeString {
		t.Fatalf("expected wholly null column typed as string, got %v", res.Columns[0].Type)
	}
	if !res.Events.nullColumns.set {
		t.Fatal("expected null-column event recorded")
	}
}
