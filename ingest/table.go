package ingest

// ColumnNameLimits bounds the column-name sanitizer (spec §4.3).
type ColumnNameLimits struct {
	MaxBytes int
}

// ColumnRef identifies the column a Cell call targets: either by a
// source-provided name (subject to the §4.3 sanitizer) or by a bare
// positional index, for headerless spreadsheet ingestion where column
// names are auto-generated ("A", "B", ... "AA", ...) and never
// rejected or truncated.
type ColumnRef struct {
	name    string
	byIndex bool
	index   int
}

// ByName targets a column by its source name.
func ByName(name string) ColumnRef { return ColumnRef{name: name} }

// ByIndex targets a column by its 0-based position, using the
// Excel-style auto-generated name for that position.
func ByIndex(i int) ColumnRef { return ColumnRef{byIndex: true, index: i} }

// Table is the push-style assembler described in doc.go: it receives
// BeginRow/Cell/EndRow calls from a parser and drives column creation,
// type widening, and limit enforcement.
type Table struct {
	limits   Limits
	colLimit ColumnNameLimits

	counters *counters
	events   *EventLog

	columns []*Column
	index   map[string]int

	row        int64 // 0-based source row position, advanced when a row is skipped by BeginRow or closed by EndRow
	rowsDone   int64 // number of rows fully closed by EndRow
	rowActive  bool
	rowSkipped bool
	touched    map[int]bool
}

// Result is everything a caller needs once a Table is done: the
// assembled columns (ready for arrowio to write) and the event log
// (ready to be written to stdout).
type Result struct {
	Columns []*Column
	Events  *EventLog
	Limits  Limits
}

// NewTable creates an empty Table bound to the given limits.
func NewTable(limits Limits, colLimit ColumnNameLimits) *Table {
	return &Table{
		limits:   limits,
		colLimit: colLimit,
		counters: newCounters(limits),
		events:   NewEventLog(limits),
		index:    make(map[string]int),
		touched:  make(map[int]bool),
	}
}

// Events returns the table's event log. Parsers use it to record
// container-level conditions (invalid root shape, non-object records,
// malformed syntax) that the Table itself has no visibility into.
func (t *Table) Events() *EventLog { return t.events }

// BeginRow starts a new row and reports whether it should be processed
// (Continue), dropped (Skip), or whether ingestion should stop
// entirely (Stop). The caller must not call Cell after Skip or Stop
// without first calling BeginRow again (Skip) or not at all (Stop).
func (t *Table) BeginRow() RowAction {
	action := t.counters.tryBeginRow()
	switch action {
	case Stop:
		t.events.StoppedAtByteLimit()
		t.rowActive = false
	case Skip:
		t.events.RowsSkipped(1)
		t.row++
		t.rowActive = false
		t.rowSkipped = true
	case Continue:
		t.rowActive = true
		t.rowSkipped = false
		for k := range t.touched {
			delete(t.touched, k)
		}
	}
	return action
}

// Cell records one value at the given column for the current row. It
// is a no-op if the current row was skipped or ingestion has stopped.
func (t *Table) Cell(ref ColumnRef, v Value) {
	if !t.rowActive {
		return
	}
	idx, ok := t.resolveColumn(ref)
	if !ok {
		return
	}
	t.touched[idx] = true
	col := t.columns[idx]
	col.Append(v, t.row, t.limits.MaxBytesPerValue, t.counters, t.events)
}

// resolveColumn finds or creates the column for ref, applying the name
// sanitizer and the column-count limit. It reports false when the cell
// must be dropped entirely (invalid name, duplicate name, or the
// column limit was already exhausted).
func (t *Table) resolveColumn(ref ColumnRef) (int, bool) {
	if ref.byIndex {
		name := generatedColumnName(ref.index)
		if idx, exists := t.index[name]; exists {
			return idx, true
		}
		return t.createColumn(name)
	}

	outcome := sanitizeColumnName([]byte(ref.name), t.colLimit.MaxBytes, func(s string) bool {
		idx, exists := t.index[s]
		return exists && t.touched[idx]
	})
	if outcome.Truncated {
		t.events.ColumnNameTruncated(outcome.Name)
	}
	switch outcome.Reject {
	case RejectInvalid:
		t.events.InvalidColumn(ref.name)
		return 0, false
	case RejectDuplicate:
		t.events.DuplicateColumn(outcome.Name, t.row)
		return 0, false
	}
	if idx, exists := t.index[outcome.Name]; exists {
		return idx, true
	}
	return t.createColumn(outcome.Name)
}

func (t *Table) createColumn(name string) (int, bool) {
	if !t.counters.tryNewColumn() {
		t.events.ColumnSkippedAfterLimit(name)
		return 0, false
	}
	col := newColumn(name)
	col.BackfillNulls(t.rowsDone)
	idx := len(t.columns)
	t.columns = append(t.columns, col)
	t.index[name] = idx
	return idx, true
}

// EndRow closes out the current row: every column not touched during
// it receives an explicit null, keeping every column the same length.
func (t *Table) EndRow() {
	if !t.rowActive {
		t.row++
		return
	}
	for i, col := range t.columns {
		if !t.touched[i] {
			col.AppendNull()
		}
	}
	t.rowsDone++
	t.row++
	t.rowActive = false
}

// Finish closes the table: any column that never saw a non-null value
// is typed String (spec §4.4's "string by default for a wholly null
// column"), and the accumulated columns and event log are returned.
func (t *Table) Finish() Result {
	for _, col := range t.columns {
		if col.Type == TypeNull && col.Len() > 0 {
			t.events.ChoseStringForNullColumn(col.Name)
			col.Type = TypeString
		}
	}
	return Result{Columns: t.columns, Events: t.events, Limits: t.limits}
}
