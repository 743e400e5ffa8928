package ingest

import (
	"fmt"
	"io"
)

// location is the (row, column) example kept for a given event kind;
// only the first occurrence is retained (spec §4.6).
type location struct {
	row int64
	col string
	set bool
}

func (l *location) remember(row int64, col string) {
	if !l.set {
		l.row, l.col, l.set = row, col, true
	}
}

// firstName remembers the first distinct string seen for a kind, plus
// whether more than one distinct value has been seen ("and more").
type firstName struct {
	name string
	more bool
	set  bool
}

func (f *firstName) remember(name string) {
	if !f.set {
		f.name, f.set = name, true
		return
	}
	if f.name != name {
		f.more = true
	}
}

// EventLog accumulates the closed set of warning kinds from spec §4.6
// and emits them, at the end of a run, to stdout in the documented
// fixed order rather than encounter order.
type EventLog struct {
	rowLimit         int64
	columnLimit      int64
	byteLimit        int64
	maxBytesPerValue int64

	rowsSkipped int64

	columnsSkipped firstName

	valuesTruncatedCount int64
	valuesTruncatedAt    location

	colNamesTruncatedCount   int64
	colNamesTruncatedExample string

	invalidColumns  firstName
	duplicateColumn firstName
	duplicateAt     location

	nullColumns firstName

	numbersAsStringCount int64
	numbersAsStringAt    location

	timestampsAsStringCount int64
	timestampsAsStringAt    location

	precisionLossCount int64
	precisionLossAt    location

	outOfRangeTimestampCount int64
	outOfRangeTimestampAt    location

	skippedNonObjectCount   int64
	skippedNonObjectExample string

	stoppedAtByteLimit bool

	jsonParseError string
	jsonRootError  string
	containerError string // "Invalid XLS file: ..." / "Invalid XLSX file: ..."
}

// NewEventLog creates an EventLog that renders limit-dependent messages
// (row/column/byte limit text) against the given limits.
func NewEventLog(l Limits) *EventLog {
	return &EventLog{
		rowLimit:         l.MaxRows,
		columnLimit:      l.MaxColumns,
		byteLimit:        l.MaxBytesTotal,
		maxBytesPerValue: l.MaxBytesPerValue,
	}
}

func (e *EventLog) RowsSkipped(n int64) { e.rowsSkipped += n }

func (e *EventLog) ColumnSkippedAfterLimit(name string) { e.columnsSkipped.remember(name) }

func (e *EventLog) ValueTruncated(row int64, col string) {
	e.valuesTruncatedCount++
	e.valuesTruncatedAt.remember(row, col)
}

func (e *EventLog) ColumnNameTruncated(example string) {
	e.colNamesTruncatedCount++
	if e.colNamesTruncatedCount == 1 {
		e.colNamesTruncatedExample = example
	}
}

func (e *EventLog) InvalidColumn(name string) { e.invalidColumns.remember(name) }

func (e *EventLog) DuplicateColumn(name string, row int64) {
	e.duplicateColumn.remember(name)
	e.duplicateAt.remember(row, name)
}

func (e *EventLog) ChoseStringForNullColumn(name string) { e.nullColumns.remember(name) }

func (e *EventLog) NumbersInterpretedAsString(n int64, row int64, col string) {
	if n <= 0 {
		return
	}
	e.numbersAsStringCount += n
	e.numbersAsStringAt.remember(row, col)
}

func (e *EventLog) TimestampsInterpretedAsString(n int64, row int64, col string) {
	if n <= 0 {
		return
	}
	e.timestampsAsStringCount += n
	e.timestampsAsStringAt.remember(row, col)
}

func (e *EventLog) PrecisionLost(n int64, row int64, col string) {
	if n <= 0 {
		return
	}
	e.precisionLossCount += n
	e.precisionLossAt.remember(row, col)
}

func (e *EventLog) TimestampOutOfRange(row int64, col string) {
	e.outOfRangeTimestampCount++
	e.outOfRangeTimestampAt.remember(row, col)
}

// SkippedNonObjectRecord records one array element that did not
// qualify as a record because it was not a JSON Object. index is the
// element's 0-based position in the array; content is its full
// canonical literal text. Only the first occurrence's "Array item I:
// <literal>" text is retained (spec §4.6).
func (e *EventLog) SkippedNonObjectRecord(index int, content string) {
	e.skippedNonObjectCount++
	if e.skippedNonObjectCount == 1 {
		e.skippedNonObjectExample = fmt.Sprintf("Array item %d: %s", index, content)
	}
}

func (e *EventLog) StoppedAtByteLimit() { e.stoppedAtByteLimit = true }

// SkippedNonObjectCount reports how many array elements were skipped
// for not being a JSON Object (spec §5).
func (e *EventLog) SkippedNonObjectCount() int64 { return e.skippedNonObjectCount }

// JSONRootError reports the root-shape error message, if any, recorded
// for this run; empty when the root was valid.
func (e *EventLog) JSONRootError() string { return e.jsonRootError }

// JSONParseError records a malformed-input or unrepresentable-value
// condition that ends ingestion of the rest of the file. Only the
// first occurrence is kept, matching every other event kind's
// first-wins rule.
func (e *EventLog) JSONParseError(offset int64, message string) {
	if e.jsonParseError != "" {
		return
	}
	e.jsonParseError = fmt.Sprintf("JSON parse error at byte %d: %s", offset, message)
}

func (e *EventLog) JSONRootInvalid(excerpt string) {
	e.jsonRootError = fmt.Sprintf("JSON is not an Array or Object containing an Array; got: %s", excerpt)
}

func (e *EventLog) InvalidXLS(message string) { e.containerError = fmt.Sprintf("Invalid XLS file: %s", message) }

func (e *EventLog) InvalidXLSX(message string) {
	e.containerError = fmt.Sprintf("Invalid XLSX file: %s", message)
}

// WriteTo emits every non-empty event, one per line, in the fixed
// order documented by spec §4.6.
func (e *EventLog) WriteTo(w io.Writer) (int64, error) {
	var lines []string

	if e.rowsSkipped > 0 {
		lines = append(lines, fmt.Sprintf("skipped %d rows (after row limit of %d)", e.rowsSkipped, e.rowLimit))
	}
	if e.columnsSkipped.set {
		lines = append(lines, fmt.Sprintf("skipped column %s%s (after column limit of %d)", e.columnsSkipped.name, andMore(e.columnsSkipped.more), e.columnLimit))
	}
	if e.valuesTruncatedCount > 0 {
		lines = append(lines, fmt.Sprintf("truncated %d values (value byte limit is %d; see row %d column %s)",
			e.valuesTruncatedCount, e.byteLimitPerValueHint(), e.valuesTruncatedAt.row, e.valuesTruncatedAt.col))
	}
	if e.colNamesTruncatedCount > 0 {
		lines = append(lines, fmt.Sprintf("truncated %d column names; example %s", e.colNamesTruncatedCount, e.colNamesTruncatedExample))
	}
	if e.invalidColumns.set {
		lines = append(lines, fmt.Sprintf("ignored invalid column %q%s", e.invalidColumns.name, andMore(e.invalidColumns.more)))
	}
	if e.duplicateColumn.set {
		lines = append(lines, fmt.Sprintf("ignored duplicate column %s%s starting at row %d", e.duplicateColumn.name, andMore(e.duplicateColumn.more), e.duplicateAt.row))
	}
	if e.nullColumns.set {
		lines = append(lines, fmt.Sprintf("chose string type for null column %s%s", e.nullColumns.name, andMore(e.nullColumns.more)))
	}
	if e.numbersAsStringCount > 0 {
		lines = append(lines, fmt.Sprintf("interpreted %d Numbers as String; see row %d column %s", e.numbersAsStringCount, e.numbersAsStringAt.row, e.numbersAsStringAt.col))
	}
	if e.timestampsAsStringCount > 0 {
		lines = append(lines, fmt.Sprintf("interpreted %d Timestamps as String; see row %d column %s", e.timestampsAsStringCount, e.timestampsAsStringAt.row, e.timestampsAsStringAt.col))
	}
	if e.precisionLossCount > 0 {
		lines = append(lines, fmt.Sprintf("lost precision converting %d int64 Numbers to float64; see row %d column %s", e.precisionLossCount, e.precisionLossAt.row, e.precisionLossAt.col))
	}
	if e.outOfRangeTimestampCount > 0 {
		lines = append(lines, fmt.Sprintf("replaced out-of-range with null for %d Timestamps; see row %d column %s", e.outOfRangeTimestampCount, e.outOfRangeTimestampAt.row, e.outOfRangeTimestampAt.col))
	}
	if e.skippedNonObjectCount > 0 {
		lines = append(lines, fmt.Sprintf("skipped %d non-Object records; example %s", e.skippedNonObjectCount, e.skippedNonObjectExample))
	}
	if e.stoppedAtByteLimit {
		lines = append(lines, fmt.Sprintf("stopped at limit of %d bytes of data", e.byteLimit))
	}
	if e.jsonParseError != "" {
		lines = append(lines, e.jsonParseError)
	}
	if e.jsonRootError != "" {
		lines = append(lines, e.jsonRootError)
	}
	if e.containerError != "" {
		lines = append(lines, e.containerError)
	}

	var total int64
	for _, line := range lines {
		n, err := io.WriteString(w, line+"\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// byteLimitPerValueHint lets the truncated-values message report the
// per-value byte limit even though EventLog itself is keyed on the
// Limits struct's MaxBytesTotal; set by the table assembler.
func (e *EventLog) byteLimitPerValueHint() int64 {
	return e.maxBytesPerValue
}

func andMore(more bool) string {
	if more {
		return " and more"
	}
	return ""
}
