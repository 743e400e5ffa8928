package ingest

// Limits bounds a run of the ingest engine. Every field is a hard cap;
// the engine never allocates, stores, or counts past it.
type Limits struct {
	MaxRows          int64 // rows_consumed cap.
	MaxColumns       int64 // column count cap.
	MaxBytesPerValue int64 // per-string/number/timestamp-payload byte cap.
	MaxBytesTotal    int64 // sum of all stored value bytes, across all columns.
}

// RowAction is the result of trying to begin a new row.
type RowAction int

const (
	// Continue means the row should be processed normally.
	Continue RowAction = iota
	// Skip means the row must be dropped (it counts against rows_skipped,
	// not rows_consumed) but the stream should keep going.
	Skip
	// Stop means no further rows should be processed; the table closes
	// with whatever has already been accumulated.
	Stop
)

// ByteFit is the result of trying to append n bytes to the running
// total of stored value bytes.
type ByteFit int

const (
	// Fits means all n bytes may be stored.
	Fits ByteFit = iota
	// Truncate means only the first n' bytes (returned separately) may
	// be stored; the caller must re-truncate the value to that length
	// on a valid UTF-8 boundary before storing it.
	Truncate
	// Refuse means no bytes may be stored; the byte budget is already
	// exhausted and the caller must finalize the current row and stop.
	Refuse
)

// counters tracks the running state behind Limits. It is not
// goroutine-safe; the engine is single-threaded end to end (see §5).
type counters struct {
	limits Limits

	rowsConsumed int64
	rowsSkipped  int64
	columns      int64
	bytesStored  int64
}

func newCounters(l Limits) *counters {
	return &counters{limits: l}
}

func (c *counters) rowsExhausted() bool {
	return c.limits.MaxRows > 0 && c.rowsConsumed >= c.limits.MaxRows
}

func (c *counters) bytesExhausted() bool {
	return c.limits.MaxBytesTotal > 0 && c.bytesStored >= c.limits.MaxBytesTotal
}

func (c *counters) columnsExhausted() bool {
	return c.limits.MaxColumns > 0 && c.columns >= c.limits.MaxColumns
}

// tryBeginRow decides whether a new row may be consumed.
func (c *counters) tryBeginRow() RowAction {
	if c.bytesExhausted() {
		return Stop
	}
	if c.rowsExhausted() {
		c.rowsSkipped++
		return Skip
	}
	c.rowsConsumed++
	return Continue
}

// tryAppendBytes decides how many of n pending value bytes may be
// stored against the total byte budget.
func (c *counters) tryAppendBytes(n int) (ByteFit, int) {
	if !hasBudget(c.limits.MaxBytesTotal) {
		c.bytesStored += int64(n)
		return Fits, n
	}
	remaining := c.limits.MaxBytesTotal - c.bytesStored
	if remaining <= 0 {
		return Refuse, 0
	}
	if int64(n) <= remaining {
		c.bytesStored += int64(n)
		return Fits, n
	}
	c.bytesStored += remaining
	return Truncate, int(remaining)
}

// tryNewColumn reports whether one more column may be created.
func (c *counters) tryNewColumn() bool {
	if c.columnsExhausted() {
		return false
	}
	c.columns++
	return true
}

func hasBudget(n int64) bool {
	return n > 0
}
