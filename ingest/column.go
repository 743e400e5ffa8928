package ingest

import (
	"fmt"
	"math"
)

// ColumnType is the assigned type of a column, drawn from the lattice
// in spec §3. The Int8/16/32/64 family is ordered by width; String is
// the top; Null is the bottom.
type ColumnType int

const (
	TypeNull ColumnType = iota
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeFloat64
	TypeTimestamp
	TypeString
)

func (t ColumnType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeInt8:
		return "int8"
	case TypeInt16:
		return "int16"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeTimestamp:
		return "timestamp"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

const maxSafeIntInFloat = int64(1) << 53

// intWidth returns the smallest signed integer ColumnType that holds n.
func intWidth(n int64) ColumnType {
	switch {
	case n >= -128 && n <= 127:
		return TypeInt8
	case n >= -32768 && n <= 32767:
		return TypeInt16
	case n >= -(1<<31) && n <= (1<<31)-1:
		return TypeInt32
	default:
		return TypeInt64
	}
}

func maxIntType(a, b ColumnType) ColumnType {
	if b > a {
		return b
	}
	return a
}

// cellEntry is the canonical, order-preserving record of one logical
// value (or null) stored in a column. Column.Type decides how entries
// are materialized by the Arrow writer; widening only ever needs to
// inspect and, for transitions into String, rewrite entries in place.
type cellEntry struct {
	null bool
	kind ValueKind // original kind of the value that produced this entry

	i64 int64
	f64 float64
	b   bool
	s   []byte // String/JsonFragment payload, or the rendered text once materialized to String

	format     string // FormattedNumber's format string, kept for late rendering
	dateOnly   bool   // Timestamp: render as a bare date once widened
	whitespace bool   // a numeric column's suppressed whitespace text
}

// Column is a single column's builder: assigned type and ordered
// entries. Its widening and truncation events are recorded directly in
// the shared EventLog.
type Column struct {
	Name          string
	Type          ColumnType
	FirstValueRow int64
	hasFirstValue bool

	entries []cellEntry
}

func newColumn(name string) *Column {
	return &Column{Name: name, Type: TypeNull}
}

// Len reports how many logical rows this column has recorded so far.
func (c *Column) Len() int64 { return int64(len(c.entries)) }

// EntryView is the read-only projection of a stored cellEntry exposed
// to writers outside the package. IsText is set whenever the entry
// must be rendered as a string regardless of the column's own Type
// (true String-kind entries, and whitespace text retained under a
// numeric column that never widened).
type EntryView struct {
	Null   bool
	IsText bool
	I64    int64
	F64    float64
	Text   string
}

// EachEntry calls fn once per stored entry, in row order.
func (c *Column) EachEntry(fn func(EntryView)) {
	for _, e := range c.entries {
		if e.null {
			fn(EntryView{Null: true})
			continue
		}
		if e.kind == KindString {
			fn(EntryView{IsText: true, Text: string(e.s)})
			continue
		}
		fn(EntryView{I64: e.i64, F64: e.f64})
	}
}

// AppendNull appends an explicit null without affecting the column's
// type (§3: missing cells are explicit nulls; a never-typed column
// stays Null).
func (c *Column) AppendNull() {
	c.entries = append(c.entries, cellEntry{null: true})
}

// BackfillNulls appends n nulls in one fast run, used when a column is
// newly introduced mid-stream (spec §3: back-filled with r nulls
// before its first value).
func (c *Column) BackfillNulls(n int64) {
	if n <= 0 {
		return
	}
	if cap(c.entries) < len(c.entries)+int(n) {
		grown := make([]cellEntry, len(c.entries), len(c.entries)+int(n))
		copy(grown, c.entries)
		c.entries = grown
	}
	for i := int64(0); i < n; i++ {
		c.entries = append(c.entries, cellEntry{null: true})
	}
}

// byteBudget is the shared byte-total counter a Column charges string
// payloads against, without reaching into the table assembler's state.
type byteBudget interface {
	tryAppendBytes(n int) (ByteFit, int)
}

// Append adds one cell value to the column, widening its type as
// necessary per spec §4.4. If the byte-total budget refuses the value
// outright, a null is stored in its place so the column's length still
// advances by exactly one.
func (c *Column) Append(v Value, row int64, maxBytesPerValue int64, budget byteBudget, events *EventLog) {
	if !c.hasFirstValue && v.Kind != KindNull {
		c.hasFirstValue = true
		c.FirstValueRow = row
	}

	switch v.Kind {
	case KindNull:
		c.AppendNull()
		return
	}

	switch c.Type {
	case TypeNull:
		c.appendFresh(v, row, maxBytesPerValue, budget, events)
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		c.appendToInt(v, row, maxBytesPerValue, budget, events)
	case TypeFloat64:
		c.appendToFloat(v, row, maxBytesPerValue, budget, events)
	case TypeTimestamp:
		c.appendToTimestamp(v, row, maxBytesPerValue, budget, events)
	case TypeString:
		c.appendString(v, row, maxBytesPerValue, budget, events)
	}
}

// appendFresh assigns this column's type from its first non-null
// value.
func (c *Column) appendFresh(v Value, row int64, maxBytesPerValue int64, budget byteBudget, events *EventLog) {
	switch v.Kind {
	case KindInt64:
		c.Type = intWidth(v.I64)
		c.entries = append(c.entries, cellEntry{kind: KindInt64, i64: v.I64})
	case KindFloat64:
		c.Type = TypeFloat64
		c.entries = append(c.entries, cellEntry{kind: KindFloat64, f64: v.F64})
	case KindFormattedNumber:
		c.Type = TypeFloat64
		c.entries = append(c.entries, cellEntry{kind: KindFloat64, f64: v.F64, format: v.Format})
	case KindTimestamp:
		c.Type = TypeTimestamp
		if v.OutOfRange {
			c.AppendNull()
			events.TimestampOutOfRange(row, c.Name)
			return
		}
		c.entries = append(c.entries, cellEntry{kind: KindTimestamp, i64: v.I64, dateOnly: v.DateOnly})
	case KindString:
		c.Type = TypeString
		c.appendStringRaw(v.S, row, maxBytesPerValue, budget, events)
	case KindBool:
		c.Type = TypeString
		c.appendStringRaw([]byte(renderBool(v.B)), row, maxBytesPerValue, budget, events)
	case KindJSONFragment:
		c.Type = TypeString
		c.appendCanonicalJSON(v.S, row, maxBytesPerValue, budget, events)
	}
}

func renderBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (c *Column) appendToInt(v Value, row int64, maxBytesPerValue int64, budget byteBudget, events *EventLog) {
	switch v.Kind {
	case KindInt64:
		c.Type = maxIntType(c.Type, intWidth(v.I64))
		c.entries = append(c.entries, cellEntry{kind: KindInt64, i64: v.I64})
	case KindFloat64, KindFormattedNumber:
		lossy := c.countLossyInts()
		if lossy > 0 {
			events.PrecisionLost(lossy, row, c.Name)
		}
		c.widenIntEntriesToFloat()
		c.Type = TypeFloat64
		c.entries = append(c.entries, cellEntry{kind: KindFloat64, f64: v.F64, format: v.Format})
	case KindString:
		if isAllWhitespace(v.S) {
			c.appendStringRawMarked(v.S, row, maxBytesPerValue, budget, events, true)
			return
		}
		c.widenNumericToString(row, events)
		c.appendStringRaw(v.S, row, maxBytesPerValue, budget, events)
	default:
		c.widenNumericToString(row, events)
		c.appendNonStringAsString(v, row, maxBytesPerValue, budget, events)
	}
}

func (c *Column) appendToFloat(v Value, row int64, maxBytesPerValue int64, budget byteBudget, events *EventLog) {
	switch v.Kind {
	case KindInt64:
		if abs64(v.I64) > maxSafeIntInFloat {
			events.PrecisionLost(1, row, c.Name)
		}
		c.entries = append(c.entries, cellEntry{kind: KindFloat64, f64: float64(v.I64)})
	case KindFloat64, KindFormattedNumber:
		c.entries = append(c.entries, cellEntry{kind: KindFloat64, f64: v.F64, format: v.Format})
	case KindString:
		if isAllWhitespace(v.S) {
			c.appendStringRawMarked(v.S, row, maxBytesPerValue, budget, events, true)
			return
		}
		c.widenNumericToString(row, events)
		c.appendStringRaw(v.S, row, maxBytesPerValue, budget, events)
	default:
		c.widenNumericToString(row, events)
		c.appendNonStringAsString(v, row, maxBytesPerValue, budget, events)
	}
}

func (c *Column) appendToTimestamp(v Value, row int64, maxBytesPerValue int64, budget byteBudget, events *EventLog) {
	switch v.Kind {
	case KindTimestamp:
		if v.OutOfRange {
			c.AppendNull()
			events.TimestampOutOfRange(row, c.Name)
			return
		}
		c.entries = append(c.entries, cellEntry{kind: KindTimestamp, i64: v.I64, dateOnly: v.DateOnly})
	case KindString:
		if isAllWhitespace(v.S) {
			// Spec §4.4: treated as null, column does not widen, and
			// (unlike the Float64 case) the text is not retained.
			c.AppendNull()
			return
		}
		c.widenTimestampToString(row, events)
		c.appendStringRaw(v.S, row, maxBytesPerValue, budget, events)
	default:
		c.widenTimestampToString(row, events)
		c.appendString(v, row, maxBytesPerValue, budget, events)
	}
}

func (c *Column) appendString(v Value, row int64, maxBytesPerValue int64, budget byteBudget, events *EventLog) {
	switch v.Kind {
	case KindString:
		c.appendStringRaw(v.S, row, maxBytesPerValue, budget, events)
	case KindBool:
		c.appendStringRaw([]byte(renderBool(v.B)), row, maxBytesPerValue, budget, events)
	case KindJSONFragment:
		c.appendCanonicalJSON(v.S, row, maxBytesPerValue, budget, events)
	case KindInt64:
		c.appendStringRaw([]byte(renderInt64(v.I64)), row, maxBytesPerValue, budget, events)
	case KindFloat64:
		c.appendStringRaw([]byte(renderFloat64(v.F64)), row, maxBytesPerValue, budget, events)
	case KindFormattedNumber:
		c.appendStringRaw([]byte(renderFormattedNumber(v.F64, v.Format)), row, maxBytesPerValue, budget, events)
	case KindTimestamp:
		if v.OutOfRange {
			c.AppendNull()
			events.TimestampOutOfRange(row, c.Name)
			return
		}
		c.appendStringRaw([]byte(renderTimestamp(v.I64, v.DateOnly)), row, maxBytesPerValue, budget, events)
	}
}

func (c *Column) appendNonStringAsString(v Value, row int64, maxBytesPerValue int64, budget byteBudget, events *EventLog) {
	switch v.Kind {
	case KindBool:
		c.appendStringRaw([]byte(renderBool(v.B)), row, maxBytesPerValue, budget, events)
	case KindJSONFragment:
		c.appendCanonicalJSON(v.S, row, maxBytesPerValue, budget, events)
	case KindTimestamp:
		if v.OutOfRange {
			c.AppendNull()
			events.TimestampOutOfRange(row, c.Name)
			return
		}
		c.appendStringRaw([]byte(renderTimestamp(v.I64, v.DateOnly)), row, maxBytesPerValue, budget, events)
	default:
		c.AppendNull()
	}
}

func (c *Column) appendCanonicalJSON(frag []byte, row int64, maxBytesPerValue int64, budget byteBudget, events *EventLog) {
	s, err := CanonicalJSON(frag)
	if err != nil {
		// Malformed fragment from an internal caller is a logic bug,
		// not user-data content; store it verbatim rather than panic.
		c.appendStringRaw(frag, row, maxBytesPerValue, budget, events)
		return
	}
	c.appendStringRaw([]byte(s), row, maxBytesPerValue, budget, events)
}

// appendStringRaw truncates s to maxBytesPerValue on a UTF-8 boundary,
// charges the result against the shared byte-total budget, and stores
// whatever survives (possibly a further-truncated prefix, possibly
// nothing at all once the budget is exhausted).
func (c *Column) appendStringRaw(s []byte, row int64, maxBytesPerValue int64, budget byteBudget, events *EventLog) {
	c.appendStringRawMarked(s, row, maxBytesPerValue, budget, events, false)
}

func (c *Column) appendStringRawMarked(s []byte, row int64, maxBytesPerValue int64, budget byteBudget, events *EventLog, whitespace bool) {
	cut, truncated := s, false
	if maxBytesPerValue > 0 {
		cut, truncated = truncateUTF8(s, int(maxBytesPerValue))
	}
	if truncated {
		events.ValueTruncated(row, c.Name)
	}
	fit, n := budget.tryAppendBytes(len(cut))
	switch fit {
	case Refuse:
		c.AppendNull()
		return
	case Truncate:
		cut, _ = truncateUTF8(cut, n)
		if !truncated {
			events.ValueTruncated(row, c.Name)
		}
	}
	c.entries = append(c.entries, cellEntry{kind: KindString, s: cut, whitespace: whitespace})
}

// countLossyInts counts previously stored Int64-kind entries whose
// magnitude exceeds 2^53, for the one-time retroactive event emitted
// when an integer column widens to Float64.
func (c *Column) countLossyInts() int64 {
	var n int64
	for _, e := range c.entries {
		if !e.null && e.kind == KindInt64 && abs64(e.i64) > maxSafeIntInFloat {
			n++
		}
	}
	return n
}

// widenIntEntriesToFloat rewrites every stored Int64-kind entry to a
// Float64-kind entry with the equivalent value, used when an integer
// column widens to Float64 in place (not to String). Whitespace and
// other string entries are left untouched.
func (c *Column) widenIntEntriesToFloat() {
	for i, e := range c.entries {
		if e.null || e.kind != KindInt64 {
			continue
		}
		c.entries[i] = cellEntry{kind: KindFloat64, f64: float64(e.i64)}
	}
}

// widenNumericToString converts every stored entry to its canonical
// string rendering and switches the column to String, per spec §4.4:
// "promote entire column to String, rendering each previously-stored
// number"; whitespace-suppressed entries are restored verbatim and do
// not count toward numbers_seen_as_string.
func (c *Column) widenNumericToString(row int64, events *EventLog) {
	var numeric int64
	for i, e := range c.entries {
		if e.null {
			continue
		}
		if e.whitespace {
			continue // already stores its original text; leave as-is.
		}
		switch e.kind {
		case KindInt64:
			numeric++
			c.entries[i] = cellEntry{kind: KindString, s: []byte(renderInt64(e.i64))}
		case KindFloat64:
			numeric++
			if e.format != "" {
				c.entries[i] = cellEntry{kind: KindString, s: []byte(renderFormattedNumber(e.f64, e.format))}
			} else {
				c.entries[i] = cellEntry{kind: KindString, s: []byte(renderFloat64(e.f64))}
			}
		}
	}
	if numeric > 0 {
		events.NumbersInterpretedAsString(numeric, row, c.Name)
	}
	c.Type = TypeString
}

// widenTimestampToString converts every stored timestamp entry to its
// ISO-8601 rendering (date-only or full, per the entry's DateOnly
// flag) and switches the column to String.
func (c *Column) widenTimestampToString(row int64, events *EventLog) {
	var count int64
	for i, e := range c.entries {
		if e.null || e.kind != KindTimestamp {
			continue
		}
		count++
		c.entries[i] = cellEntry{kind: KindString, s: []byte(renderTimestamp(e.i64, e.dateOnly))}
	}
	if count > 0 {
		events.TimestampsInterpretedAsString(count, row, c.Name)
	}
	c.Type = TypeString
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// renderFormattedNumber renders f using a minimal reading of Excel
// number-format directives: the number of '0'/'#' digits after the
// last '.' in format becomes the fixed decimal precision. Formats with
// no recognizable digit-count directive fall back to the generic
// shortest round-trip rendering.
func renderFormattedNumber(f float64, format string) string {
	digits, ok := decimalDigitsOf(format)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return renderFloat64(f)
	}
	return strconvFormatFixed(f, digits)
}

// decimalDigitsOf counts the '0'/'#' digit placeholders after the last
// '.' in an Excel-style number format string, e.g. "#.00" -> (2, true).
func decimalDigitsOf(format string) (int, bool) {
	dot := -1
	for i := len(format) - 1; i >= 0; i-- {
		if format[i] == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return 0, false
	}
	n := 0
	for i := dot + 1; i < len(format); i++ {
		switch format[i] {
		case '0', '#':
			n++
		default:
			return n, n > 0
		}
	}
	return n, n > 0
}
