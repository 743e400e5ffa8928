package ingest

// ValueKind tags the union carried by Value, mirroring the cell event
// payload described in spec §3.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInt64
	KindFloat64
	KindBool
	KindString
	KindTimestamp
	KindJSONFragment
	KindFormattedNumber
)

// Value is the tagged cell value a parser pushes for one (row, column)
// coordinate. Only the fields relevant to Kind are meaningful.
type Value struct {
	Kind ValueKind

	I64 int64   // Int64; Timestamp nanoseconds since epoch.
	F64 float64 // Float64; FormattedNumber's numeric value.
	B   bool    // Bool.
	S   []byte  // String; JsonFragment (raw, still-encoded JSON text).

	// Format is FormattedNumber's source format string (spreadsheet
	// number-format directives such as "#.00"); only meaningful when
	// Kind == KindFormattedNumber.
	Format string

	// DateOnly marks a Timestamp that originated from a date-only
	// spreadsheet format, so that widening to String renders it as
	// "YYYY-MM-DD" rather than a full timestamp (spec §4.4).
	DateOnly bool

	// OutOfRange marks a Timestamp whose source value fell outside the
	// representable domain (int64 nanoseconds, or the spreadsheet
	// 1900-9999 Gregorian domain); the column stores it as null and
	// counts it rather than interpreting I64.
	OutOfRange bool
}

func NullValue() Value { return Value{Kind: KindNull} }

func Int64Value(n int64) Value { return Value{Kind: KindInt64, I64: n} }

func Float64Value(f float64) Value { return Value{Kind: KindFloat64, F64: f} }

func BoolValue(b bool) Value { return Value{Kind: KindBool, B: b} }

func StringValue(s []byte) Value { return Value{Kind: KindString, S: s} }

func TimestampValue(ns int64) Value { return Value{Kind: KindTimestamp, I64: ns} }

func DateOnlyTimestampValue(ns int64) Value {
	return Value{Kind: KindTimestamp, I64: ns, DateOnly: true}
}

func OutOfRangeTimestampValue() Value {
	return Value{Kind: KindTimestamp, OutOfRange: true}
}

func JSONFragmentValue(s []byte) Value { return Value{Kind: KindJSONFragment, S: s} }

func FormattedNumberValue(f float64, format string) Value {
	return Value{Kind: KindFormattedNumber, F64: f, Format: format}
}
