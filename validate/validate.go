// Package validate implements the Arrow IPC file checks described in
// spec §4.8: each check is independently enabled/disabled and reports
// at most one failure line per check, naming the first column (or
// column name) that failed it.
package validate

import (
	"fmt"
	"io"
	"math"
	"os"
	"unicode/utf8"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/ipc"
	"github.com/apache/arrow/go/v12/arrow/memory"
)

// Checks is the full set of independently toggleable validations.
// ColumnNameMaxBytes of 0 disables that one check (it is the only
// check that takes a value, via "--check-column-name-max-bytes N").
type Checks struct {
	UTF8                    bool
	OffsetsDontOverflow     bool
	FloatsAllFinite         bool
	DictionaryValuesAllUsed bool
	DictionaryValuesNotNull bool
	DictionaryValuesUnique  bool
	ColumnNameControlChars  bool
	ColumnNameMaxBytes      int64
}

// DefaultChecks mirrors the original tool's factory defaults: every
// boolean check on, the column-name-max-bytes check off (0).
func DefaultChecks() Checks {
	return Checks{
		UTF8:                    true,
		OffsetsDontOverflow:     true,
		FloatsAllFinite:         true,
		DictionaryValuesAllUsed: true,
		DictionaryValuesNotNull: true,
		DictionaryValuesUnique:  true,
		ColumnNameControlChars:  true,
	}
}

// Names of every check, in the fixed order failures are reported.
const (
	CheckUTF8                = "utf8"
	CheckOffsetsDontOverflow = "offsets-dont-overflow"
	CheckFloatsAllFinite     = "floats-all-finite"
	CheckDictValuesAllUsed   = "dictionary-values-all-used"
	CheckDictValuesNotNull   = "dictionary-values-not-null"
	CheckDictValuesUnique    = "dictionary-values-unique"
	CheckColumnNameControl   = "column-name-control-characters"
	CheckColumnNameMaxBytes  = "column-name-max-bytes"
)

// File validates the Arrow IPC file at path against checks, returning
// one failure message per check that failed, in the fixed check order.
func File(path string, checks Checks) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("validate: opening %s: %w", path, err)
	}
	defer f.Close()
	return Reader(f, checks)
}

// Reader validates an Arrow IPC file read from r (must support
// io.ReaderAt, as the IPC file footer is read from the end).
func Reader(r interface {
	io.ReaderAt
	io.Seeker
}, checks Checks) ([]string, error) {
	mem := memory.NewGoAllocator()
	fr, err := ipc.NewFileReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, fmt.Errorf("validate: opening IPC file: %w", err)
	}
	defer fr.Close()

	failed := map[string]string{}
	report := func(check, detail string) {
		if _, done := failed[check]; done {
			return
		}
		if detail == "" {
			failed[check] = fmt.Sprintf("--check-%s failed on a column name", check)
			return
		}
		failed[check] = fmt.Sprintf("--check-%s failed on column %s", check, detail)
	}

	schema := fr.Schema()
	checkColumnNames(schema, checks, report)

	for i := 0; i < fr.NumRecords(); i++ {
		rec, err := fr.Record(i)
		if err != nil {
			return nil, fmt.Errorf("validate: reading record %d: %w", i, err)
		}
		checkRecord(rec, checks, report)
	}

	var failures []string
	for _, check := range []string{CheckUTF8, CheckOffsetsDontOverflow, CheckFloatsAllFinite, CheckDictValuesAllUsed,
		CheckDictValuesNotNull, CheckDictValuesUnique, CheckColumnNameControl, CheckColumnNameMaxBytes} {
		if msg, ok := failed[check]; ok {
			failures = append(failures, msg)
		}
	}
	return failures, nil
}

func checkColumnNames(schema *arrow.Schema, checks Checks, report func(check, detail string)) {
	var controlFailed, maxBytesFailed bool
	for _, f := range schema.Fields() {
		if checks.ColumnNameControlChars && !controlFailed && containsControlChar(f.Name) {
			report(CheckColumnNameControl, "")
			controlFailed = true
		}
		if checks.ColumnNameMaxBytes > 0 && !maxBytesFailed && int64(len(f.Name)) > checks.ColumnNameMaxBytes {
			report(CheckColumnNameMaxBytes, "")
			maxBytesFailed = true
		}
	}
}

func containsControlChar(s string) bool {
	for _, r := range s {
		if r == 0x7F || (r >= 0x00 && r <= 0x1F) {
			return true
		}
	}
	return false
}

// checkRecord runs the per-value checks over one record batch,
// reporting at most one failure per check within that batch; Reader's
// report closure drops a check already reported by an earlier batch.
func checkRecord(rec arrow.Record, checks Checks, report func(check, detail string)) {
	utf8Failed := false
	overflowFailed := false
	floatsFailed := false
	dictAllUsedFailed := false
	dictNotNullFailed := false
	dictUniqueFailed := false

	schema := rec.Schema()
	for i := 0; i < int(rec.NumCols()); i++ {
		col := rec.Column(i)
		name := schema.Field(i).Name

		switch arr := col.(type) {
		case *array.String:
			if checks.UTF8 && !utf8Failed && !stringColumnValid(arr) {
				report(CheckUTF8, name)
				utf8Failed = true
			}
			if checks.OffsetsDontOverflow && !overflowFailed && stringOffsetsOverflow(arr) {
				report(CheckOffsetsDontOverflow, name)
				overflowFailed = true
			}
		case *array.Float64:
			if checks.FloatsAllFinite && !floatsFailed && !floatsFinite(arr) {
				report(CheckFloatsAllFinite, name)
				floatsFailed = true
			}
		case *array.Dictionary:
			if checks.DictionaryValuesAllUsed && !dictAllUsedFailed && !dictAllUsed(arr) {
				report(CheckDictValuesAllUsed, name)
				dictAllUsedFailed = true
			}
			if checks.DictionaryValuesNotNull && !dictNotNullFailed && dictHasNullValue(arr) {
				report(CheckDictValuesNotNull, name)
				dictNotNullFailed = true
			}
			if checks.DictionaryValuesUnique && !dictUniqueFailed && !dictValuesUnique(arr) {
				report(CheckDictValuesUnique, name)
				dictUniqueFailed = true
			}
		}
	}
}

func stringColumnValid(arr *array.String) bool {
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		if !utf8.ValidString(arr.Value(i)) {
			return false
		}
	}
	return true
}

// stringOffsetsOverflow reports whether the column's offsets buffer is
// internally inconsistent: non-monotonic (a later offset smaller than
// an earlier one, which would make some value's length negative), or
// reaching past the end of the actual data buffer (spec §4.8 scenario
// S7: offsets claim more string data exists than was ever written).
func stringOffsetsOverflow(arr *array.String) bool {
	offsets := arr.ValueOffsets()
	if len(offsets) == 0 {
		return false
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return true
		}
	}
	buffers := arr.Data().Buffers()
	if len(buffers) < 3 || buffers[2] == nil {
		return false
	}
	dataLen := int32(buffers[2].Len())
	return offsets[len(offsets)-1] > dataLen
}

func floatsFinite(arr *array.Float64) bool {
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		v := arr.Value(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func dictAllUsed(arr *array.Dictionary) bool {
	used := make([]bool, arr.Dictionary().Len())
	codes := arr.Indices()
	idx, ok := codes.(*array.Int32)
	if !ok {
		return true
	}
	for i := 0; i < idx.Len(); i++ {
		if idx.IsNull(i) {
			continue
		}
		used[idx.Value(i)] = true
	}
	for _, u := range used {
		if !u {
			return false
		}
	}
	return true
}

func dictHasNullValue(arr *array.Dictionary) bool {
	dict := arr.Dictionary()
	for i := 0; i < dict.Len(); i++ {
		if dict.IsNull(i) {
			return true
		}
	}
	return false
}

func dictValuesUnique(arr *array.Dictionary) bool {
	dict, ok := arr.Dictionary().(*array.String)
	if !ok {
		return true
	}
	seen := make(map[string]bool, dict.Len())
	for i := 0; i < dict.Len(); i++ {
		if dict.IsNull(i) {
			continue
		}
		v := dict.Value(i)
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
