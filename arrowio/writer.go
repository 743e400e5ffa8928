// Package arrowio renders an ingest.Result into the Arrow IPC file
// format: one schema message, one record batch, and a footer.
package arrowio

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/ipc"
	"github.com/apache/arrow/go/v12/arrow/memory"

	"arrowtools/ingest"
)

// Write builds a single Arrow IPC file from res at w. Every column
// becomes one field, in column order; every column's entries become
// exactly one record batch of res's row count.
func Write(w io.Writer, res ingest.Result) error {
	fields := make([]arrow.Field, len(res.Columns))
	for i, col := range res.Columns {
		fields[i] = arrow.Field{Name: col.Name, Type: arrowType(col.Type), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	mem := memory.NewGoAllocator()
	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("arrowio: opening file writer: %w", err)
	}

	bldr := array.NewRecordBuilder(mem, schema)
	defer bldr.Release()

	for i, col := range res.Columns {
		if err := fillBuilder(bldr.Field(i), col); err != nil {
			return fmt.Errorf("arrowio: column %q: %w", col.Name, err)
		}
	}

	rec := bldr.NewRecord()
	defer rec.Release()

	if err := fw.Write(rec); err != nil {
		return fmt.Errorf("arrowio: writing record batch: %w", err)
	}
	return fw.Close()
}

func arrowType(t ingest.ColumnType) arrow.DataType {
	switch t {
	case ingest.TypeInt8:
		return arrow.PrimitiveTypes.Int8
	case ingest.TypeInt16:
		return arrow.PrimitiveTypes.Int16
	case ingest.TypeInt32:
		return arrow.PrimitiveTypes.Int32
	case ingest.TypeInt64:
		return arrow.PrimitiveTypes.Int64
	case ingest.TypeFloat64:
		return arrow.PrimitiveTypes.Float64
	case ingest.TypeTimestamp:
		return arrow.FixedWidthTypes.Timestamp_ns
	default:
		return arrow.BinaryTypes.String
	}
}

// fillBuilder appends every entry of col, in order, into an
// already-typed array.Builder matching col.Type.
func fillBuilder(b array.Builder, col *ingest.Column) error {
	switch col.Type {
	case ingest.TypeInt8:
		bb := b.(*array.Int8Builder)
		col.EachEntry(func(e ingest.EntryView) {
			if e.Null || e.IsText {
				bb.AppendNull()
				return
			}
			bb.Append(int8(e.I64))
		})
	case ingest.TypeInt16:
		bb := b.(*array.Int16Builder)
		col.EachEntry(func(e ingest.EntryView) {
			if e.Null || e.IsText {
				bb.AppendNull()
				return
			}
			bb.Append(int16(e.I64))
		})
	case ingest.TypeInt32:
		bb := b.(*array.Int32Builder)
		col.EachEntry(func(e ingest.EntryView) {
			if e.Null || e.IsText {
				bb.AppendNull()
				return
			}
			bb.Append(int32(e.I64))
		})
	case ingest.TypeInt64:
		bb := b.(*array.Int64Builder)
		col.EachEntry(func(e ingest.EntryView) {
			if e.Null || e.IsText {
				bb.AppendNull()
				return
			}
			bb.Append(e.I64)
		})
	case ingest.TypeFloat64:
		bb := b.(*array.Float64Builder)
		col.EachEntry(func(e ingest.EntryView) {
			if e.Null || e.IsText {
				bb.AppendNull()
				return
			}
			bb.Append(e.F64)
		})
	case ingest.TypeTimestamp:
		bb := b.(*array.TimestampBuilder)
		col.EachEntry(func(e ingest.EntryView) {
			if e.Null || e.IsText {
				bb.AppendNull()
				return
			}
			bb.Append(arrow.Timestamp(e.I64))
		})
	default:
		bb := b.(*array.StringBuilder)
		col.EachEntry(func(e ingest.EntryView) {
			if e.Null {
				bb.AppendNull()
				return
			}
			bb.Append(e.Text)
		})
	}
	return nil
}
