package arrowio

import (
	"bytes"
	"testing"

	"arrowtools/ingest"
)

func TestWriteProducesNonEmptyIPCFile(t *testing.T) {
	tbl := ingest.NewTable(ingest.Limits{MaxBytesPerValue: 1 << 20}, ingest.ColumnNameLimits{MaxBytes: 255})
	tbl.BeginRow()
	tbl.Cell(ingest.ByName("id"), ingest.Int64Value(1))
	tbl.Cell(ingest.ByName("name"), ingest.StringValue([]byte("alice")))
	tbl.EndRow()
	tbl.BeginRow()
	tbl.Cell(ingest.ByName("id"), ingest.Int64Value(2))
	tbl.Cell(ingest.ByName("name"), ingest.StringValue([]byte("bob")))
	tbl.EndRow()

	res := tbl.Finish()

	var buf bytes.Buffer
	if err := Write(&buf, res); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty IPC output")
	}
	magic := []byte("ARROW1")
	if !bytes.HasPrefix(buf.Bytes(), magic) {
		t.Fatalf("expected output to start with Arrow IPC magic, got %q", buf.Bytes()[:6])
	}
}
