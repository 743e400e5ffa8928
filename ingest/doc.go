/*
Package ingest implements the shared table-building engine used by the
JSON, XLS and XLSX converters.

A parser is a push-style producer: it walks its input and reports a
stream of (row, column, typed value) events to a *Table. The table
chooses a type per column through widening, enforces the configured
resource limits, truncates oversize values without producing invalid
UTF-8, and accumulates a log of what it had to do along the way.

Typical use from a parser:

	lim := ingest.Limits{MaxRows: 1_000_000, MaxColumns: 2000, MaxBytesPerValue: 32 * 1024, MaxBytesTotal: 1 << 30}
	tbl := ingest.NewTable(lim, ingest.ColumnNameLimits{MaxBytes: 255})
	for _, row := range rows {
		switch tbl.BeginRow() {
		case ingest.Stop:
			goto done
		case ingest.Skip:
			continue
		}
		for key, v := range row {
			tbl.Cell(ingest.ByName(key), v)
		}
		tbl.EndRow()
	}
done:
	result := tbl.Finish()
	result.Events.WriteTo(os.Stdout)

The engine never aborts on user-data content (malformed cells, limit
exhaustion, invalid names); those are recorded as events and the run
continues. It aborts only on a caller-visible Go panic from a logic
bug, never as part of its public contract.
*/
package ingest
