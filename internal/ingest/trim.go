// trim.go: absolute trim window computation and timestamp filtering.
package ingest

import (
	"iter"
	"math"
)

// NoTrimEnd marks an open-ended trim window.
const NoTrimEnd = int64(math.MaxInt64)

// Window is an absolute, inclusive time range computed from the capture's
// time origin and the relative trim offsets chosen on the trim screen.
type Window struct {
	AbsStart int64
	AbsEnd   int64
}

// NewWindow computes the absolute window for a capture. trimStartMs defaults
// to 0 and trimEndMs to NoTrimEnd, which keeps the window open-ended.
func NewWindow(sessionStartMs, trimStartMs, trimEndMs int64) Window {
	w := Window{
		AbsStart: sessionStartMs + trimStartMs,
		AbsEnd:   NoTrimEnd,
	}
	if trimEndMs != NoTrimEnd {
		w.AbsEnd = sessionStartMs + trimEndMs
	}
	return w
}

// Contains reports whether a timestamp falls inside the window, inclusive
// at both ends.
func (w Window) Contains(ts int64) bool {
	return ts >= w.AbsStart && ts <= w.AbsEnd
}

// TimedRow is a row whose timestamp has been validated by the filter.
type TimedRow struct {
	Row
	TimestampMs int64
}

// Filter emits the rows whose timestamps fall inside the window, in input
// order. Rows with unparsable timestamps are dropped through the dropped
// callback (row-level, non-fatal); pass nil to discard them silently. The
// filter is pure: it never mutates rows and has no other side effects.
func (w Window) Filter(rows iter.Seq[Row], dropped func(Row)) iter.Seq[TimedRow] {
	return func(yield func(TimedRow) bool) {
		for row := range rows {
			ts, ok := row.Timestamp()
			if !ok {
				if dropped != nil {
					dropped(row)
				}
				continue
			}
			if !w.Contains(ts) {
				continue
			}
			if !yield(TimedRow{Row: row, TimestampMs: ts}) {
				return
			}
		}
	}
}
