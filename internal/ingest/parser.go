// parser.go: turns raw capture file text into a sequence of typed candidate
// rows.
package ingest

import (
	"encoding/csv"
	"io"
	"iter"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/pitchpod/pitchpod-go/internal/errors"
)

// Column names the parser cares about. Everything else rides along in
// Row.Fields untouched.
const (
	ColumnTimestamp = "timestamp_ms"
	ColumnPodSerial = "pod_serial"
	ColumnPlayerID  = "player_id"
)

// File-level parse failures. Row-level problems are absorbed as drops and
// never surface as errors.
var (
	// ErrNoRows means the capture file contained no parsable data rows.
	ErrNoRows = errors.Newf("no rows after CSV parse").
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Build()

	// ErrBadOrigin means the first row's timestamp, the file's time origin,
	// was not numeric.
	ErrBadOrigin = errors.Newf("invalid timestamp_ms in CSV").
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Build()
)

// Row is one candidate reading parsed from a capture file. TimestampRaw is
// kept unparsed; the trim filter decides whether it is usable.
type Row struct {
	TimestampRaw string
	PodSerial    string
	PlayerID     string
	Fields       map[string]string
}

// Timestamp parses the row's timestamp. ok is false when the raw value is
// not a valid integer.
func (r *Row) Timestamp() (ts int64, ok bool) {
	ts, err := strconv.ParseInt(strings.TrimSpace(r.TimestampRaw), 10, 64)
	return ts, err == nil
}

// Float returns the named field as a float64, 0 when absent or malformed.
// Sensor columns are best-effort; a garbled accelerometer sample must not
// kill the row.
func (r *Row) Float(column string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Fields[column]), 64)
	if err != nil {
		return 0
	}
	return v
}

// Int returns the named field as an int, 0 when absent or malformed.
func (r *Row) Int(column string) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.Fields[column]))
	if err != nil {
		return 0
	}
	return v
}

// Capture is one parsed capture file: the session time origin plus the
// validated rows. Rows are handed out as a one-shot sequence.
type Capture struct {
	// SessionStartMs is the first row's timestamp, the file's time origin.
	SessionStartMs int64

	rows     []Row
	dropped  int
	consumed atomic.Bool
}

// DroppedRows returns the number of rows discarded at parse time.
func (c *Capture) DroppedRows() int {
	return c.dropped
}

// Len returns the number of valid candidate rows.
func (c *Capture) Len() int {
	return len(c.rows)
}

// Rows returns the candidate rows as a finite, non-restartable sequence.
// The sequence may be consumed once; a second call is a programming error.
func (c *Capture) Rows() iter.Seq[Row] {
	if c.consumed.Swap(true) {
		panic("ingest: capture rows already consumed")
	}
	return func(yield func(Row) bool) {
		for i := range c.rows {
			if !yield(c.rows[i]) {
				return
			}
		}
	}
}

// wrappedContinuation matches a line that looks like the tail of a wrapped
// numeric field: leading digits followed by a comma.
var wrappedContinuation = regexp.MustCompile(`^\d+,`)

// Parse turns raw CSV text for one capture file into a Capture. It
// normalizes the text, repairs the wrapped-timestamp device quirk, then
// tokenizes with header-based column lookup. Rows missing the required
// columns are dropped; a file with zero valid rows fails with ErrNoRows and
// a non-numeric time origin fails with ErrBadOrigin.
func Parse(csvText string) (*Capture, error) {
	normalized := normalize(csvText)

	lines := strings.Split(strings.TrimSpace(normalized), "\n")
	if len(lines) < 2 {
		return nil, ErrNoRows
	}

	header := splitFields(lines[0])
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	tsCol, hasTimestamp := columns[ColumnTimestamp]
	podCol, hasPod := columns[ColumnPodSerial]
	playerCol, hasPlayer := columns[ColumnPlayerID]
	if !hasTimestamp || (!hasPod && !hasPlayer) {
		// Every row would fail its required-column check.
		return nil, ErrNoRows
	}

	body := repairWrappedLines(lines[1:], len(header))

	reader := csv.NewReader(strings.NewReader(strings.Join(body, "\n")))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	capture := &Capture{}
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed single row; drop it and keep going.
			capture.dropped++
			continue
		}

		if first {
			first = false
			// The first row establishes the session time origin even if the
			// row itself is later dropped.
			if len(record) <= tsCol {
				return nil, ErrBadOrigin
			}
			origin, err := strconv.ParseInt(strings.TrimSpace(record[tsCol]), 10, 64)
			if err != nil {
				return nil, ErrBadOrigin
			}
			capture.SessionStartMs = origin
		}

		row, ok := buildRow(record, header, tsCol, podCol, playerCol, hasPod, hasPlayer)
		if !ok {
			capture.dropped++
			continue
		}
		capture.rows = append(capture.rows, row)
	}

	if len(capture.rows) == 0 {
		return nil, ErrNoRows
	}
	return capture, nil
}

// buildRow validates the required columns and maps the record into a Row.
func buildRow(record, header []string, tsCol, podCol, playerCol int, hasPod, hasPlayer bool) (Row, bool) {
	if len(record) <= tsCol || strings.TrimSpace(record[tsCol]) == "" {
		return Row{}, false
	}

	row := Row{
		TimestampRaw: strings.TrimSpace(record[tsCol]),
		Fields:       make(map[string]string, len(header)),
	}
	for i, name := range header {
		if i < len(record) {
			row.Fields[strings.TrimSpace(name)] = record[i]
		}
	}

	if hasPod && podCol < len(record) {
		row.PodSerial = strings.TrimSpace(record[podCol])
	}
	if hasPlayer && playerCol < len(record) {
		row.PlayerID = strings.TrimSpace(record[playerCol])
	}
	if row.PodSerial == "" && row.PlayerID == "" {
		return Row{}, false
	}
	return row, true
}

// normalize strips a leading byte-order mark and folds line endings to LF.
func normalize(csvText string) string {
	csvText = strings.TrimPrefix(csvText, "\uFEFF")
	return strings.ReplaceAll(csvText, "\r", "")
}

// repairWrappedLines rejoins rows whose trailing numeric field a pod wrapped
// across a line break. A broken line holds fewer fields than the header and
// ends mid-number, and its continuation starts with digits followed by a
// comma. Complete rows also start with digits, so the field-count check is
// what keeps legitimate row boundaries intact.
func repairWrappedLines(lines []string, headerFields int) []string {
	repaired := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		for i+1 < len(lines) &&
			len(splitFields(line)) < headerFields &&
			endsWithDigit(line) &&
			wrappedContinuation.MatchString(lines[i+1]) {
			line += lines[i+1]
			i++
		}
		repaired = append(repaired, line)
	}
	return repaired
}

func splitFields(line string) []string {
	return strings.Split(line, ",")
}

func endsWithDigit(line string) bool {
	if line == "" {
		return false
	}
	c := line[len(line)-1]
	return c >= '0' && c <= '9'
}
