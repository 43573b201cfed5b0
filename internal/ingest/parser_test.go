package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchpod/pitchpod-go/internal/errors"
)

func TestParseBasicCapture(t *testing.T) {
	t.Parallel()

	capture, err := Parse("timestamp_ms,pod_serial,acc_x\n1000,POD_A,0.5\n1005,POD_B,0.7\n")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), capture.SessionStartMs)
	assert.Equal(t, 2, capture.Len())
	assert.Equal(t, 0, capture.DroppedRows())

	var rows []Row
	for row := range capture.Rows() {
		rows = append(rows, row)
	}
	require.Len(t, rows, 2)
	assert.Equal(t, "POD_A", rows[0].PodSerial)
	assert.Equal(t, "1000", rows[0].TimestampRaw)
	assert.InDelta(t, 0.5, rows[0].Float("acc_x"), 1e-9)
}

func TestParseStripsBOMAndCRLF(t *testing.T) {
	t.Parallel()

	capture, err := Parse("\uFEFF" + "timestamp_ms,pod_serial\r\n1000,POD_A\r\n1005,POD_B\r\n")
	require.NoError(t, err)
	assert.Equal(t, 2, capture.Len())
	assert.Equal(t, int64(1000), capture.SessionStartMs)
}

func TestParseRepairsWrappedTimestamps(t *testing.T) {
	t.Parallel()

	// The pod sometimes wraps a trailing numeric field across a line break:
	// "10" + "\n" + "00,POD_A,0.5" is one row, not two.
	capture, err := Parse("timestamp_ms,pod_serial,acc_x\n10\n00,POD_A,0.5\n1005,POD_B,0.7\n")
	require.NoError(t, err)
	require.Equal(t, 2, capture.Len())

	var rows []Row
	for row := range capture.Rows() {
		rows = append(rows, row)
	}
	assert.Equal(t, "1000", rows[0].TimestampRaw)
	assert.Equal(t, "POD_A", rows[0].PodSerial)
	assert.Equal(t, "1005", rows[1].TimestampRaw)
}

func TestParseDoesNotJoinCompleteRows(t *testing.T) {
	t.Parallel()

	// Complete rows also start with digits; the field-count check must keep
	// legitimate row boundaries intact.
	capture, err := Parse("timestamp_ms,pod_serial\n1000,POD_A\n1005,POD_B\n")
	require.NoError(t, err)
	assert.Equal(t, 2, capture.Len())
}

func TestParsePlayerFormatCapture(t *testing.T) {
	t.Parallel()

	capture, err := Parse("timestamp_ms,player_id,heartrate\n1000,player_7,120\n")
	require.NoError(t, err)
	require.Equal(t, 1, capture.Len())

	for row := range capture.Rows() {
		assert.Equal(t, "player_7", row.PlayerID)
		assert.Empty(t, row.PodSerial)
		assert.Equal(t, 120, row.Int("heartrate"))
	}
}

func TestParseDropsRowsMissingIdentity(t *testing.T) {
	t.Parallel()

	capture, err := Parse("timestamp_ms,pod_serial\n1000,POD_A\n1005,\n")
	require.NoError(t, err)
	assert.Equal(t, 1, capture.Len())
	assert.Equal(t, 1, capture.DroppedRows())
}

func TestParseFailsOnEmptyInput(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":            "",
		"header only":      "timestamp_ms,pod_serial\n",
		"missing columns":  "foo,bar\n1,2\n",
		"no timestamp col": "pod_serial,acc_x\nPOD_A,0.5\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoRows))
		})
	}
}

func TestParseFailsOnBadOrigin(t *testing.T) {
	t.Parallel()

	_, err := Parse("timestamp_ms,pod_serial\nabc,POD_A\n1000,POD_B\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadOrigin))
}

func TestCaptureRowsConsumedOnce(t *testing.T) {
	t.Parallel()

	capture, err := Parse("timestamp_ms,pod_serial\n1000,POD_A\n")
	require.NoError(t, err)

	for range capture.Rows() {
	}
	assert.Panics(t, func() { capture.Rows() })
}

func TestRowFieldAccessors(t *testing.T) {
	t.Parallel()

	row := Row{
		TimestampRaw: " 1000 ",
		Fields: map[string]string{
			"acc_x":     "0.25",
			"heartrate": "135",
			"garbled":   "x.y",
		},
	}

	ts, ok := row.Timestamp()
	require.True(t, ok)
	assert.Equal(t, int64(1000), ts)

	assert.InDelta(t, 0.25, row.Float("acc_x"), 1e-9)
	assert.Equal(t, 135, row.Int("heartrate"))
	assert.Zero(t, row.Float("garbled"), "malformed sensor values fall back to zero")
	assert.Zero(t, row.Int("absent"))

	row.TimestampRaw = "not-a-number"
	_, ok = row.Timestamp()
	assert.False(t, ok)
}
