// Package export renders a session's stored snapshot into the sectioned CSV
// document the podholder expects.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pitchpod/pitchpod-go/internal/datastore"
)

// Section markers and fixed headers of the sync document. The podholder
// firmware splits on these exact lines; do not reformat them.
const (
	sectionMetadata  = "### SESSION METADATA ###"
	sectionExercises = "### EXERCISES ###"
	sectionRawData   = "### RAW DATA ###"

	exercisesHeader = "Type,Start_TS,End_TS,Players"
	rawDataHeader   = "player_id,timestamp_ms,acc_x,acc_y,acc_z,quat_w,quat_x,quat_y,quat_z,lat,lon,heartrate"
)

// Document is a rendered sync file ready for upload.
type Document struct {
	Filename string
	Content  string
}

// Exporter renders sync documents from the local store. It never writes;
// exporting a session any number of times leaves the store untouched.
type Exporter struct {
	store datastore.Interface
}

// New creates an exporter over the given store.
func New(store datastore.Interface) *Exporter {
	return &Exporter{store: store}
}

// Export renders the sync document for a session. The document always
// carries all three sections in order; a session without exercises or
// readings produces headers with no rows. Fails only when the session id
// does not exist.
func (e *Exporter) Export(sessionID string) (Document, error) {
	session, err := e.store.GetSession(sessionID)
	if err != nil {
		return Document{}, err
	}
	exercises, err := e.store.GetExercises(sessionID)
	if err != nil {
		return Document{}, err
	}
	readings, err := e.store.GetRawReadings(sessionID)
	if err != nil {
		return Document{}, err
	}

	var b strings.Builder

	b.WriteString(sectionMetadata + "\n")
	fmt.Fprintf(&b, "Session ID: %s\n", session.SessionID)
	fmt.Fprintf(&b, "Event Name: %s\n", session.EventName)
	fmt.Fprintf(&b, "Event Type: %s\n", session.EventType)
	fmt.Fprintf(&b, "Event Date: %s\n", session.EventDate)
	fmt.Fprintf(&b, "Location: %s\n", session.Location)
	fmt.Fprintf(&b, "Field: %s\n", session.Field)
	fmt.Fprintf(&b, "Notes: %s\n", session.Notes)
	fmt.Fprintf(&b, "Trim Start: %s\n", formatTrim(session.TrimStartTS))
	fmt.Fprintf(&b, "Trim End: %s\n", formatTrim(session.TrimEndTS))
	b.WriteString("\n")

	b.WriteString(sectionExercises + "\n")
	b.WriteString(exercisesHeader + "\n")
	for i := range exercises {
		ex := &exercises[i]
		players := make([]string, 0, len(ex.Players))
		for _, p := range ex.Players {
			players = append(players, p.PlayerID)
		}
		fmt.Fprintf(&b, "%s,%d,%d,%q\n", ex.Type, ex.StartTS, ex.EndTS, strings.Join(players, ";"))
	}
	b.WriteString("\n")

	b.WriteString(sectionRawData + "\n")
	b.WriteString(rawDataHeader + "\n")
	for i := range readings {
		writeReading(&b, &readings[i])
	}

	return Document{
		Filename: sessionID + "_synced.csv",
		Content:  b.String(),
	}, nil
}

// formatTrim renders an absolute trim bound, empty when no window was set.
func formatTrim(ts int64) string {
	if ts == 0 {
		return ""
	}
	return strconv.FormatInt(ts, 10)
}

func writeReading(b *strings.Builder, r *datastore.RawReading) {
	fields := []string{
		r.PlayerID,
		strconv.FormatInt(r.TimestampMs, 10),
		formatFloat(r.AccX), formatFloat(r.AccY), formatFloat(r.AccZ),
		formatFloat(r.QuatW), formatFloat(r.QuatX), formatFloat(r.QuatY), formatFloat(r.QuatZ),
		formatFloat(r.Lat), formatFloat(r.Lon),
		strconv.Itoa(r.Heartrate),
	}
	b.WriteString(strings.Join(fields, ","))
	b.WriteString("\n")
}

// formatFloat uses the shortest round-trippable representation so values
// survive an export/import cycle unchanged.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
