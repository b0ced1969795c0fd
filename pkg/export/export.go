// Package export writes assignment decision records for offline review.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/kilianp07/skyops/core/audit"
)

var csvHeader = []string{"id", "timestamp", "action", "pilot_id", "drone_id", "project_id", "kind", "status", "conflicts", "error"}

// WriteJSON writes the records to w as one JSON array.
func WriteJSON(w io.Writer, records []audit.Record) error {
	if records == nil {
		records = []audit.Record{}
	}
	return json.NewEncoder(w).Encode(records)
}

// WriteCSV writes the records to w with a header row. Conflict kinds are
// joined with a semicolon.
func WriteCSV(w io.Writer, records []audit.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		kinds := make([]string, 0, len(r.Findings))
		for _, f := range r.Findings {
			kinds = append(kinds, string(f.Kind))
		}
		rec := []string{
			r.ID,
			r.Timestamp.Format(time.RFC3339),
			string(r.Action),
			r.PilotID,
			r.DroneID,
			r.MissionID,
			r.Kind,
			r.Status,
			strings.Join(kinds, ";"),
			r.Error,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
