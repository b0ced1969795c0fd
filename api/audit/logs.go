// Package audit serves the assignment audit trail over HTTP.
package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	coreaudit "github.com/kilianp07/skyops/core/audit"
	"github.com/kilianp07/skyops/core/events"
)

// NewLogHandler returns an HTTP handler exposing audit records via
// GET /api/assignments/log. Supported filters: start and end (RFC3339),
// entity_id, project_id, action and limit.
func NewLogHandler(store coreaudit.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []coreaudit.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func parseQuery(r *http.Request) (coreaudit.Query, error) {
	v := r.URL.Query()
	q := coreaudit.Query{
		EntityID:  v.Get("entity_id"),
		MissionID: v.Get("project_id"),
		Action:    events.Action(v.Get("action")),
	}
	if s := v.Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, err
		}
		q.Start = t
	}
	if s := v.Get("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, err
		}
		q.End = t
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, err
		}
		q.Limit = n
	}
	return q, nil
}
