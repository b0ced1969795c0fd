// Package roster exposes roster queries, conflict checks and assignment
// operations over HTTP.
package roster

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apiaudit "github.com/kilianp07/skyops/api/audit"
	"github.com/kilianp07/skyops/core/assign"
	"github.com/kilianp07/skyops/core/audit"
	"github.com/kilianp07/skyops/core/logger"
	"github.com/kilianp07/skyops/core/model"
	"github.com/kilianp07/skyops/core/monitoring"
	coreroster "github.com/kilianp07/skyops/core/roster"
	"github.com/kilianp07/skyops/core/status"
)

// Handler serves the /api routes.
type Handler struct {
	orch  *assign.Orchestrator
	store audit.Store
	log   logger.Logger
}

// NewRouter mounts every route on a chi router. A nil audit store leaves
// the log route out.
func NewRouter(orch *assign.Orchestrator, store audit.Store, log logger.Logger) http.Handler {
	h := &Handler{orch: orch, store: store, log: logger.OrNop(log)}
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/pilots", h.listPilots)
		r.Get("/drones", h.listDrones)
		r.Get("/missions", h.listMissions)
		r.Get("/roster/audit", h.auditRoster)
		r.Post("/conflicts/check", h.checkConflicts)
		r.Post("/{kind}/{id}/status", h.setStatus)
		r.Post("/assignments", h.assign)
		r.Post("/assignments/reconcile", h.reconcile)
		r.Post("/reassignments/plan", h.planReassignment)
		if store != nil {
			r.Method(http.MethodGet, "/assignments/log", apiaudit.NewLogHandler(store))
		}
	})
	return r
}

func (h *Handler) listPilots(w http.ResponseWriter, r *http.Request) {
	snap, err := h.orch.Snapshot(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	q := r.URL.Query()
	f := coreroster.PilotFilter{Skill: q.Get("skill"), Location: q.Get("location"), Status: q.Get("status")}
	out := coreroster.FilterPilots(snap.Pilots(), f)
	if out == nil {
		out = []model.Pilot{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listDrones(w http.ResponseWriter, r *http.Request) {
	snap, err := h.orch.Snapshot(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	q := r.URL.Query()
	f := coreroster.DroneFilter{Capability: q.Get("capability"), Location: q.Get("location"), Status: q.Get("status")}
	out := coreroster.FilterDrones(snap.Drones(), f)
	if out == nil {
		out = []model.Drone{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listMissions(w http.ResponseWriter, r *http.Request) {
	snap, err := h.orch.Snapshot(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	out := snap.Missions()
	if out == nil {
		out = []model.Mission{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) auditRoster(w http.ResponseWriter, r *http.Request) {
	snap, err := h.orch.Snapshot(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	issues := coreroster.Audit(snap)
	if issues == nil {
		issues = []coreroster.Issue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

type checkRequest struct {
	PilotID   string `json:"pilot_id"`
	DroneID   string `json:"drone_id"`
	MissionID string `json:"project_id"`
}

func (h *Handler) checkConflicts(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if !decode(w, r, &req) {
		return
	}
	report, err := h.orch.CheckConflicts(r.Context(), req.PilotID, req.DroneID, req.MissionID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.View())
}

type statusRequest struct {
	Status    string `json:"status"`
	MissionID string `json:"project_id"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.orch.SetStatus(r.Context(), kind, chi.URLParam(r, "id"), req.Status, req.MissionID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type assignResponse struct {
	assign.Result
	Conflicts any    `json:"report"`
	Message   string `json:"message"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.orch.AssignToMission(r.Context(), req.PilotID, req.DroneID, req.MissionID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignResponse{Result: res, Conflicts: res.Report.View(), Message: res.String()})
}

type planRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

type planResponse struct {
	assign.Plan
	Text string `json:"text"`
}

func (h *Handler) planReassignment(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !decode(w, r, &req) {
		return
	}
	plan, err := h.orch.PlanUrgentReassignment(r.Context(), req.From, req.To, req.Reason)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{Plan: plan, Text: plan.String()})
}

type reconcileRequest struct {
	Mode    string                         `json:"mode"`
	Partial *assign.PartialAssignmentError `json:"partial"`
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if !decode(w, r, &req) {
		return
	}
	mode, err := assign.ParseReconcileMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Partial == nil {
		writeError(w, http.StatusBadRequest, "partial is required")
		return
	}
	if err := h.orch.Reconcile(r.Context(), req.Partial, mode); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reconciled", "mode": mode.String()})
}

type errorBody struct {
	Error   string                         `json:"error"`
	Report  any                            `json:"report,omitempty"`
	Partial *assign.PartialAssignmentError `json:"partial,omitempty"`
}

// fail maps domain errors onto status codes. Errors that are not the
// caller's fault are logged and reported without detail.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	var (
		blocked *assign.ConflictBlockedError
		invalid *status.InvalidStatusError
		partial *assign.PartialAssignmentError
	)
	switch {
	case errors.As(err, &blocked):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Report: blocked.Report.View()})
	case errors.As(err, &partial):
		h.log.Errorf("partial assignment needs reconciliation: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Partial: partial})
	case errors.Is(err, assign.ErrStateChanged):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, coreroster.ErrNotFound), errors.Is(err, assign.ErrNothingAssigned):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &invalid), errors.Is(err, assign.ErrMissingID),
		errors.Is(err, model.ErrMissionRequired), errors.Is(err, status.ErrUnsupportedKind):
		writeError(w, http.StatusBadRequest, err.Error())
	case assign.IsRetryable(err):
		h.log.Warnf("request failed, retryable: %v", err)
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Errorf("request failed: %v", err)
		monitoring.CaptureException(err, nil)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+strings.TrimSpace(err.Error()))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
