package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bacopilot/docorch/internal/admission"
	"github.com/bacopilot/docorch/internal/catalog"
	"github.com/bacopilot/docorch/internal/project"
)

// handleAdmission implements spec.md §6.1: POST /v1/projects/{id}/admission.
// A blocked request is a 422 with the verdict under "details"; a
// proceed-with-warning is a 200 with the verdict under "warnings".
func (s *Server) handleAdmission(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseProjectID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req AdmissionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := s.defaultMode
	if req.Mode != "" {
		mode = admission.Mode(req.Mode)
	}
	allowOverride := s.defaultAllow
	if req.AllowOverride != nil {
		allowOverride = *req.AllowOverride
	}

	verdict, err := s.evaluator.Evaluate(r.Context(), catalog.DocType(req.DocType), projectID, admission.Options{Mode: mode})
	if err != nil {
		if errors.Is(err, project.ErrInspectorFailure) {
			writeError(w, http.StatusInternalServerError, "project inspector unavailable: "+err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dto := toVerdictDTO(verdict)
	proceed := admission.Decide(verdict, allowOverride)

	if !proceed {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"details": dto})
		return
	}
	if verdict.WarningMessage != "" {
		writeJSON(w, http.StatusOK, map[string]any{"warnings": dto})
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func parseProjectID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "projectID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("invalid project id")
	}
	return id, nil
}
