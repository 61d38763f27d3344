// Package httpapi exposes the collaboration service over HTTP/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"collabcore/internal/auth"
	"collabcore/internal/core"
	"collabcore/internal/report"
	"collabcore/pkg/domain"
)

// Handler routes HTTP requests to the collaboration, observation, user, and
// report operations. Everything except registration and login requires a
// bearer token.
type Handler struct {
	service  *core.Service
	auth     *auth.Service
	exporter *report.Exporter
}

// NewHandler constructs a Handler. The exporter may be nil, in which case the
// reports endpoint responds 503.
func NewHandler(service *core.Service, authSvc *auth.Service, exporter *report.Exporter) *Handler {
	return &Handler{service: service, auth: authSvc, exporter: exporter}
}

// Mux returns the routing table for the handler.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users", h.handleRegister)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.Handle("GET /users/{name}", h.authorized(h.handleGetUser))
	mux.Handle("POST /collaborations", h.authorized(h.handleCreateCollaboration))
	mux.Handle("GET /collaborations", h.authorized(h.handleListCollaborations))
	mux.Handle("GET /collaborations/{id}", h.authorized(h.handleGetCollaboration))
	mux.Handle("PUT /collaborations/{id}", h.authorized(h.handleUpdateCollaboration))
	mux.Handle("GET /collaborations/project/{id}", h.authorized(h.handleCollaborationsByProject))
	mux.Handle("GET /collaborations/stage/{id}", h.authorized(h.handleCollaborationsByStage))
	mux.Handle("POST /observations", h.authorized(h.handleCreateObservations))
	mux.Handle("PUT /observations/{id}", h.authorized(h.handleResolveObservation))
	mux.Handle("POST /reports", h.authorized(h.handleExportReport))
	return mux
}

type subjectKey struct{}

// authorized wraps a handler with bearer-token verification. The token
// subject is placed on the request context.
func (h *Handler) authorized(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		subject, err := h.auth.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), subjectKey{}, subject)))
	})
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password required")
		return
	}
	user, err := h.service.RegisterUser(r.Context(), req.Name, h.auth.HashSecret(req.Password))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": user.Name})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, ok, err := h.auth.Authenticate(r.Context(), req.Name, req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), r.PathValue("name"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": user.Name})
}

func (h *Handler) handleCreateCollaboration(w http.ResponseWriter, r *http.Request) {
	var in core.CreateCollaborationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	created, err := h.service.CreateCollaboration(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGetCollaboration(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetCollaboration(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUpdateCollaboration(w http.ResponseWriter, r *http.Request) {
	var in core.UpdateCollaborationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	out, err := h.service.UpdateCollaboration(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListCollaborations(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("inprogress")
	if raw == "" {
		out, err := h.service.ListCollaborations(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
		return
	}
	inProgress := strings.EqualFold(raw, "true")
	if !inProgress && !strings.EqualFold(raw, "false") {
		writeError(w, http.StatusBadRequest, "inprogress must be true or false")
		return
	}
	out, err := h.service.ListCollaborationsByRealization(r.Context(), inProgress)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCollaborationsByProject(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListCollaborationsByProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCollaborationsByStage(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListCollaborationsByStage(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateObservations(w http.ResponseWriter, r *http.Request) {
	var inputs []core.ObservationInput
	if !decodeJSON(w, r, &inputs) {
		return
	}
	stored, err := h.service.CreateObservations(r.Context(), inputs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handler) handleResolveObservation(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ResolveObservation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type reportRequest struct {
	Format string `json:"format"`
}

func (h *Handler) handleExportReport(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "report exporter not configured")
		return
	}
	req := reportRequest{Format: string(report.FormatCSV)}
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}
	artifact, err := h.exporter.Export(r.Context(), report.Format(req.Format))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, artifact)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case domain.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	case core.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
