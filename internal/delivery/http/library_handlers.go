package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bibee/backend/internal/domain"
	"github.com/bibee/backend/internal/middleware"
	"github.com/bibee/backend/internal/usecase"
)

// writeLibraryError maps a persona or project usecase error to the
// response. action names the operation in the 500 message.
func (h *Handler) writeLibraryError(w http.ResponseWriter, r *http.Request, err error, action string) {
	if verr, ok := usecase.IsValidationError(err); ok {
		writeValidationError(w, map[string]string{verr.Field: verr.Message})
		return
	}
	switch {
	case errors.Is(err, usecase.ErrPersonaNotFound):
		writeError(w, http.StatusNotFound, "Voice persona not found")
	case errors.Is(err, usecase.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, "Project not found")
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.log.ErrorContext(r.Context(), action+" failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		h.log.ErrorContext(r.Context(), action+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

// ownedResource returns the caller's id and the {id} path parameter. A
// malformed id is answered with notFound, as an unknown one would be.
func ownedResource(w http.ResponseWriter, r *http.Request, notFound string) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.Unauthorized(w)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, notFound)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

// Voice persona handlers

func (h *Handler) CreatePersona(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.Unauthorized(w)
		return
	}

	var input usecase.CreatePersonaInput
	if !decodeRequest(w, r, &input) {
		return
	}

	persona, err := h.personaUsecase.Create(r.Context(), userID, &input)
	if err != nil {
		h.writeLibraryError(w, r, err, "create voice persona")
		return
	}

	writeJSON(w, http.StatusCreated, persona)
}

func (h *Handler) ListPersonas(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.Unauthorized(w)
		return
	}

	limit, offset := pageParams(r)
	result, err := h.personaUsecase.List(r.Context(), userID, r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		h.writeLibraryError(w, r, err, "list voice personas")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetPersona(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ownedResource(w, r, "Voice persona not found")
	if !ok {
		return
	}

	persona, err := h.personaUsecase.Get(r.Context(), userID, id)
	if err != nil {
		h.writeLibraryError(w, r, err, "get voice persona")
		return
	}

	writeJSON(w, http.StatusOK, persona)
}

func (h *Handler) UpdatePersona(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ownedResource(w, r, "Voice persona not found")
	if !ok {
		return
	}

	var input usecase.UpdatePersonaInput
	if !decodeRequest(w, r, &input) {
		return
	}

	persona, err := h.personaUsecase.Update(r.Context(), userID, id, &input)
	if err != nil {
		h.writeLibraryError(w, r, err, "update voice persona")
		return
	}

	writeJSON(w, http.StatusOK, persona)
}

func (h *Handler) DeletePersona(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ownedResource(w, r, "Voice persona not found")
	if !ok {
		return
	}

	if err := h.personaUsecase.Delete(r.Context(), userID, id); err != nil {
		h.writeLibraryError(w, r, err, "delete voice persona")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Deleted"})
}

// Project handlers

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.Unauthorized(w)
		return
	}

	var input usecase.CreateProjectInput
	if !decodeRequest(w, r, &input) {
		return
	}

	project, err := h.projectUsecase.Create(r.Context(), userID, &input)
	if err != nil {
		h.writeLibraryError(w, r, err, "create project")
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.Unauthorized(w)
		return
	}

	limit, offset := pageParams(r)
	result, err := h.projectUsecase.List(r.Context(), userID, r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		h.writeLibraryError(w, r, err, "list projects")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ownedResource(w, r, "Project not found")
	if !ok {
		return
	}

	project, err := h.projectUsecase.Get(r.Context(), userID, id)
	if err != nil {
		h.writeLibraryError(w, r, err, "get project")
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ownedResource(w, r, "Project not found")
	if !ok {
		return
	}

	var input usecase.UpdateProjectInput
	if !decodeRequest(w, r, &input) {
		return
	}

	project, err := h.projectUsecase.Update(r.Context(), userID, id, &input)
	if err != nil {
		h.writeLibraryError(w, r, err, "update project")
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ownedResource(w, r, "Project not found")
	if !ok {
		return
	}

	if err := h.projectUsecase.Delete(r.Context(), userID, id); err != nil {
		h.writeLibraryError(w, r, err, "delete project")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Deleted"})
}
