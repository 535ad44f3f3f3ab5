package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/branchstack/engine/internal/api/types"
	"github.com/branchstack/engine/internal/services"
)

type BranchesHandler struct {
	svc services.BranchService
}

func NewBranchesHandler(svc services.BranchService) *BranchesHandler {
	return &BranchesHandler{svc: svc}
}

func (h *BranchesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.CreateBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}

	branch, err := h.svc.RequestCreate(r.Context(), &services.CreateBranchInput{
		Name:          req.Name,
		Parent:        req.Parent,
		Resource:      chi.URLParam(r, "resource"),
		Strategy:      req.Strategy,
		Configuration: req.Configuration,
	})
	if err != nil {
		writeError(w, types.HTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: branch})
}

func (h *BranchesHandler) List(w http.ResponseWriter, r *http.Request) {
	branches, err := h.svc.List(r.Context(), chi.URLParam(r, "resource"))
	if err != nil {
		writeError(w, types.HTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Data:    branches,
		Meta:    &types.Meta{Total: int64(len(branches))},
	})
}

func (h *BranchesHandler) Get(w http.ResponseWriter, r *http.Request) {
	branch, err := h.svc.Get(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "resource"))
	if err != nil {
		writeError(w, types.HTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: branch})
}

func (h *BranchesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	branch, err := h.svc.RequestDelete(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "resource"))
	if err != nil {
		writeError(w, types.HTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: branch})
}

func (h *BranchesHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.History(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "resource"))
	if err != nil {
		writeError(w, types.HTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: events})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, types.APIResponse{Success: false, Error: types.FromAppError(err)})
}

func writeErrorStr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.APIResponse{Success: false, Error: &types.APIError{Code: "invalid", Message: msg}})
}
