package handlers

import (
	"net/http"

	"github.com/branchstack/engine/internal/api/types"
	"github.com/branchstack/engine/internal/strategy"
)

type ResourcesHandler struct {
	registry *strategy.Registry
}

func NewResourcesHandler(registry *strategy.Registry) *ResourcesHandler {
	return &ResourcesHandler{registry: registry}
}

// List reports the resource types the engine can branch and the strategies
// registered for each.
func (h *ResourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: h.registry.Resources()})
}
