package handler

import (
	"net/http"

	"github.com/roundtable-ai/collaboration-platform/internal/model"
	"github.com/roundtable-ai/collaboration-platform/internal/provider"
)

// ProviderInfo describes one supported provider and its known models.
type ProviderInfo struct {
	Name   model.Provider `json:"name"`
	Models []string       `json:"models"`
}

// ListProvidersResponse is the response for listing providers.
type ListProvidersResponse struct {
	Providers []ProviderInfo `json:"providers"`
}

// ProvidersHandler serves the provider catalog.
type ProvidersHandler struct{}

// NewProvidersHandler creates a new providers handler.
func NewProvidersHandler() *ProvidersHandler {
	return &ProvidersHandler{}
}

// List handles GET /api/v1/providers.
func (h *ProvidersHandler) List(w http.ResponseWriter, r *http.Request) {
	resp := ListProvidersResponse{
		Providers: []ProviderInfo{
			{Name: model.ProviderOpenAI, Models: provider.Models(model.ProviderOpenAI)},
			{Name: model.ProviderAnthropic, Models: provider.Models(model.ProviderAnthropic)},
		},
	}
	writeJSON(w, http.StatusOK, resp)
}
