package controllers

import (
	"net/http"

	idsvc "github.com/rzbill/bigid/internal/services/ids"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	ids     *IDsController
}

// NewControllerRegistry initializes all controllers over the ID service.
func NewControllerRegistry(svc *idsvc.Service) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(svc),
		ids:     NewIDsController(svc),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.ids.RegisterRoutes(mux)
}
