package controllers

import (
	"net/http"
	"strconv"

	idsvc "github.com/rzbill/bigid/internal/services/ids"
)

// GeneralController handles health, namespace listing, stats and journals.
type GeneralController struct {
	svc *idsvc.Service
}

// NewGeneralController creates a new general controller.
func NewGeneralController(svc *idsvc.Service) *GeneralController {
	return &GeneralController{svc: svc}
}

// RegisterRoutes registers general routes with the given mux.
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/healthz", c.handleHealth)
	mux.HandleFunc("/v1/namespaces", c.handleListNamespaces)
	mux.HandleFunc("/v1/stats", c.handleStats)
	mux.HandleFunc("/v1/layout", c.handleLayout)
	mux.HandleFunc("/v1/events", c.handleEvents)
}

// handleHealth returns 200 {"status":"ok"} when storage is usable and 503
// {"status":"not_serving"} otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.svc.Health(r.Context()); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not_serving"})
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (c *GeneralController) handleListNamespaces(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	list, err := c.svc.Namespaces(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list namespaces")
		return
	}
	writeJSON(w, map[string]any{"namespaces": list})
}

func (c *GeneralController) handleStats(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, map[string]any{"generators": c.svc.Stats()})
}

func (c *GeneralController) handleLayout(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, c.svc.Layout())
}

// handleEvents pages through a namespace journal:
// ?namespace=&after=&limit=&order=desc
func (c *GeneralController) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	var after uint64
	if s := q.Get("after"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid after")
			return
		}
		after = n
	}
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	page, err := c.svc.Events(r.Context(), q.Get("namespace"), after, limit, q.Get("order") == "desc")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, page)
}
