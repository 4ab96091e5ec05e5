package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	idsvc "github.com/rzbill/bigid/internal/services/ids"
	"github.com/rzbill/bigid/pkg/id"
)

// IDsController serves ID issuance and decoding.
type IDsController struct {
	svc *idsvc.Service
}

// NewIDsController creates a new IDs controller.
func NewIDsController(svc *idsvc.Service) *IDsController {
	return &IDsController{svc: svc}
}

// RegisterRoutes registers the /v1/ids routes with the given mux.
func (c *IDsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/ids/next", c.handleNext)
	mux.HandleFunc("/v1/ids/batch", c.handleBatch)
	mux.HandleFunc("/v1/ids/decode", c.handleDecode)
}

// handleNext issues one ID from ?namespace= (default namespace when empty).
func (c *IDsController) handleNext(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	ns := c.svc.Namespace(r.URL.Query().Get("namespace"))
	v, err := c.svc.Next(r.Context(), ns)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, nextResp{ID: v.String(), Namespace: ns})
}

// handleBatch issues count IDs. POST takes a JSON body; GET reads
// ?namespace= and ?count=.
func (c *IDsController) handleBatch(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	var req batchReq
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	} else {
		req.Namespace = r.URL.Query().Get("namespace")
		n, err := parseCount(r.URL.Query().Get("count"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid count")
			return
		}
		req.Count = n
	}
	ns := c.svc.Namespace(req.Namespace)
	ids, err := c.svc.Batch(r.Context(), ns, req.Count)
	if err != nil && len(ids) == 0 {
		writeServiceError(w, err)
		return
	}
	resp := batchResp{IDs: idStrings(ids), Namespace: ns}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSONStatus(w, StatusFor(err), resp)
}

// handleDecode splits ?id= (decimal or 0x hex) into its fields.
func (c *IDsController) handleDecode(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	v, err := id.Parse(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := c.svc.Decode(v)
	writeJSON(w, decodeResp{ID: v.String(), Hex: v.Hex(), Time: p.Time().Format(time.RFC3339Nano), Parts: p})
}
