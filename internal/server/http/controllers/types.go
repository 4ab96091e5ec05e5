package controllers

import "github.com/rzbill/bigid/pkg/id"

// Common request/response types for HTTP controllers

// nextResp is returned by /v1/ids/next.
type nextResp struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
}

// batchReq asks for Count IDs from Namespace.
type batchReq struct {
	Namespace string `json:"namespace"`
	Count     int    `json:"count"`
}

// batchResp carries the issued IDs. Error is set when the batch stopped
// early; IDs then holds what was issued before it.
type batchResp struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace"`
	Error     string   `json:"error,omitempty"`
}

// decodeResp is the decoded form of an ID.
type decodeResp struct {
	ID   string `json:"id"`
	Hex  string `json:"hex"`
	Time string `json:"time"`
	id.Parts
}
