package transports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rzbill/bigid/pkg/id"
)

// HTTPTransport implements IDsTransport over the JSON API.
type HTTPTransport struct {
	baseURL func() string
	client  *http.Client
}

// NewHTTPTransport constructs an HTTPTransport. A nil client uses
// http.DefaultClient.
func NewHTTPTransport(baseURL func() string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{baseURL: baseURL, client: client}
}

// apiError is returned for non-2xx responses.
type apiError struct {
	Status int
	Msg    string
}

func (e *apiError) Error() string { return fmt.Sprintf("http %d: %s", e.Status, e.Msg) }

func (t *HTTPTransport) do(ctx context.Context, method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL()+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil && resp.StatusCode < 300 {
			return err
		}
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Msg: e.Error}
	}
	return nil
}

// Next issues one ID via POST /v1/ids/next.
func (t *HTTPTransport) Next(ctx context.Context, ns string) (id.ID, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := t.do(ctx, http.MethodPost, "/v1/ids/next?namespace="+url.QueryEscape(ns), nil, &out); err != nil {
		return 0, err
	}
	return id.Parse(out.ID)
}

// Batch issues IDs via POST /v1/ids/batch. IDs returned alongside an error
// are delivered before the error is reported.
func (t *HTTPTransport) Batch(ctx context.Context, ns string, count int, onID func(id.ID) error) error {
	var out struct {
		IDs []string `json:"ids"`
	}
	reqErr := t.do(ctx, http.MethodPost, "/v1/ids/batch", map[string]any{"namespace": ns, "count": count}, &out)
	for _, s := range out.IDs {
		v, err := id.Parse(s)
		if err != nil {
			return err
		}
		if err := onID(v); err != nil {
			return err
		}
	}
	return reqErr
}

// Decode calls GET /v1/ids/decode.
func (t *HTTPTransport) Decode(ctx context.Context, v id.ID) (Decoded, error) {
	var out Decoded
	err := t.do(ctx, http.MethodGet, "/v1/ids/decode?id="+v.String(), nil, &out)
	return out, err
}

// Namespaces calls GET /v1/namespaces.
func (t *HTTPTransport) Namespaces(ctx context.Context) ([]Namespace, error) {
	var out struct {
		Namespaces []Namespace `json:"namespaces"`
	}
	err := t.do(ctx, http.MethodGet, "/v1/namespaces", nil, &out)
	return out.Namespaces, err
}

// Events calls GET /v1/events.
func (t *HTTPTransport) Events(ctx context.Context, ns string, after uint64, limit int, reverse bool) (EventsPage, error) {
	q := url.Values{}
	q.Set("namespace", ns)
	if after > 0 {
		q.Set("after", strconv.FormatUint(after, 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if reverse {
		q.Set("order", "desc")
	}
	var out EventsPage
	err := t.do(ctx, http.MethodGet, "/v1/events?"+q.Encode(), nil, &out)
	return out, err
}
