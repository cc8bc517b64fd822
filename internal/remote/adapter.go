// Package remote is the thin client over the hosted document store. The
// adapter holds no state beyond its connection settings; every call runs
// under a fixed deadline, and losing that race is indistinguishable from any
// other error to the caller.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/inkwell-app/inkwell/internal/docstore"
	"github.com/inkwell-app/inkwell/internal/model"
)

// DefaultTimeout is the deadline raced against every remote call when no
// override is configured.
const DefaultTimeout = 4 * time.Second

// Adapter issues create/read/update/delete/query calls against the document
// store service.
type Adapter struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// New constructs an Adapter with optional functional arguments.
func New(baseURL string, opts ...Option) (*Adapter, error) {
	a := &Adapter{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		timeout: DefaultTimeout,
	}

	if debugEnabled() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Query mirrors docstore.Query for callers that never see the service side.
type Query = docstore.Query

func (a *Adapter) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.timeout)
}

// Create stores a new document; the service assigns id and timestamps.
func (a *Adapter) Create(ctx context.Context, collection string, fields map[string]interface{}) (*docstore.Document, error) {
	ctx, cancel := a.deadline(ctx)
	defer cancel()

	u := fmt.Sprintf("%s/api/collections/%s/documents", a.baseURL, url.PathEscape(collection))
	var out docstore.Document
	if err := a.do(ctx, http.MethodPost, u, fields, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update merges patch into the stored document.
func (a *Adapter) Update(ctx context.Context, collection, id string, patch map[string]interface{}) (*docstore.Document, error) {
	ctx, cancel := a.deadline(ctx)
	defer cancel()

	u := fmt.Sprintf("%s/api/collections/%s/documents/%s", a.baseURL, url.PathEscape(collection), url.PathEscape(id))
	var out docstore.Document
	if err := a.do(ctx, http.MethodPatch, u, patch, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the document.
func (a *Adapter) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := a.deadline(ctx)
	defer cancel()

	u := fmt.Sprintf("%s/api/collections/%s/documents/%s", a.baseURL, url.PathEscape(collection), url.PathEscape(id))
	return a.do(ctx, http.MethodDelete, u, nil, http.StatusNoContent, nil)
}

// QueryOrdered returns the collection's documents matching q, ordered by the
// requested timestamp field.
func (a *Adapter) QueryOrdered(ctx context.Context, q Query) ([]*docstore.Document, error) {
	ctx, cancel := a.deadline(ctx)
	defer cancel()

	params := url.Values{}
	if q.FilterField != "" {
		params.Set("filterField", q.FilterField)
		params.Set("filterValue", q.FilterValue)
	}
	if q.OrderField != "" {
		params.Set("orderBy", q.OrderField)
	}
	if q.Descending {
		params.Set("direction", "desc")
	} else {
		params.Set("direction", "asc")
	}
	if q.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", q.Limit))
	}

	u := fmt.Sprintf("%s/api/collections/%s/documents?%s", a.baseURL, url.PathEscape(q.Collection), params.Encode())
	var out struct {
		Documents []*docstore.Document `json:"documents"`
	}
	if err := a.do(ctx, http.MethodGet, u, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// Health pings the service and reports round-trip latency.
func (a *Adapter) Health(ctx context.Context) (time.Duration, error) {
	ctx, cancel := a.deadline(ctx)
	defer cancel()

	start := time.Now()
	u := fmt.Sprintf("%s/api/health", a.baseURL)
	if err := a.do(ctx, http.MethodGet, u, nil, http.StatusOK, nil); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func (a *Adapter) do(ctx context.Context, method, u string, body interface{}, wantStatus int, out interface{}) error {
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrRemoteUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return model.ErrNotFound
	}
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("%s %s: status %d", method, u, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
