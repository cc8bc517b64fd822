// Package dshttp exposes the document store over HTTP. Routes follow the
// collection/document shape; the store assigns ids and timestamps.
package dshttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inkwell-app/inkwell/internal/docstore"
	"github.com/inkwell-app/inkwell/internal/model"
)

type DocumentHandler struct {
	store docstore.Store
}

func NewDocumentHandler(store docstore.Store) *DocumentHandler {
	return &DocumentHandler{store: store}
}

// CreateDocument POST /api/collections/{collection}/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.store.Documents().Create(r.Context(), collection, fields)
	if err != nil {
		WriteInternalError(w, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, out)
}

// GetDocument GET /api/collections/{collection}/documents/{docId}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	out, err := h.store.Documents().Get(r.Context(), v["collection"], v["docId"])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			WriteNotFound(w, "document not found")
			return
		}
		WriteInternalError(w, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

// PatchDocument PATCH /api/collections/{collection}/documents/{docId}
func (h *DocumentHandler) PatchDocument(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.store.Documents().Patch(r.Context(), v["collection"], v["docId"], fields)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			WriteNotFound(w, "document not found")
			return
		}
		WriteInternalError(w, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

// DeleteDocument DELETE /api/collections/{collection}/documents/{docId}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	err := h.store.Documents().Delete(r.Context(), v["collection"], v["docId"])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			WriteNotFound(w, "document not found")
			return
		}
		WriteInternalError(w, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QueryDocuments GET /api/collections/{collection}/documents
// Query params: filterField, filterValue, orderBy, direction, limit.
func (h *DocumentHandler) QueryDocuments(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	params := r.URL.Query()

	q := docstore.Query{
		Collection:  collection,
		FilterField: params.Get("filterField"),
		FilterValue: params.Get("filterValue"),
		OrderField:  params.Get("orderBy"),
		Descending:  params.Get("direction") != "asc",
	}
	if s := params.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			q.Limit = n
		}
	}

	out, err := h.store.Documents().QueryOrdered(r.Context(), q)
	if err != nil {
		WriteInternalError(w, err.Error())
		return
	}
	if out == nil {
		out = []*docstore.Document{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"documents": out, "count": len(out)})
}

// Health GET /api/health
func (h *DocumentHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthPing(r.Context()); err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewRouter wires the document store routes.
func NewRouter(store docstore.Store) *mux.Router {
	root := mux.NewRouter()
	root.Use(Recover)

	h := NewDocumentHandler(store)
	root.HandleFunc("/api/health", h.Health).Methods("GET")
	root.HandleFunc("/api/collections/{collection}/documents", h.CreateDocument).Methods("POST")
	root.HandleFunc("/api/collections/{collection}/documents", h.QueryDocuments).Methods("GET")
	root.HandleFunc("/api/collections/{collection}/documents/{docId}", h.GetDocument).Methods("GET")
	root.HandleFunc("/api/collections/{collection}/documents/{docId}", h.PatchDocument).Methods("PATCH")
	root.HandleFunc("/api/collections/{collection}/documents/{docId}", h.DeleteDocument).Methods("DELETE")
	return root
}
