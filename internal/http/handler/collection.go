package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/jaekwang-park/taskapp/internal/docstore"
)

const maxDocumentSize = 1 << 20 // 1 MB

// CollectionHandler serves json-server style CRUD over a docstore.Store.
// Routes provide the "collection" and, for item routes, "id" path variables.
type CollectionHandler struct {
	store *docstore.Store
}

func NewCollectionHandler(store *docstore.Store) *CollectionHandler {
	return &CollectionHandler{store: store}
}

// Index lists the collection names; it doubles as a reachability probe.
func (h *CollectionHandler) Index(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.store.Collections())
}

func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.List(mux.Vars(r)["collection"], r.URL.Query())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, docs)
}

func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	doc, err := h.store.Get(vars["collection"], vars["id"])
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, doc)
}

func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	doc, ok := decodeDocument(w, r)
	if !ok {
		return
	}
	created, err := h.store.Create(mux.Vars(r)["collection"], doc)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

func (h *CollectionHandler) Replace(w http.ResponseWriter, r *http.Request) {
	doc, ok := decodeDocument(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	updated, err := h.store.Replace(vars["collection"], vars["id"], doc)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

func (h *CollectionHandler) Patch(w http.ResponseWriter, r *http.Request) {
	doc, ok := decodeDocument(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	updated, err := h.store.Patch(vars["collection"], vars["id"], doc)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.Delete(vars["collection"], vars["id"]); err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{})
}

func decodeDocument(w http.ResponseWriter, r *http.Request) (docstore.Document, bool) {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		WriteError(w, http.StatusUnsupportedMediaType, CodeUnsupportedMediaType, "content type must be application/json")
		return nil, false
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	dec.UseNumber()

	var doc docstore.Document
	if err := dec.Decode(&doc); err != nil || doc == nil {
		WriteError(w, http.StatusBadRequest, CodeInvalidJSON, "request body must be a JSON object")
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, CodeInvalidJSON, "request body must contain a single JSON object")
		return nil, false
	}
	return doc, true
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, docstore.ErrUnknownCollection), errors.Is(err, docstore.ErrNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound, "resource not found")
	case errors.Is(err, docstore.ErrConflict):
		WriteError(w, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, docstore.ErrInvalidDocument):
		WriteError(w, http.StatusBadRequest, CodeInvalidDocument, err.Error())
	default:
		slog.ErrorContext(r.Context(), "store operation failed", "error", err, "path", r.URL.Path)
		WriteError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}
