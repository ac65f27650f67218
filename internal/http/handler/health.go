package handler

import "net/http"

type collectionLister interface {
	Collections() []string
}

type HealthHandler struct {
	store collectionLister
}

func NewHealthHandler(store collectionLister) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "only GET is allowed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"collections": h.store.Collections(),
	})
}
