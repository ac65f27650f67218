package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jaekwang-park/taskapp/internal/docstore"
	"github.com/jaekwang-park/taskapp/internal/http/handler"
)

// NewRouter exposes the store the way json-server does: one route pair per
// collection, filters as query parameters.
func NewRouter(store *docstore.Store) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusNotFound, handler.CodeNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusMethodNotAllowed, handler.CodeMethodNotAllowed, "method not allowed")
	})

	// Registered before the collection routes so "health" never resolves as a collection.
	r.Handle("/health", handler.NewHealthHandler(store))

	docs := handler.NewCollectionHandler(store)
	r.HandleFunc("/", docs.Index).Methods(http.MethodGet)
	r.HandleFunc("/{collection}", docs.List).Methods(http.MethodGet)
	r.HandleFunc("/{collection}", docs.Create).Methods(http.MethodPost)
	r.HandleFunc("/{collection}/{id}", docs.Get).Methods(http.MethodGet)
	r.HandleFunc("/{collection}/{id}", docs.Replace).Methods(http.MethodPut)
	r.HandleFunc("/{collection}/{id}", docs.Patch).Methods(http.MethodPatch)
	r.HandleFunc("/{collection}/{id}", docs.Delete).Methods(http.MethodDelete)

	return r
}
