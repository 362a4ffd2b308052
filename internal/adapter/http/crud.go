package http

import (
	"context"
	"net/http"
)

// ---------------------------------------------------------------------------
// Project-scoped CRUD handler factories
// ---------------------------------------------------------------------------

// handleList creates a handler that lists the resources of {projectId}.
func handleList[T any](listFn func(ctx context.Context, projectID string) ([]T, error), notFoundMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, _ := projectScope(r)
		items, err := listFn(r.Context(), projectID)
		if err != nil {
			writeDomainError(w, err, notFoundMsg)
			return
		}
		if items == nil {
			items = []T{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// handleGet creates a handler that retrieves one resource of {projectId} by {hookId}.
func handleGet[T any](getFn func(ctx context.Context, projectID, id string) (*T, error), notFoundMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, id := projectScope(r)
		item, err := getFn(r.Context(), projectID, id)
		if err != nil {
			writeDomainError(w, err, notFoundMsg)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// handleCreate creates a handler that decodes a JSON body and creates a resource in {projectId}.
func handleCreate[Req any, Res any](createFn func(ctx context.Context, projectID string, req *Req) (*Res, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, _ := projectScope(r)
		req, ok := readJSON[Req](w, r)
		if !ok {
			return
		}
		res, err := createFn(r.Context(), projectID, &req)
		if err != nil {
			writeDomainError(w, err, "creation failed")
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

// handleUpdate creates a handler that decodes a JSON body and updates {hookId} of {projectId}.
func handleUpdate[Req any, Res any](updateFn func(ctx context.Context, projectID, id string, req *Req) (*Res, error), notFoundMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, id := projectScope(r)
		req, ok := readJSON[Req](w, r)
		if !ok {
			return
		}
		res, err := updateFn(r.Context(), projectID, id, &req)
		if err != nil {
			writeDomainError(w, err, notFoundMsg)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// handleDelete creates a handler that deletes {hookId} of {projectId}.
func handleDelete(deleteFn func(ctx context.Context, projectID, id string) error, notFoundMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, id := projectScope(r)
		if err := deleteFn(r.Context(), projectID, id); err != nil {
			writeDomainError(w, err, notFoundMsg)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
