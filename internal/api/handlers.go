package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mesh-intelligence/holons/pkg/descriptors"
	"github.com/mesh-intelligence/holons/pkg/types"
)

// resource binds the five descriptor operations of one descriptor kind.
type resource[T any] struct {
	name   string
	create func(context.Context, T) (descriptors.Revision[T], error)
	get    func(context.Context, types.ActionHash) (descriptors.Revision[T], error)
	update func(ctx context.Context, original, previous types.ActionHash, d T) (descriptors.Revision[T], error)
	remove func(context.Context, types.ActionHash) (types.ActionHash, error)
	list   func(context.Context) ([]descriptors.Revision[T], error)
}

// updateRequest is the PUT body. The original comes from the path.
type updateRequest[T any] struct {
	PreviousHash types.ActionHash `json:"previous_hash"`
	Updated      T                `json:"updated"`
}

// deleteResponse reports the delete action.
type deleteResponse struct {
	DeleteHash types.ActionHash `json:"delete_hash"`
}

func mount[T any](r chi.Router, s *Server, res resource[T]) {
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var d T
		if !s.decode(w, r, &d) {
			return
		}
		rec, err := res.create(r.Context(), d)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.logger.Debugw("created "+res.name, "action_hash", rec.ActionHash.String())
		writeJSON(w, http.StatusCreated, rec)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		recs, err := res.list(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if recs == nil {
			recs = []descriptors.Revision[T]{}
		}
		writeJSON(w, http.StatusOK, recs)
	})

	r.Get("/{hash}", func(w http.ResponseWriter, r *http.Request) {
		hash, ok := s.hashParam(w, r)
		if !ok {
			return
		}
		rec, err := res.get(r.Context(), hash)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	r.Put("/{hash}", func(w http.ResponseWriter, r *http.Request) {
		original, ok := s.hashParam(w, r)
		if !ok {
			return
		}
		var req updateRequest[T]
		if !s.decode(w, r, &req) {
			return
		}
		rec, err := res.update(r.Context(), original, req.PreviousHash, req.Updated)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	r.Delete("/{hash}", func(w http.ResponseWriter, r *http.Request) {
		hash, ok := s.hashParam(w, r)
		if !ok {
			return
		}
		deleteHash, err := res.remove(r.Context(), hash)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, deleteResponse{DeleteHash: deleteHash})
	})
}

func (s *Server) hashParam(w http.ResponseWriter, r *http.Request) (types.ActionHash, bool) {
	hash, err := types.ParseActionHash(chi.URLParam(r, "hash"))
	if err != nil {
		s.writeError(w, r, err)
		return types.ActionHash{}, false
	}
	return hash, true
}
