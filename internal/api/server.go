// Package api exposes the descriptor facade and the shared-type resolver
// over HTTP with a chi router.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/holons/pkg/descriptors"
	"github.com/mesh-intelligence/holons/pkg/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 4 << 20

// shutdownTimeout bounds graceful shutdown in ListenAndServe.
const shutdownTimeout = 10 * time.Second

// Server routes HTTP requests to a Zome and a Resolver.
type Server struct {
	router   chi.Router
	zome     *descriptors.Zome
	resolver *descriptors.Resolver
	logger   *zap.SugaredLogger
}

// NewServer builds the router. A nil logger discards log output.
//
// Routes:
//
//	POST   /holon-descriptors              create
//	GET    /holon-descriptors              list latest revisions
//	GET    /holon-descriptors/{hash}       latest revision of the chain
//	PUT    /holon-descriptors/{hash}       update; {hash} is the original
//	DELETE /holon-descriptors/{hash}       delete
//	...    /property-descriptors           same shape
//	POST   /shared-types/resolve           run the resolver on a SharedTypesSet
func NewServer(zome *descriptors.Zome, resolver *descriptors.Resolver, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		router:   chi.NewRouter(),
		zome:     zome,
		resolver: resolver,
		logger:   logger,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/holon-descriptors", func(r chi.Router) {
		mount(r, s, resource[types.HolonDescriptor]{
			name:   "holon descriptor",
			create: zome.CreateHolonDescriptor,
			get:    zome.GetHolonDescriptor,
			update: func(ctx context.Context, original, previous types.ActionHash, d types.HolonDescriptor) (descriptors.HolonDescriptorRecord, error) {
				return zome.UpdateHolonDescriptor(ctx, descriptors.UpdateHolonDescriptorInput{
					OriginalHash: original, PreviousHash: previous, Updated: d,
				})
			},
			remove: zome.DeleteHolonDescriptor,
			list:   zome.GetAllHolonTypes,
		})
	})

	s.router.Route("/property-descriptors", func(r chi.Router) {
		mount(r, s, resource[types.PropertyDescriptor]{
			name:   "property descriptor",
			create: zome.CreatePropertyDescriptor,
			get:    zome.GetPropertyDescriptor,
			update: func(ctx context.Context, original, previous types.ActionHash, d types.PropertyDescriptor) (descriptors.PropertyDescriptorRecord, error) {
				return zome.UpdatePropertyDescriptor(ctx, descriptors.UpdatePropertyDescriptorInput{
					OriginalHash: original, PreviousHash: previous, Updated: d,
				})
			},
			remove: zome.DeletePropertyDescriptor,
			list:   zome.GetAllPropertyDescriptors,
		})
	})

	s.router.Post("/shared-types/resolve", s.handleResolve)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Infow("shutting down", "addr", addr)
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var set descriptors.SharedTypesSet
	if !s.decode(w, r, &set) {
		return
	}
	res, err := s.resolver.Resolve(r.Context(), set)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
