package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/holons/internal/cache"
	"github.com/mesh-intelligence/holons/pkg/descriptors"
	"github.com/mesh-intelligence/holons/pkg/sqlite"
	"github.com/mesh-intelligence/holons/pkg/types"
)

var (
	success = color.New(color.FgGreen)
	faint   = color.New(color.Faint)
)

// session is an attached store with its facade. The caller must Close it.
type session struct {
	backend types.Backend
	cache   cache.Cache
	zome    *descriptors.Zome
}

// openSession attaches the configured backend, wraps it with the
// configured cache, and builds the Zome over the result.
func (a *app) openSession() (*session, error) {
	backend := sqlite.NewBackend(sqlite.WithLogger(a.logger))
	if err := backend.Attach(a.cfg); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}

	var store types.Store = backend
	c, err := cache.New(a.cfg.Cache)
	if err != nil {
		backend.Detach()
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if c != nil {
		store = cache.NewCachedStore(backend, c, a.logger)
		a.logger.Debugw("cache enabled", "backend", a.cfg.Cache.GetBackend())
	}

	return &session{
		backend: backend,
		cache:   c,
		zome:    descriptors.NewZome(store, a.logger),
	}, nil
}

func (s *session) Close() error {
	if s.cache != nil {
		s.cache.Close()
	}
	return s.backend.Detach()
}

// withZome runs fn against a freshly opened session.
func (a *app) withZome(fn func(*descriptors.Zome) error) error {
	s, err := a.openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s.zome)
}

// readDocument decodes a JSON or YAML document from path, or from stdin
// when path is empty or "-". YAML is converted to JSON first so the
// types' JSON decoders apply.
func (a *app) readDocument(path string, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(a.in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return usageError(fmt.Errorf("read input: %w", err))
	}

	if isYAML(path, data) {
		if data, err = yamlToJSON(data); err != nil {
			return usageError(fmt.Errorf("parse %s: %w", displayName(path), err))
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return usageError(fmt.Errorf("parse %s: %w", displayName(path), err))
	}
	return nil
}

func isYAML(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	case ".json":
		return false
	}
	trimmed := strings.TrimSpace(string(data))
	return trimmed != "" && trimmed[0] != '{' && trimmed[0] != '['
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func displayName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

// parseHash parses an action hash argument.
func parseHash(s string) (types.ActionHash, error) {
	h, err := types.ParseActionHash(s)
	if err != nil {
		return types.ActionHash{}, usageError(err)
	}
	return h, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
