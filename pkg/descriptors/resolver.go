package descriptors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/holons/pkg/types"
)

// SharedTypesSet is the input to a resolution run: descriptors to store
// and reference by name, and composites whose Shared usages name them.
type SharedTypesSet struct {
	SharedTypes      []types.PropertyDescriptor `json:"shared_types" yaml:"shared_types"`
	ReferencingTypes []types.PropertyDescriptor `json:"referencing_types" yaml:"referencing_types"`
}

// ResolvedType is a descriptor stored by a resolution run.
type ResolvedType struct {
	TypeName   string                   `json:"type_name"`
	ActionHash types.ActionHash         `json:"action_hash"`
	Descriptor types.PropertyDescriptor `json:"descriptor"`
}

// Resolution is the result of a resolution run.
type Resolution struct {
	// SharedHashes maps each shared type name to its create action.
	SharedHashes map[string]types.ActionHash `json:"shared_hashes"`

	// Shared lists the stored shared types in creation order: input order,
	// except that a shared composite follows the shared types it names.
	Shared []ResolvedType `json:"shared"`

	// Referencing lists the stored, rewritten composites in input order.
	Referencing []ResolvedType `json:"referencing"`
}

// Resolver stores shared types and the composites that reference them by
// name. It keeps no state between runs.
type Resolver struct {
	zome   *Zome
	logger *zap.SugaredLogger
}

// NewResolver returns a Resolver persisting through zome. A nil logger
// discards log output.
func NewResolver(zome *Zome, logger *zap.SugaredLogger) *Resolver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Resolver{zome: zome, logger: logger}
}

// Resolve runs the three phases over set:
//
//  1. Create every shared type, record type_name → action hash, and verify
//     the fetched copy matches what was submitted. A shared composite may
//     name other shared types; it is rewritten like a referencing type and
//     created after them.
//  2. For each referencing composite, rewrite every Shared usage (nested
//     composites included) to carry the recorded hash, then create it.
//  3. Fetch each stored composite back and verify every resolved reference
//     leads to a descriptor equal to the stored shared type.
//
// Invalid descriptors, duplicate shared names, non-composite referencing
// types, references to undeclared names and reference cycles among shared
// types are reported before anything is created. Storage errors abort the
// run; types already stored are not rolled back.
func (r *Resolver) Resolve(ctx context.Context, set SharedTypesSet) (*Resolution, error) {
	order, err := r.preflight(set)
	if err != nil {
		return nil, err
	}

	res := &Resolution{SharedHashes: make(map[string]types.ActionHash, len(set.SharedTypes))}
	stored := make(map[string]types.PropertyDescriptor, len(set.SharedTypes))

	// Phase 1
	for _, shared := range order {
		name := shared.Header.TypeName
		if _, ok := shared.Details.(types.CompositeDescriptor); ok {
			if shared, err = ResolveReferences(shared, res.SharedHashes); err != nil {
				return nil, err
			}
		}
		rec, err := r.zome.CreatePropertyDescriptor(ctx, shared)
		if err != nil {
			return nil, fmt.Errorf("creating shared type %s: %w", name, err)
		}
		if err := r.verify(ctx, rec, shared, stored); err != nil {
			return nil, err
		}
		res.SharedHashes[name] = rec.ActionHash
		res.Shared = append(res.Shared, ResolvedType{TypeName: name, ActionHash: rec.ActionHash, Descriptor: rec.Descriptor})
		stored[name] = shared
		r.logger.Infow("stored shared type", "type_name", name, "action_hash", rec.ActionHash.String())
	}

	// Phase 2 and 3
	for _, referencing := range set.ReferencingTypes {
		rewritten, err := ResolveReferences(referencing, res.SharedHashes)
		if err != nil {
			return nil, err
		}
		rec, err := r.zome.CreatePropertyDescriptor(ctx, rewritten)
		if err != nil {
			return nil, fmt.Errorf("creating referencing type %s: %w", referencing.Header.TypeName, err)
		}
		if err := r.verify(ctx, rec, rewritten, stored); err != nil {
			return nil, err
		}
		res.Referencing = append(res.Referencing, ResolvedType{TypeName: referencing.Header.TypeName, ActionHash: rec.ActionHash, Descriptor: rec.Descriptor})
		r.logger.Infow("stored referencing type", "type_name", referencing.Header.TypeName, "action_hash", rec.ActionHash.String())
	}

	return res, nil
}

// preflight checks the whole set before any write and returns the shared
// types in creation order.
func (r *Resolver) preflight(set SharedTypesSet) ([]types.PropertyDescriptor, error) {
	declared := make(map[string]bool, len(set.SharedTypes))
	for _, shared := range set.SharedTypes {
		name := shared.Header.TypeName
		if declared[name] {
			return nil, fmt.Errorf("shared type %s: %w", name, types.ErrDuplicateName)
		}
		if err := shared.Validate(); err != nil {
			return nil, fmt.Errorf("shared type %s: %w", name, err)
		}
		declared[name] = true
	}
	// Names are enough here: ResolveReferences only consults membership.
	placeholders := make(map[string]types.ActionHash, len(declared))
	for name := range declared {
		placeholders[name] = types.ActionHash{}
	}
	for _, shared := range set.SharedTypes {
		if _, ok := shared.Details.(types.CompositeDescriptor); !ok {
			continue
		}
		if _, err := ResolveReferences(shared, placeholders); err != nil {
			return nil, err
		}
	}
	for _, referencing := range set.ReferencingTypes {
		if _, err := ResolveReferences(referencing, placeholders); err != nil {
			return nil, err
		}
		if err := referencing.Validate(); err != nil {
			return nil, fmt.Errorf("referencing type %s: %w", referencing.Header.TypeName, err)
		}
	}
	order, err := creationOrder(set.SharedTypes, declared)
	if err != nil {
		return nil, err
	}
	r.logger.Debugw("resolution preflight passed", "shared", len(set.SharedTypes), "referencing", len(set.ReferencingTypes))
	return order, nil
}

// creationOrder orders shared types so each follows the shared types it
// names, keeping input order otherwise. A cycle is reported as an
// unresolved reference from the first type left unplaced.
func creationOrder(shared []types.PropertyDescriptor, declared map[string]bool) ([]types.PropertyDescriptor, error) {
	deps := make([][]sharedUsage, len(shared))
	for i, d := range shared {
		for _, u := range sharedUsages(d) {
			if declared[u.ref.Name] {
				deps[i] = append(deps[i], u)
			}
		}
	}

	order := make([]types.PropertyDescriptor, 0, len(shared))
	placed := make(map[string]bool, len(shared))
	done := make([]bool, len(shared))
	for len(order) < len(shared) {
		progressed := false
		for i, d := range shared {
			if done[i] || !allPlaced(deps[i], placed) {
				continue
			}
			order = append(order, d)
			placed[d.Header.TypeName] = true
			done[i] = true
			progressed = true
		}
		if progressed {
			continue
		}
		for i, d := range shared {
			if done[i] {
				continue
			}
			for _, u := range deps[i] {
				if !placed[u.ref.Name] {
					return nil, fmt.Errorf("shared types reference each other: %w", &types.UnresolvedReferenceError{
						TypeName: d.Header.TypeName, PropertyName: u.path, ReferencedName: u.ref.Name,
					})
				}
			}
		}
	}
	return order, nil
}

func allPlaced(deps []sharedUsage, placed map[string]bool) bool {
	for _, u := range deps {
		if !placed[u.ref.Name] {
			return false
		}
	}
	return true
}

// verify fetches a stored composite and every shared type of this run it
// references.
func (r *Resolver) verify(ctx context.Context, rec PropertyDescriptorRecord, submitted types.PropertyDescriptor, stored map[string]types.PropertyDescriptor) error {
	fetched, err := r.zome.GetPropertyDescriptor(ctx, rec.ActionHash)
	if err != nil {
		return fmt.Errorf("verifying %s: %w", submitted.Header.TypeName, err)
	}
	if !sameDescriptor(fetched.Descriptor, submitted) {
		return fmt.Errorf("%s at %s: %w", submitted.Header.TypeName, rec.ActionHash, types.ErrVerificationFailed)
	}
	for _, ref := range sharedReferences(fetched.Descriptor) {
		want, ok := stored[ref.Name]
		if !ok || ref.ID.IsEmpty() {
			// Pre-resolved references point outside this run.
			continue
		}
		target, err := r.zome.GetPropertyDescriptor(ctx, ref.ID)
		if err != nil {
			return fmt.Errorf("verifying reference %s from %s: %w", ref.Name, submitted.Header.TypeName, err)
		}
		if !sameDescriptor(target.Descriptor, want) {
			return fmt.Errorf("reference %s from %s: %w", ref.Name, submitted.Header.TypeName, types.ErrVerificationFailed)
		}
		r.logger.Debugw("verified reference", "type_name", submitted.Header.TypeName, "reference", ref.Name, "action_hash", ref.ID.String())
	}
	return nil
}

// ResolveReferences returns a copy of composite in which every Shared usage
// naming an entry of table, at any depth, carries that entry's hash. A
// usage that already has an ID and either no name or a name absent from
// table is kept as is.
//
// Every usage is examined before the copy is built, so on error nothing
// partial is returned. Errors: *types.UnexpectedVariantError when
// composite is not a Composite, *types.UnresolvedReferenceError for an
// unknown name with no ID, types.ErrMalformedReference for a reference
// with neither.
func ResolveReferences(composite types.PropertyDescriptor, table map[string]types.ActionHash) (types.PropertyDescriptor, error) {
	details, err := composite.Composite()
	if err != nil {
		return types.PropertyDescriptor{}, err
	}
	m, err := resolveMap(composite.Header.TypeName, "", details.PropertyMap, table)
	if err != nil {
		return types.PropertyDescriptor{}, err
	}
	return types.PropertyDescriptor{Header: composite.Header, Details: types.CompositeDescriptor{PropertyMap: m}}, nil
}

// resolveMap collects the rewrites for every usage of m, then applies them
// to a copy.
func resolveMap(typeName, prefix string, m types.PropertyDescriptorMap, table map[string]types.ActionHash) (types.PropertyDescriptorMap, error) {
	edits := make(map[string]types.PropertyDescriptorUsage)
	for _, name := range m.Names() {
		usage := m.Properties[name]
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		edited := usage
		changed := false

		if usage.Sharing.IsShared() {
			ref := usage.Sharing.Reference
			if err := ref.Validate(); err != nil {
				return types.PropertyDescriptorMap{}, fmt.Errorf("%s.%s: %w", typeName, path, err)
			}
			if ref.Name != "" {
				hash, ok := table[ref.Name]
				switch {
				case ok:
					edited.Sharing = types.Shared(types.HolonReference{ID: hash, Name: ref.Name})
					changed = true
				case ref.ID.IsEmpty():
					return types.PropertyDescriptorMap{}, &types.UnresolvedReferenceError{
						TypeName: typeName, PropertyName: path, ReferencedName: ref.Name,
					}
				}
			}
		}

		if nested, ok := usage.Descriptor.Details.(types.CompositeDescriptor); ok {
			inner, err := resolveMap(typeName, path, nested.PropertyMap, table)
			if err != nil {
				return types.PropertyDescriptorMap{}, err
			}
			edited.Descriptor = types.PropertyDescriptor{
				Header:  usage.Descriptor.Header,
				Details: types.CompositeDescriptor{PropertyMap: inner},
			}
			changed = true
		}

		if changed {
			edits[name] = edited
		}
	}

	out := m.Clone()
	for name, usage := range edits {
		out.Properties[name] = usage
	}
	return out, nil
}

// sharedUsage is a Shared usage and its dotted path inside a composite.
type sharedUsage struct {
	path string
	ref  types.HolonReference
}

// sharedUsages returns every Shared usage in d, at any depth, in property
// name order.
func sharedUsages(d types.PropertyDescriptor) []sharedUsage {
	var out []sharedUsage
	var walk func(prefix string, m types.PropertyDescriptorMap)
	walk = func(prefix string, m types.PropertyDescriptorMap) {
		for _, name := range m.Names() {
			usage := m.Properties[name]
			path := name
			if prefix != "" {
				path = prefix + "." + name
			}
			if usage.Sharing.IsShared() {
				out = append(out, sharedUsage{path: path, ref: usage.Sharing.Reference})
			}
			if nested, ok := usage.Descriptor.Details.(types.CompositeDescriptor); ok {
				walk(path, nested.PropertyMap)
			}
		}
	}
	if c, ok := d.Details.(types.CompositeDescriptor); ok {
		walk("", c.PropertyMap)
	}
	return out
}

// sharedReferences returns the references of every Shared usage in d.
func sharedReferences(d types.PropertyDescriptor) []types.HolonReference {
	usages := sharedUsages(d)
	refs := make([]types.HolonReference, 0, len(usages))
	for _, u := range usages {
		refs = append(refs, u.ref)
	}
	return refs
}

// sameDescriptor compares descriptors by their canonical encoding, which
// treats nil and empty property maps alike.
func sameDescriptor(a, b types.PropertyDescriptor) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ab, bb)
}
