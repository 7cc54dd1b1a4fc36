package types

import (
	"errors"
	"fmt"
)

// Descriptor construction and mutation errors.
var (
	ErrEmptyField          = errors.New("field is missing")
	ErrUnexpectedVariant   = errors.New("unexpected descriptor variant")
	ErrInvalidConstraint   = errors.New("invalid descriptor constraint")
	ErrMalformedReference  = errors.New("holon reference has neither id nor name")
	ErrUnresolvedReference = errors.New("unresolved shared type reference")
	ErrVerificationFailed  = errors.New("fetched descriptor does not match submitted descriptor")
	ErrDuplicateName       = errors.New("duplicate type name")
)

// Store operation errors.
var (
	ErrNotFound        = errors.New("entry not found")
	ErrConflict        = errors.New("previous hash is not the latest revision")
	ErrInvalidID       = errors.New("invalid action hash")
	ErrInvalidData     = errors.New("invalid entry data")
	ErrIndexNotFound   = errors.New("index not found")
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// EmptyField returns an error naming the missing field. The result matches
// ErrEmptyField under errors.Is.
func EmptyField(field string) error {
	return fmt.Errorf("%s %w", field, ErrEmptyField)
}

// UnexpectedVariantError reports that a descriptor's details did not hold
// the variant an operation requires.
type UnexpectedVariantError struct {
	Expected BaseType
	Actual   BaseType
}

func (e *UnexpectedVariantError) Error() string {
	return fmt.Sprintf("expected %s details, got %s", e.Expected, e.Actual)
}

// Unwrap lets errors.Is match ErrUnexpectedVariant.
func (e *UnexpectedVariantError) Unwrap() error {
	return ErrUnexpectedVariant
}

// UnresolvedReferenceError reports a Shared usage whose name has no entry in
// the shared type table of a resolution run.
type UnresolvedReferenceError struct {
	TypeName       string // the referencing composite
	PropertyName   string // path of the usage inside the composite
	ReferencedName string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s.%s references %q, which is not a declared shared type",
		e.TypeName, e.PropertyName, e.ReferencedName)
}

// Unwrap lets errors.Is match ErrUnresolvedReference.
func (e *UnresolvedReferenceError) Unwrap() error {
	return ErrUnresolvedReference
}
