// Command descriptors manages holon and property descriptors in a local
// content-addressed store and serves them over HTTP.
package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/mesh-intelligence/holons/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// userErrors lists the errors reported with exitUserError.
var userErrors = []error{
	types.ErrEmptyField,
	types.ErrUnexpectedVariant,
	types.ErrInvalidConstraint,
	types.ErrMalformedReference,
	types.ErrUnresolvedReference,
	types.ErrDuplicateName,
	types.ErrNotFound,
	types.ErrConflict,
	types.ErrInvalidID,
	types.ErrInvalidData,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue *userError
	if errors.As(err, &ue) {
		return exitUserError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// userError marks errors caused by the invocation rather than the store.
type userError struct {
	err error
}

func (e *userError) Error() string { return e.err.Error() }
func (e *userError) Unwrap() error { return e.err }

// usageError wraps err so that it exits with exitUserError.
func usageError(err error) error {
	return &userError{err: err}
}
