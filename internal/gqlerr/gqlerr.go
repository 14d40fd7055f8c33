// Package gqlerr defines the typed errors every resolver surfaces to GraphQL
// clients. Each error carries a machine-checkable code and, where a denial
// or validation failure is tied to a specific argument, the path of that
// argument. The codes are part of the client contract; resolvers never
// collapse one into another.
package gqlerr

import (
	"errors"
	"fmt"

	"github.com/assembly-hq/assembly/internal/relay"
)

// Code identifies the failure class of a resolver error.
type Code string

const (
	// CodeUnauthenticated covers requests with no principal as well as the
	// deleted-user-with-live-token race: a verified token whose user row no
	// longer exists is unauthenticated, never unauthorized.
	CodeUnauthenticated Code = "unauthenticated"
	// CodeUnauthorized is a plain insufficient-privilege denial.
	CodeUnauthorized Code = "unauthorized_action"
	// CodeUnauthorizedOnArguments is a denial tied to an argument that
	// references a protected resource. Not interchangeable with
	// CodeUnauthorized.
	CodeUnauthorizedOnArguments Code = "unauthorized_action_on_arguments_associated_resources"
	// CodeInvalidArguments covers malformed cursors, negative page sizes,
	// invalid ids and other input validation failures.
	CodeInvalidArguments Code = "invalid_arguments"
	// CodeResourcesNotFound means an argument points at a resource that does
	// not exist, including expired cursors.
	CodeResourcesNotFound Code = "arguments_associated_resources_not_found"
	// CodeForbiddenOnArguments means the operation is not allowed against the
	// resource an argument references, independent of who asks.
	CodeForbiddenOnArguments Code = "forbidden_action_on_arguments_associated_resources"
	// CodeUnexpected wraps consistency violations the request cannot
	// resolve, e.g. a non-null foreign key whose referenced row is gone.
	CodeUnexpected Code = "unexpected"
)

// Issue locates one problem within the operation's arguments.
type Issue struct {
	Message      string   `json:"message,omitempty"`
	ArgumentPath []string `json:"argumentPath"`
}

// Error is a resolver error with a stable wire shape. It implements the
// graph-gophers ResolverError contract so the code and issues reach the
// client through the extensions map.
type Error struct {
	Code    Code
	Message string
	Issues  []Issue
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Extensions exposes the code and issues to the GraphQL error serializer.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": string(e.Code)}
	if len(e.Issues) > 0 {
		issues := make([]interface{}, len(e.Issues))
		for i, issue := range e.Issues {
			entry := map[string]interface{}{"argumentPath": issue.ArgumentPath}
			if issue.Message != "" {
				entry["message"] = issue.Message
			}
			issues[i] = entry
		}
		ext["issues"] = issues
	}
	return ext
}

// Unauthenticated builds the terminal error for requests with no usable
// principal.
func Unauthenticated() *Error {
	return &Error{Code: CodeUnauthenticated, Message: "You must be authenticated to perform this action."}
}

// Unauthorized builds a plain privilege denial.
func Unauthorized() *Error {
	return &Error{Code: CodeUnauthorized, Message: "You are not authorized to perform this action."}
}

// UnauthorizedOnArguments builds a denial tied to the resources the given
// argument paths reference.
func UnauthorizedOnArguments(paths ...[]string) *Error {
	return &Error{
		Code:    CodeUnauthorizedOnArguments,
		Message: "You are not authorized to perform this action on the resources associated to the provided arguments.",
		Issues:  issuesFor(paths),
	}
}

// InvalidArgument builds a validation failure for one argument.
func InvalidArgument(message string, path ...string) *Error {
	return &Error{
		Code:    CodeInvalidArguments,
		Message: "Invalid arguments provided.",
		Issues:  []Issue{{Message: message, ArgumentPath: path}},
	}
}

// ResourcesNotFound reports that the resources referenced by the given
// argument paths do not exist.
func ResourcesNotFound(paths ...[]string) *Error {
	return &Error{
		Code:    CodeResourcesNotFound,
		Message: "No resources were found for the provided arguments.",
		Issues:  issuesFor(paths),
	}
}

// ForbiddenOnArguments reports an operation that is never allowed against
// the referenced resources.
func ForbiddenOnArguments(message string, paths ...[]string) *Error {
	return &Error{
		Code:    CodeForbiddenOnArguments,
		Message: message,
		Issues:  issuesFor(paths),
	}
}

// Unexpected wraps a consistency violation. The caller is expected to have
// logged the underlying cause with row context before surfacing this.
func Unexpected() *Error {
	return &Error{Code: CodeUnexpected, Message: "Something went wrong. Please try again later."}
}

func issuesFor(paths [][]string) []Issue {
	issues := make([]Issue, len(paths))
	for i, p := range paths {
		issues[i] = Issue{ArgumentPath: p}
	}
	return issues
}

// FromPagination translates a relay pagination failure into its wire error:
// malformed limits and cursors become invalid_arguments, a stale cursor
// becomes arguments_associated_resources_not_found, each pointing at the
// offending argument. Any other error passes through for the caller's
// unexpected-path handling. argPrefix locates the connection arguments
// within the field's argument tree, if nested.
func FromPagination(err error, argPrefix ...string) error {
	var argErr *relay.ArgError
	if !errors.As(err, &argErr) {
		return err
	}
	path := append(append([]string{}, argPrefix...), argErr.Arg)
	switch {
	case errors.Is(err, relay.ErrInvalidCursor):
		return InvalidArgument("Not a valid cursor.", path...)
	case errors.Is(err, relay.ErrCursorNotFound):
		return ResourcesNotFound(path)
	case errors.Is(err, relay.ErrInvalidLimit), errors.Is(err, relay.ErrConflictingArguments):
		return InvalidArgument(argErr.Err.Error(), path...)
	default:
		return err
	}
}

// As extracts a *Error from an error chain.
func As(err error) (*Error, bool) {
	var typed *Error
	ok := errors.As(err, &typed)
	return typed, ok
}
