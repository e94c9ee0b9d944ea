package graphql

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for GraphQL transport failures.
var (
	ErrUnauthorized = errors.New("graphql: unauthorized")
	ErrRateLimited  = errors.New("graphql: rate limited by server")
	ErrServer       = errors.New("graphql: server error")
	ErrNoData       = errors.New("graphql: response has no data")
)

// ResponseError carries the errors array of a GraphQL response.
type ResponseError struct {
	Op       string
	Messages []string
}

func (e *ResponseError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Error wraps an underlying error with operation context.
type Error struct {
	Op    string // operation name, e.g. "createOnePosts"
	Model string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("graphql %s [%s]: %v", e.Op, e.Model, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, model string, err error) error {
	return &Error{Op: op, Model: model, Err: err}
}
