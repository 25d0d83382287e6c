package assets

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
)

// Kind classifies a failed store operation.
type Kind int

const (
	// KindInternal covers failures that are not S3 error responses at all,
	// such as transport or decoding errors.
	KindInternal Kind = iota
	// KindNotFound means the store answered with a 404.
	KindNotFound
	// KindUpstream means the store answered with any other error status.
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

var (
	ErrNotFound = errors.New("asset not found")
	ErrUpstream = errors.New("object store error")
	ErrInternal = errors.New("internal error")
)

// Error is the result of translating an object store failure.
type Error struct {
	Op   string
	Name string
	Kind Kind

	// Status is the HTTP status reported by the store, zero for
	// KindInternal.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %q: %s: %v", e.Op, e.Name, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUpstream:
		return e.Kind == KindUpstream
	case ErrInternal:
		return e.Kind == KindInternal
	}
	return false
}

// Translate classifies err, returned by the object store for operation op on
// name. A nil err translates to nil. S3 error responses are flattened into a
// plain message so the minio types do not escape this package.
func Translate(op string, name string, err error) error {
	if err == nil {
		return nil
	}

	var asErr *Error
	if errors.As(err, &asErr) {
		return asErr
	}

	var resp minio.ErrorResponse
	if !errors.As(err, &resp) || resp.StatusCode == 0 {
		return &Error{Op: op, Name: name, Kind: KindInternal, Err: err}
	}

	kind := KindUpstream
	if resp.StatusCode == http.StatusNotFound {
		kind = KindNotFound
	}

	msg := resp.Code
	if resp.Message != "" {
		msg = resp.Code + ": " + resp.Message
	}

	return &Error{
		Op:     op,
		Name:   name,
		Kind:   kind,
		Status: resp.StatusCode,
		Err:    fmt.Errorf("status %d: %s", resp.StatusCode, msg),
	}
}

// Internal wraps err as a KindInternal failure without inspecting it.
func Internal(op string, name string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Name: name, Kind: KindInternal, Err: err}
}

// KindOf returns the kind of a translated error. Errors that did not come
// through Translate are KindInternal.
func KindOf(err error) Kind {
	var asErr *Error
	if errors.As(err, &asErr) {
		return asErr.Kind
	}
	return KindInternal
}
