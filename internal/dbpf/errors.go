package dbpf

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Error classes. Every error returned by this package wraps exactly one of
// them; test with errors.Is.
var (
	// ErrFormat: a magic, version or tag does not match, so the bytes are
	// not the expected container, resource or chunk kind.
	ErrFormat = errors.New("dbpf: invalid format")
	// ErrUnsupported: a recognised variant this decoder does not implement
	// (encrypted package, compressed index, unknown MLOD version).
	ErrUnsupported = errors.New("dbpf: unsupported feature")
	// ErrMalformed: a required sub-chunk or reference is missing or invalid.
	ErrMalformed = errors.New("dbpf: malformed data")
	// ErrBounds: an offset or length from the file points outside the buffer.
	ErrBounds = errors.New("dbpf: out of bounds")
)

// ResourceError ties a decode failure to the index entry it came from.
type ResourceError struct {
	Entry IndexEntry
	Err   error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource %08x:%08x:%016x: %v",
		e.Entry.ResourceType, e.Entry.ResourceGroup, e.Entry.Instance(), e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// ResourceErrors collects the resources a Decoder skipped.
type ResourceErrors []*ResourceError

func (e ResourceErrors) Error() string {
	msgs := make([]string, len(e))
	for i, re := range e {
		msgs[i] = re.Error()
	}
	return fmt.Sprintf("%d resource(s) failed: %s", len(e), strings.Join(msgs, "; "))
}

func (e ResourceErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, re := range e {
		errs[i] = re
	}
	return errs
}
