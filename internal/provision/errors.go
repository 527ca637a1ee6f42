package provision

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a provisioning failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindUnsupportedPlatform: no variant exists for this host. Not retried.
	KindUnsupportedPlatform
	// KindArtifactNotFound: no bundled artifact and no remote configured.
	KindArtifactNotFound
	// KindTransportError: network-level failure. Retried up to the ceiling.
	KindTransportError
	// KindBadStatus: non-2xx HTTP response. Retried up to the ceiling.
	KindBadStatus
	// KindDecodeError: corrupt or truncated compressed stream. Not retried.
	KindDecodeError
	// KindWriteError: the installed binary could not be written.
	KindWriteError
	// KindIntegrityError: checksum or signature verification failed.
	KindIntegrityError
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindUnsupportedPlatform:
		return "unsupported platform"
	case KindArtifactNotFound:
		return "artifact not found"
	case KindTransportError:
		return "transport error"
	case KindBadStatus:
		return "bad status"
	case KindDecodeError:
		return "decode error"
	case KindWriteError:
		return "write error"
	case KindIntegrityError:
		return "integrity error"
	default:
		return "unknown error"
	}
}

// Retryable reports whether a fetch failing with this kind may be attempted again.
func (k Kind) Retryable() bool {
	return k == KindTransportError || k == KindBadStatus
}

// Error is a classified provisioning failure.
type Error struct {
	Kind     Kind
	Variant  string
	Status   int // HTTP status for KindBadStatus
	Attempts int // fetch attempts made, when the failure came from fetching
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder

	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}

	// Causes such as locator.ErrUnsupportedPlatform already lead with the kind
	if !strings.HasPrefix(cause, e.Kind.String()) {
		b.WriteString(e.Kind.String())
		if e.Variant != "" {
			fmt.Fprintf(&b, " for %s", e.Variant)
		}
		if cause != "" {
			b.WriteString(": ")
		}
	}
	b.WriteString(cause)

	if e.Attempts > 1 {
		fmt.Fprintf(&b, " (after %d attempts)", e.Attempts)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}
