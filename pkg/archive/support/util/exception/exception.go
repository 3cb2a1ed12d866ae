// Package exception defines the error taxonomy of the sounding archive.
//
// Every failure crossing the index boundary is an *ArchiveError carrying one Kind.
// Callers branch on the kind with errors.Is against the exported sentinels
// (ErrDuplicateKey, ErrNotFound, ...) and never by matching message text.
package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind classifies an ArchiveError.
type Kind int

const (
	// KindUnknown is only used as an argument to New, meaning "inherit from the cause".
	KindUnknown Kind = iota
	// KindDuplicateKey is a uniqueness violation (file name, (type, site, init time),
	// location coordinates, type code or site short name).
	KindDuplicateKey
	// KindNotFound is a lookup or delete that matched no row.
	KindNotFound
	// KindReferentialViolation is a file row pointing at a type, site or location that does not exist.
	KindReferentialViolation
	// KindStoreUnavailable is a store that cannot be opened, reached or committed to.
	KindStoreUnavailable
	// KindInvalidArgument is input rejected before it reaches the store.
	KindInvalidArgument
)

var (
	// ErrDuplicateKey matches errors of KindDuplicateKey.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound matches errors of KindNotFound.
	ErrNotFound = errors.New("not found")
	// ErrReferentialViolation matches errors of KindReferentialViolation.
	ErrReferentialViolation = errors.New("referential violation")
	// ErrStoreUnavailable matches errors of KindStoreUnavailable.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidArgument matches errors of KindInvalidArgument.
	ErrInvalidArgument = errors.New("invalid argument")
)

var kindNames = map[Kind]string{
	KindUnknown:              "Unknown",
	KindDuplicateKey:         "DuplicateKey",
	KindNotFound:             "NotFound",
	KindReferentialViolation: "ReferentialViolation",
	KindStoreUnavailable:     "StoreUnavailable",
	KindInvalidArgument:      "InvalidArgument",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinel returns the sentinel error matching this kind, or nil for KindUnknown.
func (k Kind) Sentinel() error {
	switch k {
	case KindDuplicateKey:
		return ErrDuplicateKey
	case KindNotFound:
		return ErrNotFound
	case KindReferentialViolation:
		return ErrReferentialViolation
	case KindStoreUnavailable:
		return ErrStoreUnavailable
	case KindInvalidArgument:
		return ErrInvalidArgument
	default:
		return nil
	}
}

// ArchiveError is the error type returned by the archive index and the payload archive.
type ArchiveError struct {
	// Op is the operation that failed (e.g., "SQLArchiveIndex.RegisterFile").
	Op string
	// Kind is the classification of the failure.
	Kind Kind
	// Message is a short description of what was attempted.
	Message string
	// Err is the wrapped cause, typically a driver error.
	Err error
	// StackTrace is captured at construction for debugging.
	StackTrace string
}

// New creates an ArchiveError. Passing KindUnknown inherits the kind of err,
// falling back to KindStoreUnavailable when err carries none.
func New(op string, kind Kind, message string, err error) *ArchiveError {
	if kind == KindUnknown {
		kind = KindOf(err)
		if kind == KindUnknown {
			kind = KindStoreUnavailable
		}
	}

	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &ArchiveError{
		Op:         op,
		Kind:       kind,
		Message:    message,
		Err:        err,
		StackTrace: string(buf[:n]),
	}
}

// Newf is New with a formatted message.
func Newf(op string, kind Kind, err error, format string, a ...interface{}) *ArchiveError {
	return New(op, kind, fmt.Sprintf(format, a...), err)
}

// Error implements the error interface.
func (e *ArchiveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s (%s): %v", e.Op, e.Message, e.Kind, e.Err)
	}
	return fmt.Sprintf("[%s] %s (%s)", e.Op, e.Message, e.Kind)
}

// Unwrap returns the wrapped cause.
func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *ArchiveError) Is(target error) bool {
	sentinel := e.Kind.Sentinel()
	return sentinel != nil && target == sentinel
}

// KindOf returns the kind of the outermost ArchiveError in err's chain,
// or KindUnknown if there is none.
func KindOf(err error) Kind {
	var ae *ArchiveError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsDuplicateKey reports whether err is a uniqueness violation.
func IsDuplicateKey(err error) bool { return errors.Is(err, ErrDuplicateKey) }

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsReferentialViolation reports whether err is a dangling reference.
func IsReferentialViolation(err error) bool { return errors.Is(err, ErrReferentialViolation) }

// IsStoreUnavailable reports whether err means the store could not serve the request.
func IsStoreUnavailable(err error) bool { return errors.Is(err, ErrStoreUnavailable) }

// IsInvalidArgument reports whether err is rejected input.
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }

// InvalidArgument is shorthand for a KindInvalidArgument error without a cause.
func InvalidArgument(op, format string, a ...interface{}) *ArchiveError {
	return Newf(op, KindInvalidArgument, nil, format, a...)
}
