package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a stage failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindPermissionDenied
	KindCancelled
	KindEncodingFailed
	KindUploadFailed
	KindMetadataWriteFailed
	KindRemoteServiceError
	KindConnectivityError
	KindPersistenceFailed
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission_denied"
	case KindCancelled:
		return "cancelled"
	case KindEncodingFailed:
		return "encoding_failed"
	case KindUploadFailed:
		return "upload_failed"
	case KindMetadataWriteFailed:
		return "metadata_write_failed"
	case KindRemoteServiceError:
		return "remote_service_error"
	case KindConnectivityError:
		return "connectivity_error"
	case KindPersistenceFailed:
		return "persistence_failed"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Guard errors returned before a run starts.
var (
	ErrAlreadyRunning = errors.New("a capture run is already in progress")
	ErrNoImage        = errors.New("no image selected")
	ErrNotDismissible = errors.New("state is not dismissible")
)

// StageError is the error every stage returns.
type StageError struct {
	Kind       Kind
	Op         string
	StatusCode int    // set for KindRemoteServiceError when the service answered
	StatusText string // reason phrase surfaced to the user
	Err        error
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.StatusText != "" {
		if e.StatusCode != 0 {
			msg += fmt.Sprintf(" (%d %s)", e.StatusCode, e.StatusText)
		} else {
			msg += fmt.Sprintf(" (%s)", e.StatusText)
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the run must stop.
func (e *StageError) Fatal() bool {
	return e.Kind != KindMetadataWriteFailed && e.Kind != KindCancelled
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err should end the run. Errors that are not
// StageErrors are always fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Fatal()
	}
	return true
}
