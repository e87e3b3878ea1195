package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/mccedddy/EczApp/pkg/types"
)

// Stage is a step of the capture state machine.
type Stage int

const (
	StageIdle Stage = iota
	StageCapturing
	StageCaptured
	StageSaving
	StageAnalyzing
	StageSucceeded
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageCapturing:
		return "capturing"
	case StageCaptured:
		return "captured"
	case StageSaving:
		return "saving"
	case StageAnalyzing:
		return "analyzing"
	case StageSucceeded:
		return "succeeded"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further automatic transition follows.
func (s Stage) Terminal() bool {
	return s == StageSucceeded || s == StageFailed
}

// State is what the presentation layer renders.
type State struct {
	Stage       Stage
	Title       string
	Message     string
	Dismissible bool
}

// Notice keys mirror the client's translation table.
const (
	NoticeCameraPermissionDenied  = "camera.alerts.camera_permission_not_granted"
	NoticeGalleryPermissionDenied = "camera.alerts.gallery_permission_not_granted"
	NoticeCameraCancelled         = "camera.alerts.camera_cancelled"
	NoticeSelectionCancelled      = "camera.alerts.image_selection_cancelled"
	NoticeNoImageSelected         = "camera.alerts.no_image_selected"
	NoticeUserNotLoggedIn         = "camera.alerts.user_not_logged_in"
	NoticeImageSaved              = "camera.alerts.image_saved"
	NoticeCaptureFailed           = "camera.alerts.capture_failed"
)

// Notice is a transient alert that does not change State.
type Notice struct {
	Key string
	Err error
}

// Listener receives state transitions and notices. Calls arrive in order on the
// goroutine driving the controller, never while the controller holds its lock.
type Listener interface {
	OnStateChange(prev, next State)
	OnNotice(n Notice)
}

// Navigator routes the user onward once an analysis is persisted.
type Navigator interface {
	ShowAnalysis(ctx context.Context, record *types.AnalysisRecord)
}

var (
	stateIdle      = State{Stage: StageIdle}
	stateCapturing = State{Stage: StageCapturing}
	stateCaptured  = State{Stage: StageCaptured}
	stateSaving    = State{Stage: StageSaving, Title: "Processing...", Message: "Saving image..."}
	stateAnalyzing = State{Stage: StageAnalyzing, Title: "Processing...", Message: "Analyzing image..."}
	stateSucceeded = State{Stage: StageSucceeded, Title: "Success", Message: "Analysis saved successfully."}
)

// failedState renders a terminal failure. Every Failed state is dismissible.
func failedState(err error) State {
	var se *StageError
	if !errors.As(err, &se) {
		se = &StageError{Kind: KindUnknown}
	}

	var msg string
	switch se.Kind {
	case KindUploadFailed:
		msg = "Failed to save image. Please try again."
	case KindEncodingFailed:
		msg = "Failed to read the image for analysis. Please retake the photo."
	case KindRemoteServiceError:
		if se.StatusCode != 0 {
			msg = fmt.Sprintf("Classification service error: %d %s", se.StatusCode, se.StatusText)
		} else {
			msg = fmt.Sprintf("Classification service error: %s", se.StatusText)
		}
	case KindUnauthenticated:
		msg = "Classification service error: could not verify your session. Please sign in again."
	case KindConnectivityError:
		msg = "Something went wrong in connecting to the classification service."
	case KindPersistenceFailed:
		msg = "Failed to save analysis. Please try again."
	default:
		msg = "Something went wrong. Please try again."
	}
	return State{Stage: StageFailed, Title: "Error", Message: msg, Dismissible: true}
}
