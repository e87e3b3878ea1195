package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	shared "github.com/mccedddy/EczApp/pkg"
	"github.com/mccedddy/EczApp/pkg/domain/image"
	"github.com/mccedddy/EczApp/pkg/infrastructure/auth"
	infrapubsub "github.com/mccedddy/EczApp/pkg/infrastructure/pubsub"
	"github.com/mccedddy/EczApp/pkg/infrastructure/sentry"
	"github.com/mccedddy/EczApp/pkg/media"
	"github.com/mccedddy/EczApp/pkg/types"
)

// ErrClosed is returned once the owning screen has been abandoned.
var ErrClosed = errors.New("capture controller closed")

// Acquisition is the device media entry points.
type Acquisition interface {
	CaptureFromDevice(ctx context.Context) (*image.Captured, error)
	PickFromLibrary(ctx context.Context) (*image.Captured, error)
}

// Options wires a Controller. Navigator and Publisher are optional.
type Options struct {
	Media       Acquisition
	Credentials auth.CredentialProvider
	Uploader    *Uploader
	Analyzer    *Analyzer
	Recorder    *Recorder
	Navigator   Navigator
	Publisher   shared.Publisher
	Logger      *slog.Logger
}

// Controller owns the single visible State of one capture screen and runs
// at most one capture→upload→analyze→persist run at a time.
type Controller struct {
	media       Acquisition
	credentials auth.CredentialProvider
	uploader    *Uploader
	analyzer    *Analyzer
	recorder    *Recorder
	navigator   Navigator
	publisher   shared.Publisher
	logger      *slog.Logger

	mu        sync.Mutex
	state     State
	image     *image.Captured
	running   bool
	closed    bool
	listeners []Listener
}

func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		media:       opts.Media,
		credentials: opts.Credentials,
		uploader:    opts.Uploader,
		analyzer:    opts.Analyzer,
		recorder:    opts.Recorder,
		navigator:   opts.Navigator,
		publisher:   opts.Publisher,
		logger:      logger.With("component", "controller"),
		state:       stateIdle,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Image returns the currently held photo, or nil.
func (c *Controller) Image() *image.Captured {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.image
}

func (c *Controller) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

func (c *Controller) CaptureFromDevice(ctx context.Context) error {
	return c.acquire(ctx, image.SourceCamera)
}

func (c *Controller) PickFromLibrary(ctx context.Context) error {
	return c.acquire(ctx, image.SourceLibrary)
}

// acquire runs a picker. Cancelling or denying permission returns to Idle,
// or to Captured when a previous image is still held so a cancelled retake
// keeps it.
func (c *Controller) acquire(ctx context.Context, source image.Source) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.running || !canAcquire(c.state.Stage) {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	prev := stateIdle
	if c.image != nil {
		prev = stateCaptured
	}
	notify := c.setLocked(stateCapturing)
	c.mu.Unlock()
	notify()

	var img *image.Captured
	var err error
	if source == image.SourceCamera {
		img, err = c.media.CaptureFromDevice(ctx)
	} else {
		img, err = c.media.PickFromLibrary(ctx)
	}

	if err != nil {
		c.transition(prev)
		switch {
		case errors.Is(err, media.ErrCancelled):
			key := NoticeSelectionCancelled
			if source == image.SourceCamera {
				key = NoticeCameraCancelled
			}
			c.notice(Notice{Key: key})
			return nil
		case errors.Is(err, media.ErrPermissionDenied):
			key := NoticeGalleryPermissionDenied
			if source == image.SourceCamera {
				key = NoticeCameraPermissionDenied
			}
			c.notice(Notice{Key: key, Err: err})
			return &StageError{Kind: KindPermissionDenied, Op: "request permission", Err: err}
		default:
			c.logger.Error("Capture failed", "source", source, "error", err)
			c.notice(Notice{Key: NoticeCaptureFailed, Err: err})
			return err
		}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.image = img
	notify = c.setLocked(stateCaptured)
	c.mu.Unlock()
	notify()

	c.logger.Info("Image captured", "source", source, "uri", img.URI)
	return nil
}

// Save runs upload, analysis and persistence for the held image.
//
// Once Saving is entered the run ignores cancellation of ctx and always ends
// in Succeeded or Failed. A second Save while one is active fails with
// ErrAlreadyRunning.
func (c *Controller) Save(ctx context.Context) (*types.AnalysisRecord, error) {
	img, err := c.begin()
	if err != nil {
		if errors.Is(err, ErrNoImage) {
			c.notice(Notice{Key: NoticeNoImageSelected, Err: err})
		}
		return nil, err
	}
	defer c.finish()

	principal, err := c.credentials.PrincipalID(ctx)
	if err != nil {
		c.notice(Notice{Key: NoticeUserNotLoggedIn, Err: err})
		return nil, &StageError{Kind: KindUnauthenticated, Op: "resolve principal", Err: err}
	}

	ctx = context.WithoutCancel(ctx)
	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID, "user_id", principal)
	logger.Info("Capture run started", "uri", img.URI)

	c.transition(stateSaving)

	upload, err := c.uploader.Upload(ctx, principal, img)
	if err != nil {
		if IsFatal(err) {
			return nil, c.fail(logger, err)
		}
		logger.Warn("Continuing after non-fatal upload error", "kind", KindOf(err).String(), "error", err)
		sentry.CaptureWarning(err.Error(), map[string]string{"kind": KindOf(err).String()}, logger)
	}
	c.notice(Notice{Key: NoticeImageSaved})

	c.transition(stateAnalyzing)

	encoded, err := image.Encode(img)
	if err != nil {
		return nil, c.fail(logger, &StageError{Kind: KindEncodingFailed, Op: "encode image", Err: err})
	}

	cred, err := c.credentials.GetCredential(ctx)
	if err != nil {
		return nil, c.fail(logger, credentialError(err))
	}

	result, err := c.analyzer.Analyze(ctx, encoded, cred.BearerToken)
	if err != nil {
		return nil, c.fail(logger, err)
	}

	record, err := c.recorder.Persist(ctx, principal, result)
	if err != nil {
		return nil, c.fail(logger, err)
	}

	c.transition(stateSucceeded)
	logger.Info("Capture run succeeded", "analysis_id", record.ID)

	c.publish(ctx, logger, runID, upload, record)
	c.navigate(ctx, record)
	return record, nil
}

// Dismiss returns a Failed state to Idle.
func (c *Controller) Dismiss() error {
	c.mu.Lock()
	if c.state.Stage != StageFailed {
		c.mu.Unlock()
		return ErrNotDismissible
	}
	notify := c.setLocked(stateIdle)
	c.mu.Unlock()
	notify()
	return nil
}

// Abandon detaches the screen. A run already past Saving finishes in the
// background and is persisted, but nothing is rendered or navigated.
func (c *Controller) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.listeners = nil
	if !c.running {
		c.image = nil
		c.state = stateIdle
	}
}

// canAcquire reports whether a picker may open from stage. Failed must be
// dismissed first.
func canAcquire(stage Stage) bool {
	return stage == StageIdle || stage == StageCaptured || stage == StageSucceeded
}

func (c *Controller) begin() (*image.Captured, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.running {
		return nil, ErrAlreadyRunning
	}
	switch c.state.Stage {
	case StageCaptured:
	case StageIdle:
		return nil, ErrNoImage
	default:
		return nil, ErrAlreadyRunning
	}
	if c.image == nil {
		return nil, ErrNoImage
	}
	c.running = true
	return c.image, nil
}

// finish discards the image once a run is terminal, so a new run needs a new capture.
func (c *Controller) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	if c.state.Stage.Terminal() || c.closed {
		c.image = nil
	}
}

func (c *Controller) fail(logger *slog.Logger, err error) error {
	kind := KindOf(err).String()
	logger.Error("Capture run failed", "kind", kind, "error", err)
	sentry.CaptureException(err, map[string]string{"stage": c.State().Stage.String(), "kind": kind}, logger)
	c.transition(failedState(err))
	return err
}

// credentialError maps a token fetch failure onto the remote-failure path.
func credentialError(err error) *StageError {
	if errors.Is(err, auth.ErrUnauthenticated) {
		return &StageError{Kind: KindUnauthenticated, Op: "fetch credential", Err: err}
	}
	return &StageError{Kind: KindRemoteServiceError, Op: "fetch credential", StatusText: "credential refresh failed", Err: err}
}

func (c *Controller) publish(ctx context.Context, logger *slog.Logger, runID string, upload *types.UploadRecord, record *types.AnalysisRecord) {
	if c.publisher == nil {
		return
	}
	e, err := infrapubsub.NewCloudEvent(infrapubsub.SourceCapturePipeline, infrapubsub.TypeAnalysisRecorded, map[string]interface{}{
		"run_id":      runID,
		"user_id":     record.OwnerID,
		"analysis_id": record.ID,
		"image_url":   upload.DownloadURL,
		"recorded_at": record.RecordedAt,
	})
	if err != nil {
		logger.Warn("Failed to build analysis event", "error", err)
		return
	}
	msgID, err := c.publisher.PublishCloudEvent(ctx, shared.TopicAnalysisRecorded, e)
	if err != nil {
		logger.Warn("Failed to publish analysis event", "error", err)
		return
	}
	logger.Debug("Published analysis event", "message_id", msgID)
}

func (c *Controller) navigate(ctx context.Context, record *types.AnalysisRecord) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if c.navigator == nil || closed {
		return
	}
	c.navigator.ShowAnalysis(ctx, record)
}

// setLocked must be called with c.mu held. The returned func delivers the
// transition and must run after the lock is released.
func (c *Controller) setLocked(next State) func() {
	prev := c.state
	c.state = next
	listeners := append([]Listener(nil), c.listeners...)
	return func() {
		for _, l := range listeners {
			l.OnStateChange(prev, next)
		}
	}
}

func (c *Controller) transition(next State) {
	c.mu.Lock()
	notify := c.setLocked(next)
	c.mu.Unlock()
	notify()
}

func (c *Controller) notice(n Notice) {
	c.mu.Lock()
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()
	for _, l := range listeners {
		l.OnNotice(n)
	}
}
