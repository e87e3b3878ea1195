package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mccedddy/EczApp/pkg/classifier"
	httputil "github.com/mccedddy/EczApp/pkg/infrastructure/http"
)

// Classifier is the remote severity service.
type Classifier interface {
	Predict(ctx context.Context, base64Image, bearerToken string) (classifier.Result, error)
}

type Analyzer struct {
	classifier Classifier
	logger     *slog.Logger
}

func NewAnalyzer(c Classifier, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{classifier: c, logger: logger.With("component", "analysis")}
}

// Analyze makes a single classification attempt. The bearer token is passed
// in by the caller and fetched fresh for each call.
func (a *Analyzer) Analyze(ctx context.Context, base64Image, bearerToken string) (classifier.Result, error) {
	a.logger.Info("Requesting classification", "payload_bytes", len(base64Image))

	result, err := a.classifier.Predict(ctx, base64Image, bearerToken)
	if err != nil {
		se := classifyError(err)
		a.logger.Error("Classification failed", "kind", se.Kind.String(), "error", err)
		return nil, se
	}

	a.logger.Info("Classification received", "fields", len(result))
	return result, nil
}

func classifyError(err error) *StageError {
	var httpErr *httputil.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return &StageError{
			Kind:       KindRemoteServiceError,
			Op:         "classify",
			StatusCode: httpErr.StatusCode,
			StatusText: httpErr.Status,
			Err:        err,
		}
	case errors.Is(err, classifier.ErrMalformedResponse):
		return &StageError{Kind: KindRemoteServiceError, Op: "classify", StatusText: "malformed response body", Err: err}
	default:
		// No response arrived.
		return &StageError{Kind: KindConnectivityError, Op: "classify", Err: err}
	}
}
