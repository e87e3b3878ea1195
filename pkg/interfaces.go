package shared

import (
	"context"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/mccedddy/EczApp/pkg/types"
)

// --- Persistence Interfaces ---

type Database interface {
	// Images (users/{uid}/images/{autoId})
	AddImage(ctx context.Context, userID string, record *types.ImageRecord) (string, error)

	// Skin Analysis (users/{uid}/skinAnalysis/{isoTimestamp})
	SetAnalysis(ctx context.Context, userID string, record *types.AnalysisRecord) error
	ListAnalyses(ctx context.Context, userID string, limit int) ([]*types.AnalysisRecord, error)
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, object string, data []byte, contentType string) error
	DownloadURL(ctx context.Context, object string) (string, error)
}
