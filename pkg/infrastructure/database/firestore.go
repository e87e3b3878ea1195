package database

import (
	"context"

	"cloud.google.com/go/firestore"

	storage "github.com/mccedddy/EczApp/pkg/storage/firestore"
	"github.com/mccedddy/EczApp/pkg/types"
)

// FirestoreAdapter provides database operations using Firestore
// It wraps our typed storage client
type FirestoreAdapter struct {
	storage *storage.Client // internal typed wrapper
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{
		storage: storage.NewClient(client),
	}
}

// AddImage appends an image document under an auto-generated ID and returns that ID.
func (a *FirestoreAdapter) AddImage(ctx context.Context, userID string, record *types.ImageRecord) (string, error) {
	doc := a.storage.Images(userID).NewDoc()
	if err := doc.Create(ctx, record); err != nil {
		return "", err
	}
	return doc.ID(), nil
}

// SetAnalysis writes record under record.ID. Existing documents are never overwritten.
func (a *FirestoreAdapter) SetAnalysis(ctx context.Context, userID string, record *types.AnalysisRecord) error {
	return a.storage.SkinAnalyses(userID).Doc(record.ID).Create(ctx, record)
}

func (a *FirestoreAdapter) ListAnalyses(ctx context.Context, userID string, limit int) ([]*types.AnalysisRecord, error) {
	records, err := a.storage.SkinAnalyses(userID).Latest(ctx, "timestamp", limit)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		r.OwnerID = userID
	}
	return records, nil
}
