package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/mccedddy/EczApp/pkg/infrastructure/auth"
	"github.com/mccedddy/EczApp/pkg/types"
)

// --- Mock Database ---
type MockDatabase struct {
	AddImageFunc     func(ctx context.Context, userID string, record *types.ImageRecord) (string, error)
	SetAnalysisFunc  func(ctx context.Context, userID string, record *types.AnalysisRecord) error
	ListAnalysesFunc func(ctx context.Context, userID string, limit int) ([]*types.AnalysisRecord, error)

	mu       sync.Mutex
	Images   []*types.ImageRecord
	Analyses []*types.AnalysisRecord
}

func (m *MockDatabase) AddImage(ctx context.Context, userID string, record *types.ImageRecord) (string, error) {
	if m.AddImageFunc != nil {
		return m.AddImageFunc(ctx, userID, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Images = append(m.Images, record)
	return fmt.Sprintf("image-%d", len(m.Images)), nil
}

func (m *MockDatabase) SetAnalysis(ctx context.Context, userID string, record *types.AnalysisRecord) error {
	if m.SetAnalysisFunc != nil {
		return m.SetAnalysisFunc(ctx, userID, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Analyses = append(m.Analyses, record)
	return nil
}

func (m *MockDatabase) ListAnalyses(ctx context.Context, userID string, limit int) ([]*types.AnalysisRecord, error) {
	if m.ListAnalysesFunc != nil {
		return m.ListAnalysesFunc(ctx, userID, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.AnalysisRecord
	for i := len(m.Analyses) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.Analyses[i])
	}
	return out, nil
}

// --- Mock Publisher ---
type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "msg-id", nil
}

// --- Mock Storage ---
type MockBlobStore struct {
	WriteFunc       func(ctx context.Context, object string, data []byte, contentType string) error
	DownloadURLFunc func(ctx context.Context, object string) (string, error)
}

func (m *MockBlobStore) Write(ctx context.Context, object string, data []byte, contentType string) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, object, data, contentType)
	}
	return nil
}

func (m *MockBlobStore) DownloadURL(ctx context.Context, object string) (string, error) {
	if m.DownloadURLFunc != nil {
		return m.DownloadURLFunc(ctx, object)
	}
	return "https://storage.example.com/" + object, nil
}

// --- Mock Credentials ---
type MockCredentialProvider struct {
	PrincipalIDFunc   func(ctx context.Context) (string, error)
	GetCredentialFunc func(ctx context.Context) (auth.Credential, error)
}

func (m *MockCredentialProvider) PrincipalID(ctx context.Context) (string, error) {
	if m.PrincipalIDFunc != nil {
		return m.PrincipalIDFunc(ctx)
	}
	return "patient@example.com", nil
}

func (m *MockCredentialProvider) GetCredential(ctx context.Context) (auth.Credential, error) {
	if m.GetCredentialFunc != nil {
		return m.GetCredentialFunc(ctx)
	}
	return auth.Credential{PrincipalID: "patient@example.com", BearerToken: "mock-id-token"}, nil
}
