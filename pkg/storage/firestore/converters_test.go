package firestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mccedddy/EczApp/pkg/types"
)

func TestAnalysisToFirestore_KeepsResultVerbatim(t *testing.T) {
	result := map[string]interface{}{
		"severity":   "moderate",
		"confidence": 0.82,
		"regions":    []interface{}{"arm", "neck"},
	}
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	m := AnalysisToFirestore(&types.AnalysisRecord{OwnerID: "a@b.com", Result: result, RecordedAt: at})

	assert.Equal(t, result, m["result"])
	assert.Equal(t, at, m["timestamp"])
	assert.NotContains(t, m, "OwnerID")
}

func TestFirestoreToAnalysis(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	rec := FirestoreToAnalysis("2024-03-01T09:30:00.000Z", map[string]interface{}{
		"result":    map[string]interface{}{"severity": "mild"},
		"timestamp": at,
	})

	assert.Equal(t, "2024-03-01T09:30:00.000Z", rec.ID)
	assert.Equal(t, "mild", rec.Result["severity"])
	assert.Equal(t, at, rec.RecordedAt)
}

func TestFirestoreToAnalysis_MissingFields(t *testing.T) {
	rec := FirestoreToAnalysis("x", map[string]interface{}{"result": "not-a-map"})

	assert.Nil(t, rec.Result)
	assert.True(t, rec.RecordedAt.IsZero())
}

func TestImageConverters(t *testing.T) {
	m := ImageToFirestore(&types.ImageRecord{ImageURL: "https://example.com/a.jpg", Timestamp: "2024-03-01T09:30:00.000Z"})
	assert.Equal(t, map[string]interface{}{
		"imageUrl":  "https://example.com/a.jpg",
		"timestamp": "2024-03-01T09:30:00.000Z",
	}, m)

	rec := FirestoreToImage("auto-1", m)
	assert.Equal(t, "auto-1", rec.ID)
	assert.Equal(t, "https://example.com/a.jpg", rec.ImageURL)
}
