package firestore

import (
	"time"

	"github.com/mccedddy/EczApp/pkg/types"
)

// Helper to safely get string from map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Helper to safely get time from map (handles time.Time from Firestore)
func getTime(m map[string]interface{}, key string) time.Time {
	if v, ok := m[key]; ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

// --- ImageRecord Converters ---

// Field names follow the document layout the mobile client reads: imageUrl, timestamp.
func ImageToFirestore(r *types.ImageRecord) map[string]interface{} {
	return map[string]interface{}{
		"imageUrl":  r.ImageURL,
		"timestamp": r.Timestamp,
	}
}

func FirestoreToImage(id string, m map[string]interface{}) *types.ImageRecord {
	return &types.ImageRecord{
		ID:        id,
		ImageURL:  getString(m, "imageUrl"),
		Timestamp: getString(m, "timestamp"),
	}
}

// --- AnalysisRecord Converters ---

// The result map is written untouched; the owner is implied by the parent document.
func AnalysisToFirestore(r *types.AnalysisRecord) map[string]interface{} {
	return map[string]interface{}{
		"result":    r.Result,
		"timestamp": r.RecordedAt,
	}
}

func FirestoreToAnalysis(id string, m map[string]interface{}) *types.AnalysisRecord {
	rec := &types.AnalysisRecord{
		ID:         id,
		RecordedAt: getTime(m, "timestamp"),
	}
	if res, ok := m["result"].(map[string]interface{}); ok {
		rec.Result = res
	}
	return rec
}
